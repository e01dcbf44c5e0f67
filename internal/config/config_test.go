package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"spritebridge/internal/config"
	"spritebridge/internal/services"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "spritebridge", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if want := filepath.Join(tempHome, ".local", "share", "spritebridge", "logs"); cfg.Paths.LogDir != want {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, want)
	}
	if !filepath.IsAbs(cfg.Paths.WatchDir) {
		t.Fatalf("expected absolute watch dir, got %q", cfg.Paths.WatchDir)
	}
	if cfg.Project.Mode != config.ModeStandalone || cfg.ProjectMode() {
		t.Fatalf("expected standalone mode by default, got %q", cfg.Project.Mode)
	}
	if cfg.Encode.FrameDelayCS != 10 {
		t.Fatalf("expected 10cs frame delay, got %d", cfg.Encode.FrameDelayCS)
	}
	if cfg.Encode.SingleFrameFormat != "png" {
		t.Fatalf("expected png single frames, got %q", cfg.Encode.SingleFrameFormat)
	}
	if cfg.Audio.TrimStartSeconds != 0.084 || cfg.Audio.TrimEndSeconds != 0.1 {
		t.Fatalf("unexpected trim defaults %v/%v", cfg.Audio.TrimStartSeconds, cfg.Audio.TrimEndSeconds)
	}
	if cfg.HistoryPath() != filepath.Join(cfg.Paths.StateDir, "history.db") {
		t.Fatalf("unexpected history path %q", cfg.HistoryPath())
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	custom := config.Default()
	custom.Project.Mode = "PROJECT"
	custom.Project.YYP = "~/games/Demo/Demo.yyp"
	custom.Project.FolderRoot = "/Art/Sprites/"
	custom.Encode.SingleFrameFormat = " WebP "
	custom.Logging.Format = "JSON"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	configPath := filepath.Join(t.TempDir(), "custom.toml")
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom path to be used, got %q (exists=%v)", resolved, exists)
	}
	if !cfg.ProjectMode() {
		t.Fatal("expected project mode")
	}
	if cfg.Project.YYP != filepath.Join(tempHome, "games", "Demo", "Demo.yyp") {
		t.Fatalf("unexpected yyp path %q", cfg.Project.YYP)
	}
	if cfg.Project.FolderRoot != "Art/Sprites" {
		t.Fatalf("unexpected folder root %q", cfg.Project.FolderRoot)
	}
	if cfg.Encode.SingleFrameFormat != "webp" {
		t.Fatalf("unexpected single frame format %q", cfg.Encode.SingleFrameFormat)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("unexpected log format %q", cfg.Logging.Format)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(configPath, []byte("[project\nmode = 1"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(configPath)
	if !errors.Is(err, services.ErrConfiguration) || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected configuration parse error, got %v", err)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if string(contents) != config.SampleConfig() {
		t.Fatal("sample file differs from embedded sample")
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Project.Mode != config.ModeStandalone {
		t.Fatalf("expected sample to default to standalone mode, got %q", cfg.Project.Mode)
	}
	if !strings.Contains(cfg.Paths.StateDir, "spritebridge") {
		t.Fatalf("expected state dir to contain spritebridge, got %q", cfg.Paths.StateDir)
	}
	if cfg.Encode.FrameDelayCS != 10 {
		t.Fatalf("sample frame delay = %d", cfg.Encode.FrameDelayCS)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"unknown mode", func(c *config.Config) { c.Project.Mode = "cloud" }, "project.mode"},
		{"project without yyp", func(c *config.Config) { c.Project.Mode = config.ModeProject }, "project.yyp is required"},
		{"yyp wrong extension", func(c *config.Config) {
			c.Project.Mode = config.ModeProject
			c.Project.YYP = "/tmp/Demo.json"
		}, "must point at a .yyp"},
		{"zero delay", func(c *config.Config) { c.Encode.FrameDelayCS = 0 }, "encode.frame_delay_cs"},
		{"huge delay", func(c *config.Config) { c.Encode.FrameDelayCS = 70000 }, "encode.frame_delay_cs"},
		{"bad format", func(c *config.Config) { c.Encode.SingleFrameFormat = "bmp" }, "encode.single_frame_format"},
		{"bad scale", func(c *config.Config) { c.Encode.Scale = 99 }, "encode.scale"},
		{"bad quality", func(c *config.Config) { c.Audio.Quality = 11 }, "audio.quality"},
		{"negative trim", func(c *config.Config) { c.Audio.TrimEndSeconds = -1 }, "audio.trim_end_seconds"},
		{"zero debounce", func(c *config.Config) { c.Watch.DebounceMS = 0 }, "watch.debounce_ms"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestWatchLockPathIsPerDirectory(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StateDir = "/state"
	a := cfg.WatchLockPath("/art/a")
	b := cfg.WatchLockPath("/art/b")
	if a == b {
		t.Fatalf("expected distinct locks, got %q", a)
	}
	if filepath.Dir(a) != "/state" || !strings.HasSuffix(a, ".lock") {
		t.Fatalf("unexpected lock path %q", a)
	}
}
