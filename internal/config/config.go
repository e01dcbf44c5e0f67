package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"spritebridge/internal/services"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WatchDir string `toml:"watch_dir"`
	LogDir   string `toml:"log_dir"`
	StateDir string `toml:"state_dir"`
}

// Project selects where exported animations go.
type Project struct {
	// Mode is "standalone" (GIF/PNG next to the source) or "project"
	// (sprite resources inside the YYP project).
	Mode       string `toml:"mode"`
	YYP        string `toml:"yyp"`
	FolderRoot string `toml:"folder_root"`
}

// Aseprite contains configuration for the sprite editor CLI.
type Aseprite struct {
	Binary         string `toml:"binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Encode contains configuration for standalone animation output.
type Encode struct {
	FrameDelayCS      int    `toml:"frame_delay_cs"`
	SingleFrameFormat string `toml:"single_frame_format"`
	Scale             int    `toml:"scale"`
}

// Audio contains configuration for the music exporter.
type Audio struct {
	FFmpegBinary     string  `toml:"ffmpeg_binary"`
	FFprobeBinary    string  `toml:"ffprobe_binary"`
	OutputDir        string  `toml:"output_dir"`
	Quality          int     `toml:"quality"`
	TrimStartSeconds float64 `toml:"trim_start_seconds"`
	TrimEndSeconds   float64 `toml:"trim_end_seconds"`
}

// Watch contains configuration for the watch daemon.
type Watch struct {
	DebounceMS         int `toml:"debounce_ms"`
	StagingMaxAgeHours int `toml:"staging_max_age_hours"`
}

// History contains configuration for the import history store.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for spritebridge.
//
// Configuration sections by subsystem:
//   - Paths: watch, log, and state directories
//   - Project: output mode and the GameMaker project to import into
//   - Aseprite: editor binary and export timeout
//   - Encode: standalone GIF/PNG/WebP output
//   - Audio: ffmpeg music export
//   - Watch: debounce and leftover staging cleanup
//   - History: sqlite import log
//   - Logging: log format, level, and retention
type Config struct {
	Paths    Paths    `toml:"paths"`
	Project  Project  `toml:"project"`
	Aseprite Aseprite `toml:"aseprite"`
	Encode   Encode   `toml:"encode"`
	Audio    Audio    `toml:"audio"`
	Watch    Watch    `toml:"watch"`
	History  History  `toml:"history"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/spritebridge/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, services.Wrap(services.ErrConfiguration, "config", "parse config", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, services.Wrap(services.ErrConfiguration, "config", "normalize", resolvedPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, services.Wrap(services.ErrConfiguration, "config", "validate", resolvedPath, err)
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("spritebridge.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log and state directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HistoryPath is the sqlite database used for the import history.
func (c *Config) HistoryPath() string {
	if strings.TrimSpace(c.History.Path) != "" {
		return c.History.Path
	}
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// ScriptDir is where the embedded Aseprite export script is installed.
func (c *Config) ScriptDir() string {
	return filepath.Join(c.Paths.StateDir, "scripts")
}

// WatchLockPath is the single-instance lock for the watch daemon on dir.
func (c *Config) WatchLockPath(dir string) string {
	sum := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(filepath.Clean(dir))
	return filepath.Join(c.Paths.StateDir, "watch"+sum+".lock")
}

// SpritesDir is the project's sprites directory, or "" without a project.
func (c *Config) SpritesDir() string {
	if strings.TrimSpace(c.Project.YYP) == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(c.Project.YYP), "sprites")
}

// ProjectMode reports whether exports are imported into the YYP project.
func (c *Config) ProjectMode() bool {
	return c.Project.Mode == ModeProject
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
