package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"spritebridge/internal/config"
	"spritebridge/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "[paths]\nwatch_dir = %q\nlog_dir = %q\nstate_dir = %q\n\n",
		cfg.Paths.WatchDir, cfg.Paths.LogDir, cfg.Paths.StateDir)
	fmt.Fprintf(&b, "[project]\nmode = %q\n", cfg.Project.Mode)
	if cfg.Project.YYP != "" {
		fmt.Fprintf(&b, "yyp = %q\n", cfg.Project.YYP)
	}
	fmt.Fprintf(&b, "\n[aseprite]\nbinary = %q\n", cfg.Aseprite.Binary)
	fmt.Fprintf(&b, "\n[watch]\ndebounce_ms = %d\n", cfg.Watch.DebounceMS)
	fmt.Fprintf(&b, "\n[logging]\nlevel = \"warn\"\n")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// writeExporterStub installs a fake aseprite that reports sheetPath as a
// single exported tag.
func writeExporterStub(t *testing.T, dir, sheetPath string, width, height, frames int, tag string) string {
	t.Helper()
	line := fmt.Sprintf(`JSON_EXPORT:{"path":%q,"width":%d,"height":%d,"frame_count":%d,"tag_name":%q}`,
		sheetPath, width, height, frames, tag)
	script := "#!/bin/sh\necho '" + line + "' >&2\n"
	path := filepath.Join(dir, "aseprite-stub")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
