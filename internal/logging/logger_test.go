package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"spritebridge/internal/config"
	"spritebridge/internal/logging"
	"spritebridge/internal/services"
)

func TestNewFromConfigMirrorsJSONFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")
	cfg.Logging.Level = "info"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("sprite imported", logging.String(logging.FieldResource, "sFlag"))

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &entry); err != nil {
		t.Fatalf("log file is not JSON: %v (%q)", err, content)
	}
	if entry["msg"] != "sprite imported" || entry["resource"] != "sFlag" || entry["level"] != "info" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestNewFromConfigNil(t *testing.T) {
	logger, err := logging.NewFromConfig(nil)
	if err != nil {
		t.Fatalf("NewFromConfig(nil) returned error: %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger instance")
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")

	logger, err := logging.New(logging.Options{
		Format:  "console",
		Level:   "info",
		Outputs: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "importer").Info("message without caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
	if !strings.Contains(string(content), "importer: message without caller") {
		t.Fatalf("expected component prefix, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")

	logger, err := logging.New(logging.Options{
		Format:  "console",
		Level:   "debug",
		Outputs: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"invalid": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := logging.ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithResource(ctx, "sHeroRun")
	ctx = services.WithSource(ctx, "/art/hero.aseprite")
	ctx = services.WithRequestID(ctx, "req-xyz")

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	logging.WithContext(ctx, logger).Info("contextual log")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	want := map[string]string{
		logging.FieldResource:      "sHeroRun",
		logging.FieldSource:        "/art/hero.aseprite",
		logging.FieldCorrelationID: "req-xyz",
	}
	for key, value := range want {
		if entry[key] != value {
			t.Fatalf("field %s = %v, want %q", key, entry[key], value)
		}
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	logging.WarnWithContext(logger, "stale staging kept", "staging_cleanup_failed",
		logging.String(logging.FieldImpact, "disk space not reclaimed"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if entry[logging.FieldEventType] != "staging_cleanup_failed" {
		t.Fatalf("event_type = %v", entry[logging.FieldEventType])
	}
	if entry[logging.FieldErrorHint] == nil {
		t.Fatal("expected default error_hint")
	}
	if entry[logging.FieldImpact] != "disk space not reclaimed" {
		t.Fatalf("impact overridden: %v", entry[logging.FieldImpact])
	}
}

func TestErrorWithContextKeepsCallerHint(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	logging.ErrorWithContext(logger, "import failed", "import_failed",
		logging.String(logging.FieldErrorHint, "re-export from Aseprite"),
		logging.String(logging.FieldResource, "sFlag"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if entry["level"] != "ERROR" {
		t.Fatalf("level = %v", entry["level"])
	}
	if entry[logging.FieldEventType] != "import_failed" {
		t.Fatalf("event_type = %v", entry[logging.FieldEventType])
	}
	if entry[logging.FieldErrorHint] != "re-export from Aseprite" {
		t.Fatalf("error_hint = %v", entry[logging.FieldErrorHint])
	}
	if entry[logging.FieldResource] != "sFlag" {
		t.Fatalf("resource = %v", entry[logging.FieldResource])
	}
	if _, ok := entry[logging.FieldImpact]; ok {
		t.Fatal("error entries should not get a default impact")
	}
}

func TestWithLevelOverrideReplacesEarlierFloor(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	loud := logging.WithLevelOverride(logging.WithLevelOverride(base, slog.LevelError), slog.LevelDebug)
	loud.Info("visible again")

	if !strings.Contains(buf.String(), "visible again") {
		t.Fatalf("second override did not replace the first: %q", buf.String())
	}
}

func TestWithLevelOverrideSuppressesInfo(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	quiet := logging.WithLevelOverride(base, slog.LevelWarn)
	quiet.Info("hidden")
	quiet.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "spritebridge-old.log")
	newPath := filepath.Join(dir, "spritebridge.log")
	otherPath := filepath.Join(dir, "notes.txt")
	for _, p := range []string{oldPath, newPath, otherPath} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().AddDate(0, 0, -10)
	for _, p := range []string{oldPath, otherPath} {
		if err := os.Chtimes(p, past, past); err != nil {
			t.Fatal(err)
		}
	}

	removed := logging.CleanupOldLogs(logging.NewNop(), 3, logging.RetentionTarget{Dir: dir, Pattern: "*.log", Exclude: []string{newPath}})
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Fatalf("expected old log removed, err=%v", err)
	}
	for _, p := range []string{newPath, otherPath} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s kept: %v", p, err)
		}
	}
}
