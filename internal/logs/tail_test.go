package logs_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"spritebridge/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spritebridge.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestTailLastLines(t *testing.T) {
	path := writeLog(t, "a\nb\nc\n")

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 2 || result.Lines[0] != "b" || result.Lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}
	if result.Offset != 6 {
		t.Fatalf("offset = %d, want 6", result.Offset)
	}
}

func TestTailMissingFile(t *testing.T) {
	result, err := logs.Tail(context.Background(), filepath.Join(t.TempDir(), "none.log"), logs.TailOptions{Offset: -1, Limit: 5})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 0 || result.Offset != 0 {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestTailResumesAndHoldsPartialLine(t *testing.T) {
	path := writeLog(t, "one\n")
	first, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 10})
	if err != nil {
		t.Fatalf("initial tail: %v", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := f.WriteString("two\nthr"); err != nil {
		t.Fatalf("append: %v", err)
	}
	f.Close()

	next, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: first.Offset})
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if len(next.Lines) != 1 || next.Lines[0] != "two" {
		t.Fatalf("unexpected lines: %#v", next.Lines)
	}
	if next.Offset != first.Offset+4 {
		t.Fatalf("offset = %d, want %d", next.Offset, first.Offset+4)
	}
}

func TestTailFollowWaitsForNewLines(t *testing.T) {
	path := writeLog(t, "start\n")
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	done := make(chan logs.TailResult, 1)
	go func() {
		result, err := logs.Tail(ctx, path, logs.TailOptions{Offset: 6, Follow: true, Wait: 5 * time.Second})
		if err != nil {
			t.Errorf("follow: %v", err)
		}
		done <- result
	}()

	time.Sleep(100 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	f.WriteString("next\n")
	f.Close()

	select {
	case result := <-done:
		if len(result.Lines) != 1 || result.Lines[0] != "next" {
			t.Fatalf("unexpected lines: %#v", result.Lines)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("follow did not return new line")
	}
}

func TestParseEntryAndFilter(t *testing.T) {
	line := `{"ts":"2026-03-01T10:00:00Z","level":"warn","msg":"sprite import failed","component":"pipeline","resource":"sHeroRun","source":"/art/hero.aseprite","error_hint":"check frames"}`
	entry, ok := logs.ParseEntry(line)
	if !ok {
		t.Fatal("expected entry to parse")
	}
	if entry.Level != slog.LevelWarn || entry.Component != "pipeline" || entry.Resource != "sHeroRun" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.Fields["source"] != "/art/hero.aseprite" {
		t.Fatalf("source field missing: %v", entry.Fields)
	}

	formatted := entry.Format()
	for _, want := range []string{"WARN", "pipeline: sprite import failed", "resource=sHeroRun", "error_hint=check frames"} {
		if !strings.Contains(formatted, want) {
			t.Fatalf("formatted %q missing %q", formatted, want)
		}
	}

	cases := []struct {
		name   string
		filter logs.Filter
		want   bool
	}{
		{"zero", logs.Filter{}, true},
		{"level above", logs.Filter{MinLevel: slog.LevelError}, false},
		{"component case-insensitive", logs.Filter{Component: "PIPELINE"}, true},
		{"other resource", logs.Filter{Resource: "sOther"}, false},
	}
	for _, tc := range cases {
		if got := tc.filter.Match(entry); got != tc.want {
			t.Errorf("%s: Match = %v, want %v", tc.name, got, tc.want)
		}
	}

	if _, ok := logs.ParseEntry("watcher: plain console line"); ok {
		t.Fatal("expected plain text to be rejected")
	}
}
