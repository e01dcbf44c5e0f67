package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"spritebridge/internal/config"
)

// LogFileName is the JSON log written inside the configured log directory.
const LogFileName = "spritebridge.log"

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// Outputs lists "stdout", "stderr", or file paths. Empty means stderr.
	Outputs []string
	// AddSource forces caller info; debug level always includes it.
	AddSource bool
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(opts.Level))
	addSource := opts.AddSource || levelVar.Level() <= slog.LevelDebug

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format != "" && format != "console" && format != "json" {
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	w, err := openOutputs(opts.Outputs)
	if err != nil {
		return nil, err
	}
	if format == "json" {
		return slog.New(newJSONHandler(w, levelVar, addSource)), nil
	}
	return slog.New(newConsoleHandler(w, levelVar, addSource)), nil
}

// NewFromConfig builds the CLI and watcher logger: console or JSON on stderr
// per [logging], plus a JSON copy of every record in LogFileName under the
// log directory when one is configured.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info"})
	}

	logger, err := New(Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Paths.LogDir) == "" {
		return logger, nil
	}

	file, err := openLogFile(filepath.Join(cfg.Paths.LogDir, LogFileName))
	if err != nil {
		return nil, err
	}
	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(cfg.Logging.Level))
	return slog.New(Tee(logger.Handler(), newJSONHandler(file, levelVar, false))), nil
}

// ParseLevel maps a config level name onto slog levels. Unknown names map to
// info.
func ParseLevel(level string) slog.Level {
	return parseLevel(level)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openOutputs(paths []string) (io.Writer, error) {
	seen := make(map[string]bool, len(paths))
	var writers []io.Writer
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		switch p {
		case "stdout":
			writers = append(writers, os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
		default:
			file, err := openLogFile(p)
			if err != nil {
				return nil, err
			}
			writers = append(writers, file)
		}
	}
	switch len(writers) {
	case 0:
		return os.Stderr, nil
	case 1:
		return writers[0], nil
	}
	return io.MultiWriter(writers...), nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return file, nil
}

// newJSONHandler writes the log file format `spritebridge logs` reads back:
// ts (UTC, RFC 3339), level (lowercase), msg, and source as file:line.
func newJSONHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   addSource,
		ReplaceAttr: jsonFileAttr,
	})
}

func jsonFileAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
		if a.Value.Kind() == slog.KindTime {
			a.Value = slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339))
		}
	case slog.LevelKey:
		a.Value = slog.StringValue(strings.ToLower(a.Value.String()))
	case slog.SourceKey:
		if src, ok := a.Value.Any().(*slog.Source); ok && src != nil {
			a.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
		}
	}
	return a
}

// floorHandler drops records below min before they reach the wrapped
// handler. Quiet and --json CLI runs raise the floor to warn.
type floorHandler struct {
	next slog.Handler
	min  slog.Level
}

func (h floorHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.min && h.next.Enabled(ctx, level)
}

func (h floorHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level < h.min {
		return nil
	}
	return h.next.Handle(ctx, record)
}

func (h floorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return floorHandler{next: h.next.WithAttrs(attrs), min: h.min}
}

func (h floorHandler) WithGroup(name string) slog.Handler {
	return floorHandler{next: h.next.WithGroup(name), min: h.min}
}

// WithLevelOverride returns logger with a minimum level of floor. Applying it
// twice replaces the earlier floor rather than stacking.
func WithLevelOverride(logger *slog.Logger, floor slog.Level) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	next := logger.Handler()
	if f, ok := next.(floorHandler); ok {
		next = f.next
	}
	return slog.New(floorHandler{next: next, min: floor})
}
