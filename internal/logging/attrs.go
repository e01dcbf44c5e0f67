package logging

import (
	"context"
	"log/slog"
	"time"
)

type Attr = slog.Attr

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

func attrsToArgs(attrs []Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}

func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NewComponentLogger creates a logger with a standardized component attribute.
// If logger is nil, a no-op logger is used as the base.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// HasAttrKey returns true if any attribute in attrs has the given key.
func HasAttrKey(attrs []Attr, key string) bool {
	for _, a := range attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}

const (
	// FieldEventType names the machine-readable event a log line reports.
	FieldEventType = "event_type"
	// FieldErrorHint carries the next step an operator should take.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)

// WarnWithContext logs a warning that always carries event_type, error_hint,
// and impact; defaults fill whichever attrs leaves out.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	logWithHints(logger, slog.LevelWarn, msg, eventType, attrs,
		String(FieldImpact, "operation completed with warnings"))
}

// ErrorWithContext logs an error that always carries event_type and
// error_hint.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	logWithHints(logger, slog.LevelError, msg, eventType, attrs)
}

func logWithHints(logger *slog.Logger, level slog.Level, msg, eventType string, attrs []Attr, extra ...Attr) {
	if logger == nil {
		return
	}
	defaults := append([]Attr{
		String(FieldEventType, eventType),
		String(FieldErrorHint, "check logs for details"),
	}, extra...)
	for _, d := range defaults {
		if !HasAttrKey(attrs, d.Key) {
			attrs = append(attrs, d)
		}
	}
	logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// NoopHandler discards all log output.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }

func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler { return NoopHandler{} }

func (NoopHandler) WithGroup(string) slog.Handler { return NoopHandler{} }
