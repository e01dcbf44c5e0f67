package logging

import (
	"context"
	"errors"
	"log/slog"
)

// teeHandler writes every record to each handler that accepts its level.
type teeHandler []slog.Handler

// Tee returns a handler that duplicates records across handlers. Nil
// handlers are dropped; a single survivor is returned as is.
func Tee(handlers ...slog.Handler) slog.Handler {
	var live teeHandler
	for _, h := range handlers {
		if h != nil {
			live = append(live, h)
		}
	}
	switch len(live) {
	case 0:
		return NoopHandler{}
	case 1:
		return live[0]
	}
	return live
}

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, h := range t {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		// handlers may retain attrs; each gets its own copy
		if err := h.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return t.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	return t.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (t teeHandler) each(fn func(slog.Handler) slog.Handler) teeHandler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = fn(h)
	}
	return out
}
