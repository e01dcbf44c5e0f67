package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// consoleHandler prints one human-readable line per record:
//
//	15:04:05 INFO  watcher: sprite imported resource=sHeroRun frames=6
//
// Attrs added through WithAttrs are flattened once and reused.
type consoleHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     *slog.LevelVar
	addSource bool
	color     bool

	component string
	prefix    string
	fields    []field
}

type field struct {
	key   string
	value slog.Value
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	h := &consoleHandler{mu: &sync.Mutex{}, w: w, level: lvl, addSource: addSource}
	if f, ok := w.(*os.File); ok {
		h.color = isatty.IsTerminal(f.Fd())
	}
	return h
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	if record.Level < h.level.Level() {
		return nil
	}
	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	component := h.component
	fields := append([]field(nil), h.fields...)
	record.Attrs(func(a slog.Attr) bool {
		fields = h.collect(fields, &component, h.prefix, a)
		return true
	})

	var b strings.Builder
	b.WriteString(ts.Local().Format(time.TimeOnly))
	b.WriteByte(' ')
	b.WriteString(h.levelTag(record.Level))
	b.WriteByte(' ')
	if component != "" {
		b.WriteString(component)
		b.WriteString(": ")
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	b.WriteString(msg)
	if h.addSource {
		if src := record.Source(); src != nil && src.File != "" {
			fmt.Fprintf(&b, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	for _, f := range fields {
		b.WriteByte(' ')
		b.WriteString(f.key)
		b.WriteByte('=')
		b.WriteString(formatValue(f.value))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.fields = append([]field(nil), h.fields...)
	for _, a := range attrs {
		next.fields = h.collect(next.fields, &next.component, h.prefix, a)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

// collect flattens a into dst with dotted group keys. A top-level component
// attr is lifted into the line prefix instead.
func (h *consoleHandler) collect(dst []field, component *string, prefix string, a slog.Attr) []field {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return dst
	}
	if a.Value.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner = prefix + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			dst = h.collect(dst, component, inner, ga)
		}
		return dst
	}
	if prefix == "" && a.Key == FieldComponent {
		*component = plainValue(a.Value)
		return dst
	}
	return append(dst, field{key: prefix + a.Key, value: a.Value})
}

func (h *consoleHandler) levelTag(level slog.Level) string {
	label := fmt.Sprintf("%-5s", levelLabel(level))
	if !h.color {
		return label
	}
	switch {
	case level >= slog.LevelError:
		return "\x1b[31m" + label + "\x1b[0m"
	case level >= slog.LevelWarn:
		return "\x1b[33m" + label + "\x1b[0m"
	case level < slog.LevelInfo:
		return "\x1b[2m" + label + "\x1b[0m"
	}
	return label
}

func plainValue(v slog.Value) string {
	if v.Kind() == slog.KindAny {
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	}
	return v.String()
}

func formatValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindDuration:
		return v.Duration().Round(time.Millisecond).String()
	case slog.KindTime:
		return v.Time().Local().Format(time.RFC3339)
	case slog.KindBool, slog.KindInt64, slog.KindUint64, slog.KindFloat64:
		return v.String()
	default:
		s = plainValue(v)
	}
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
