package logs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"spritebridge/internal/logging"
)

// Entry is one decoded line of the JSON log file.
type Entry struct {
	Time      time.Time
	Level     slog.Level
	Message   string
	Component string
	Resource  string
	Fields    map[string]any
}

var reservedKeys = map[string]struct{}{
	"ts": {}, "level": {}, "msg": {},
	logging.FieldComponent: {}, logging.FieldResource: {},
}

// ParseEntry decodes a JSON log line. Lines that are not JSON objects
// report ok == false.
func ParseEntry(line string) (Entry, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, false
	}
	entry := Entry{
		Level:     logging.ParseLevel(stringField(raw, "level")),
		Message:   stringField(raw, "msg"),
		Component: stringField(raw, logging.FieldComponent),
		Resource:  stringField(raw, logging.FieldResource),
		Fields:    make(map[string]any),
	}
	if ts, err := time.Parse(time.RFC3339, stringField(raw, "ts")); err == nil {
		entry.Time = ts
	}
	for key, value := range raw {
		if _, reserved := reservedKeys[key]; !reserved {
			entry.Fields[key] = value
		}
	}
	return entry, true
}

// Format renders the entry on one line: time, level, component, message,
// then remaining fields sorted by key.
func (e Entry) Format() string {
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("2006-01-02 15:04:05"))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s ", strings.ToUpper(e.Level.String()))
	if e.Component != "" {
		b.WriteString(e.Component)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Resource != "" {
		fmt.Fprintf(&b, " resource=%s", e.Resource)
	}
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, e.Fields[key])
	}
	return b.String()
}

// Filter selects entries. The zero Filter passes info and above.
type Filter struct {
	MinLevel  slog.Level
	Component string
	Resource  string
}

// Match reports whether e passes the filter.
func (f Filter) Match(e Entry) bool {
	if e.Level < f.MinLevel {
		return false
	}
	if f.Component != "" && !strings.EqualFold(f.Component, e.Component) {
		return false
	}
	if f.Resource != "" && f.Resource != e.Resource {
		return false
	}
	return true
}

func stringField(raw map[string]any, key string) string {
	if value, ok := raw[key].(string); ok {
		return value
	}
	return ""
}
