package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// formatAge renders how long ago t was, e.g. "3 hours ago".
func formatAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

// formatElapsed renders short operation durations.
func formatElapsed(d time.Duration) string {
	switch {
	case d <= 0:
		return "-"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return d.Round(100 * time.Millisecond).String()
	}
}

func formatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
