package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// RetentionTarget names a directory and a glob of files in it to prune.
// Paths in Exclude are never removed (the live log file, for one).
type RetentionTarget struct {
	Dir     string
	Pattern string
	Exclude []string
}

// CleanupOldLogs deletes matching files last modified more than
// retentionDays ago and returns how many went. Zero days disables pruning.
func CleanupOldLogs(logger *slog.Logger, retentionDays int, targets ...RetentionTarget) int {
	if retentionDays <= 0 {
		return 0
	}
	if logger == nil {
		logger = NewNop()
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	removed := 0
	for _, target := range targets {
		if target.Dir == "" {
			continue
		}
		pattern := target.Pattern
		if pattern == "" {
			pattern = "*"
		}
		matches, err := filepath.Glob(filepath.Join(target.Dir, pattern))
		if err != nil {
			continue
		}
		for _, path := range matches {
			if excluded(path, target.Exclude) {
				continue
			}
			info, err := os.Stat(path)
			if err != nil || info.IsDir() || info.ModTime().After(cutoff) {
				continue
			}
			if err := os.Remove(path); err != nil {
				WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
					String("path", path),
					Error(err),
					String(FieldErrorHint, "check file permissions and log_dir ownership"),
					String(FieldImpact, "old log file remains on disk"),
				)
				continue
			}
			removed++
			logger.Info("log pruned", String("path", path), String(FieldEventType, "log_pruned"))
		}
	}
	return removed
}

func excluded(path string, exclude []string) bool {
	for _, ex := range exclude {
		if ex != "" && filepath.Clean(ex) == filepath.Clean(path) {
			return true
		}
	}
	return false
}
