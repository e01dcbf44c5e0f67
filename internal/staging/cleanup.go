// Package staging names and cleans the scratch directories an import leaves
// beside a project's sprites while it commits.
package staging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"spritebridge/internal/logging"
)

const (
	// StagePrefix marks a directory holding a resource that has not been
	// committed yet.
	StagePrefix = ".spritebridge-stage-"
	// AsidePrefix marks a previous resource directory moved out of the way
	// during commit.
	AsidePrefix = ".spritebridge-old-"
)

// StageDir is the staging directory for import id under spritesDir.
func StageDir(spritesDir, id string) string {
	return filepath.Join(spritesDir, StagePrefix+id)
}

// AsideDir is where the previous resource directory waits during commit.
func AsideDir(spritesDir, id string) string {
	return filepath.Join(spritesDir, AsidePrefix+id)
}

// IsLeftover reports whether name is a staging or aside directory name.
func IsLeftover(name string) bool {
	return strings.HasPrefix(name, StagePrefix) || strings.HasPrefix(name, AsidePrefix)
}

// CleanStaleResult contains the outcome of a stale directory cleanup operation.
type CleanStaleResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a directory path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes leftover staging and aside directories in spritesDir
// older than maxAge, or all of them when maxAge <= 0. Resource directories
// are never touched.
func CleanStale(ctx context.Context, spritesDir string, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	result := CleanStaleResult{}

	spritesDir = strings.TrimSpace(spritesDir)
	if spritesDir == "" {
		return result
	}

	entries, err := os.ReadDir(spritesDir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: spritesDir, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)

	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if !entry.IsDir() || !IsLeftover(entry.Name()) {
			continue
		}

		dirPath := filepath.Join(spritesDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			continue
		}
		if maxAge > 0 && !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.RemoveAll(dirPath); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			if logger != nil {
				logger.Warn("failed to remove stale staging directory",
					logging.String("path", dirPath),
					logging.Error(err),
					logging.String(logging.FieldEventType, "staging_cleanup_failed"),
					logging.String(logging.FieldErrorHint, "check sprites directory permissions"),
					logging.String(logging.FieldImpact, "leftover import files remain in the project"),
				)
			}
			continue
		}
		result.Removed = append(result.Removed, dirPath)
		if logger != nil {
			logger.Info("removed stale staging directory",
				logging.String("path", dirPath),
				logging.Duration("age", time.Since(info.ModTime())),
				logging.String(logging.FieldEventType, "staging_cleanup"),
			)
		}
	}

	return result
}

// ListDirectories returns the leftover staging and aside directories in
// spritesDir with their metadata.
func ListDirectories(spritesDir string) ([]DirInfo, error) {
	spritesDir = strings.TrimSpace(spritesDir)
	if spritesDir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(spritesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []DirInfo
	for _, entry := range entries {
		if !entry.IsDir() || !IsLeftover(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		dirPath := filepath.Join(spritesDir, entry.Name())
		size, _ := dirSize(dirPath)

		dirs = append(dirs, DirInfo{
			Name:    entry.Name(),
			Path:    dirPath,
			ModTime: info.ModTime(),
			Size:    size,
		})
	}

	return dirs, nil
}

// DirInfo contains metadata about a leftover directory.
type DirInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// dirSize calculates the total size of a directory recursively.
func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // best effort
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}
