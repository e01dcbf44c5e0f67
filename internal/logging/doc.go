// Package logging assembles structured slog loggers and formatting helpers used
// across spritebridge.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so importer and pipeline code
// can tag log lines with the resource name, source file, and correlation ID.
// NewFromConfig mirrors every record into a JSON log file when a log
// directory is configured. The package also provides a no-op logger for tests
// and wiring code that cannot fail.
package logging
