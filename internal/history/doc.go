// Package history persists one row per processed sprite or sound in a SQLite
// database so `spritebridge history` and `spritebridge status` can report
// what the watcher and CLI produced.
//
// The store uses WAL journaling and retries writes that hit SQLITE_BUSY, so
// the watch daemon and one-shot CLI commands can share the database.
package history
