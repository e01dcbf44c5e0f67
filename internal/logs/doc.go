// Package logs reads back the JSON log file the watcher and CLI write.
//
// Tail returns the last lines of the file and can follow it for new
// output; Entry and Filter pick lines apart by level, component, and
// resource so `spritebridge logs` can narrow a busy watch session down to
// one sprite.
package logs
