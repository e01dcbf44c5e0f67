// Package watcher runs the long-lived watch loop that reacts to saved
// .aseprite files.
//
// It wires fsnotify over the watch directory tree, debounces the bursts of
// Create/Write events an editor emits on save, and hands each settled path to
// the pipeline one at a time. A flock-based lock per watch directory keeps a
// second watcher from processing the same tree. On start it prunes old log
// files and removes staging directories left behind by interrupted imports.
package watcher
