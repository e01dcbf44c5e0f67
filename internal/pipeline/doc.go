// Package pipeline turns one saved .aseprite file into its outputs.
//
// Runner.ProcessFile asks the editor to export every tag as a sprite sheet,
// splits each sheet into frames, and then either writes a standalone
// GIF/PNG/WebP next to the source or imports the frames as a sprite resource
// into the configured GameMaker project. Project access is serialized with a
// file lock next to the .yyp so the watcher and one-shot CLI imports never
// interleave commits. Every outcome is written to the history store when one
// is attached.
package pipeline
