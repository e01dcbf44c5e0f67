// Package aseprite drives the Aseprite CLI in batch mode to export every tag
// of a .aseprite file as its own sprite sheet.
//
// The exporter is a Lua script embedded in the binary and written next to
// the state directory on demand. The script reports each sheet it writes as a
// JSON_EXPORT: line which Client.Export parses into SheetInfo values. Command
// execution goes through an injectable Executor so tests never need the real
// editor installed.
package aseprite
