package aseprite

import (
	"bytes"
	_ "embed"
	"errors"
	"os"
	"path/filepath"

	"spritebridge/internal/fileutil"
	"spritebridge/internal/services"
)

// ScriptName is the file name of the embedded exporter once written to disk.
const ScriptName = "export_tags.lua"

//go:embed export_tags.lua
var exportScript []byte

// Script returns the embedded exporter source.
func Script() []byte {
	return bytes.Clone(exportScript)
}

// EnsureScript writes the embedded exporter into dir when it is missing or
// differs from the embedded copy and returns its path.
func EnsureScript(dir string) (string, error) {
	if dir == "" {
		return "", services.Wrap(services.ErrConfiguration, component, "ensure script", "script directory is empty", nil)
	}
	path := filepath.Join(dir, ScriptName)
	existing, err := os.ReadFile(path)
	switch {
	case err == nil && bytes.Equal(existing, exportScript):
		return path, nil
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return "", services.Wrap(services.ErrIO, component, "ensure script", path, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrIO, component, "ensure script", dir, err)
	}
	if err := fileutil.WriteFileAtomic(path, exportScript, 0o644); err != nil {
		return "", services.Wrap(services.ErrIO, component, "ensure script", path, err)
	}
	return path, nil
}
