package preflight

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"spritebridge/internal/config"
	"spritebridge/internal/deps"
	"spritebridge/internal/yyp"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckProjectFile verifies that the project descriptor parses and carries
// the arrays the importer edits.
func CheckProjectFile(path string) Result {
	const name = "Project"
	if path == "" {
		return Result{Name: name, Detail: "no project configured"}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	doc, err := yyp.Load(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if doc.Root.Get("resources") == nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: missing resources array)", path)}
	}
	if doc.Root.Get("Folders") == nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: missing Folders array)", path)}
	}
	return Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("%s (%d resources, %d folders)", filepath.Base(path), len(doc.Resources()), len(doc.Folders())),
	}
}

// CheckSystemDeps evaluates all external tools for the given config.
// Both the watch command and the CLI status command use this to avoid
// duplicating the requirements list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckConfig(cfg)
}
