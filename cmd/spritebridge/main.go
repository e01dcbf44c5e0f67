package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"spritebridge/internal/services"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(exitCode(err))
	}
}

// exitCode maps error markers onto distinct exit statuses so scripts can
// tell bad input apart from a broken tool or project.
func exitCode(err error) int {
	switch services.Kind(err) {
	case "input":
		return 2
	case "document":
		return 3
	case "external_tool":
		return 4
	case "configuration":
		return 5
	default:
		return 1
	}
}
