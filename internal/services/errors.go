package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInput marks missing or unreadable frames and dimension mismatches.
	ErrInput = errors.New("input error")
	// ErrDocument marks unparsable project descriptors or descriptors missing
	// a required top-level collection.
	ErrDocument = errors.New("document error")
	// ErrIO marks filesystem failures on read, write, rename, or delete.
	ErrIO            = errors.New("io error")
	ErrExternalTool  = errors.New("external tool error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrIO
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a short label for the marker carried by err.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInput):
		return "input"
	case errors.Is(err, ErrDocument):
		return "document"
	case errors.Is(err, ErrIO):
		return "io"
	case errors.Is(err, ErrExternalTool):
		return "external_tool"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "unknown"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
