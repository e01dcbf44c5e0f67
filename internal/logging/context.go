package logging

import (
	"context"
	"log/slog"

	"spritebridge/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldResource is the key for the sprite or sound resource being produced.
	FieldResource = "resource"
	// FieldSource is the key for the source file driving the current operation.
	FieldSource = "source"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if name, ok := services.ResourceFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldResource, name))
	}
	if src, ok := services.SourceFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSource, src))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
