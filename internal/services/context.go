package services

import "context"

type contextKey string

const (
	resourceKey  contextKey = "resource"
	sourceKey    contextKey = "source"
	requestIDKey contextKey = "request_id"
)

// WithResource annotates context with the resource (sprite) name being built.
func WithResource(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, resourceKey, name)
}

// ResourceFromContext returns the resource name if present.
func ResourceFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(resourceKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithSource annotates context with the source file that triggered the work.
func WithSource(ctx context.Context, path string) context.Context {
	if path == "" {
		return ctx
	}
	return context.WithValue(ctx, sourceKey, path)
}

// SourceFromContext returns the source file path if present.
func SourceFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(sourceKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(requestIDKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}
