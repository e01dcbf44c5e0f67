package services_test

import (
	"context"
	"testing"

	"spritebridge/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithResource(ctx, "sHeroIdle")
	ctx = services.WithSource(ctx, "/art/hero.aseprite")
	ctx = services.WithRequestID(ctx, "req-123")

	if name, ok := services.ResourceFromContext(ctx); !ok || name != "sHeroIdle" {
		t.Fatalf("unexpected resource: %v %v", name, ok)
	}
	if src, ok := services.SourceFromContext(ctx); !ok || src != "/art/hero.aseprite" {
		t.Fatalf("unexpected source: %v %v", src, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithResource(ctx, "")
	ctx = services.WithSource(ctx, "")
	if _, ok := services.ResourceFromContext(ctx); ok {
		t.Fatal("expected blank resource to be ignored")
	}
	if _, ok := services.SourceFromContext(ctx); ok {
		t.Fatal("expected blank source to be ignored")
	}
}
