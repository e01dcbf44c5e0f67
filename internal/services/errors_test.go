package services_test

import (
	"errors"
	"strings"
	"testing"

	"spritebridge/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrIO, "importer", "write frame", "sprites/sHero/a.png", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"importer", "write frame", "sprites/sHero/a.png"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := services.Wrap(services.ErrDocument, "yyp", "", "missing resources array", nil)
	if !errors.Is(err, services.ErrDocument) {
		t.Fatalf("expected document marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "missing resources array") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestWrapDefaultsToIOMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected io marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrInput, "frames", "", "", nil), "input"},
		{services.Wrap(services.ErrDocument, "yyp", "", "", nil), "document"},
		{services.Wrap(services.ErrIO, "yyp", "", "", nil), "io"},
		{services.Wrap(services.ErrExternalTool, "aseprite", "", "", nil), "external_tool"},
		{errors.New("plain"), "unknown"},
	}
	for _, tc := range cases {
		if got := services.Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
