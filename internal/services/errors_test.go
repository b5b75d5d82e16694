package services_test

import (
	"errors"
	"strings"
	"testing"

	"scanflow/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("connection refused")
	err := services.Wrap(services.ErrTransient, "verify", "recognize", "request failed", base)

	if !errors.Is(err, services.ErrTransient) {
		t.Fatal("expected ErrTransient marker")
	}
	if !errors.Is(err, base) {
		t.Fatal("expected wrapped base error")
	}
	if !strings.Contains(err.Error(), "verify: recognize: request failed") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "upload", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatal("nil marker should default to ErrTransient")
	}
}

func TestDeferred(t *testing.T) {
	offline := services.Wrap(services.ErrUnavailable, "verify", "probe", "offline", nil)
	if !services.Deferred(offline) {
		t.Fatal("offline error should be deferred")
	}
	if services.Deferred(services.Wrap(services.ErrValidation, "verify", "", "", nil)) {
		t.Fatal("validation error must not be deferred")
	}
}
