package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"subflow/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrRemote, "transcribe", "upload", "upload failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrRemote) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"transcribe", "upload", "upload failed", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want services.Kind
	}{
		{"nil", nil, ""},
		{"validation", services.Wrap(services.ErrValidation, "upload", "select", "too large", nil), services.KindValidation},
		{"configuration", services.Wrap(services.ErrConfiguration, "", "", "bad format", nil), services.KindValidation},
		{"remote", services.Wrap(services.ErrRemote, "translate", "translate", "", errors.New("503")), services.KindRemote},
		{"cleanup", services.Wrap(services.ErrCleanup, "download", "cleanup", "", nil), services.KindCleanup},
		{"superseded", fmt.Errorf("apply: %w", services.ErrSuperseded), services.KindSuperseded},
		{"canceled", fmt.Errorf("upload: %w", context.Canceled), services.KindCanceled},
		{"other", errors.New("plain"), services.KindOther},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.Classify(tc.err); got != tc.want {
				t.Fatalf("Classify = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestMessageStripsMarker(t *testing.T) {
	err := services.Wrap(services.ErrValidation, "upload", "select", "unsupported file type", nil)
	if got := services.Message(err); got != "upload: select: unsupported file type" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := services.Message(errors.New("plain")); got != "plain" {
		t.Fatalf("unexpected message %q", got)
	}
}
