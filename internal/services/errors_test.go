package services

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	err := Wrap(ErrUploadExhausted, "upload", "blossom", "all servers failed", errors.New("connection refused"))
	if !errors.Is(err, ErrUploadExhausted) {
		t.Fatalf("expected error to match ErrUploadExhausted, got %v", err)
	}
	if !strings.Contains(err.Error(), "upload: blossom: all servers failed") {
		t.Fatalf("expected detail in message, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected cause in message, got %q", err.Error())
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := Wrap(ErrDuplicateDetected, "history", "precheck", "token already recorded", nil)
	if !errors.Is(err, ErrDuplicateDetected) {
		t.Fatalf("expected ErrDuplicateDetected, got %v", err)
	}
}

func TestWrapNilMarkerDefaultsToExternalTool(t *testing.T) {
	err := Wrap(nil, "ytdlp", "download", "", errors.New("boom"))
	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool fallback, got %v", err)
	}
}

func TestIsFatal(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"duplicate", Wrap(ErrDuplicateDetected, "history", "", "", nil), true},
		{"invalid input", Wrap(ErrInvalidInput, "media", "", "", nil), true},
		{"configuration", Wrap(ErrConfiguration, "config", "", "", nil), true},
		{"external tool", Wrap(ErrExternalTool, "ffmpeg", "", "", nil), false},
		{"unsupported codec", Wrap(ErrUnsupportedCodec, "transcode", "", "", nil), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsFatal(tc.err); got != tc.fatal {
				t.Fatalf("IsFatal(%v) = %v, want %v", tc.err, got, tc.fatal)
			}
		})
	}
}
