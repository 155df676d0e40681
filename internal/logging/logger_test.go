package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"nostrcast/internal/services"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestPrettyHandlerPullsComponentForward(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, lvl))

	logger.Info("uploading file", FieldComponent, "upload", "server", "https://blossom.example")

	line := buf.String()
	if !strings.Contains(line, "INFO upload: uploading file") {
		t.Fatalf("expected component prefix, got %q", line)
	}
	if !strings.Contains(line, "server=https://blossom.example") {
		t.Fatalf("expected attribute suffix, got %q", line)
	}
}

func TestPrettyHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, lvl))

	logger.Info("done", "caption", "two words")

	if !strings.Contains(buf.String(), `caption="two words"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestPrettyHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)
	logger := slog.New(newPrettyHandler(&buf, lvl))

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info record should be suppressed, got %q", out)
	}
	if !strings.Contains(out, "WARN shown") {
		t.Fatalf("warn record missing, got %q", out)
	}
}

func TestWithContextAddsRunFields(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, lvl))

	ctx := services.WithRunID(context.Background(), "run-7")
	ctx = services.WithInput(ctx, "https://example.com/p/1")
	WithContext(ctx, logger).Info("started")

	out := buf.String()
	if !strings.Contains(out, "run_id=run-7") {
		t.Fatalf("expected run id field, got %q", out)
	}
	if !strings.Contains(out, "input=https://example.com/p/1") {
		t.Fatalf("expected input field, got %q", out)
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("should not panic or write anywhere")
}
