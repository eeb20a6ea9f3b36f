package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"subfuse/internal/services"
)

func TestConsoleHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger = WithComponent(logger, "pipeline")
	logger.Info("stage started", String("stage", "transcribing"), Int("count", 2))

	line := buf.String()
	if !strings.Contains(line, "INFO pipeline: stage started") {
		t.Fatalf("unexpected console line: %q", line)
	}
	if !strings.Contains(line, "stage=transcribing") || !strings.Contains(line, "count=2") {
		t.Fatalf("missing attributes in line: %q", line)
	}
}

func TestConsoleHandlerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger.Info("hidden")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info record should be filtered: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("warn record missing: %q", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	base := slog.New(newConsoleHandler(&buf, levelVar))

	ctx := services.WithItemID(context.Background(), 42)
	ctx = services.WithStage(ctx, "translating")
	ctx = services.WithRequestID(ctx, "req-1")

	WithContext(ctx, base).Info("working")

	line := buf.String()
	for _, want := range []string{"item_id=42", "stage=translating", "correlation_id=req-1"} {
		if !strings.Contains(line, want) {
			t.Errorf("line missing %q: %q", want, line)
		}
	}
}
