package transcribe

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const samplePayload = `{
	"text": " Hello there. General Kenobi.",
	"language": "english",
	"segments": [
		{"start": 0.0, "end": 2.5, "text": " Hello there."},
		{"start": 3.0, "end": 5.0, "text": " General Kenobi."},
		{"start": 5.0, "end": 5.0, "text": "   "}
	]
}`

func TestTranscribeParsesOutput(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "audio.wav")

	service := NewService(Config{Binary: "whisper", Model: "small"})
	var captured []string
	service.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		if name != "whisper" {
			t.Errorf("binary = %q", name)
		}
		captured = args
		// Simulate whisper writing its JSON output.
		return os.WriteFile(filepath.Join(dir, "audio.json"), []byte(samplePayload), 0o644)
	})

	result, err := service.Transcribe(context.Background(), audioPath, dir, "auto")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	joined := strings.Join(captured, " ")
	for _, want := range []string{"--model small", "--task transcribe", "--output_format json"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}
	if strings.Contains(joined, "--language") {
		t.Errorf("auto detection should not pass --language: %s", joined)
	}

	if len(result.Segments) != 2 {
		t.Fatalf("segments = %d, want 2 (blank segment dropped)", len(result.Segments))
	}
	if result.Segments[0].Text != "Hello there." {
		t.Errorf("segment text = %q, want trimmed", result.Segments[0].Text)
	}
	if result.Segments[1].Start != 3.0 || result.Segments[1].End != 5.0 {
		t.Errorf("segment timing = %v-%v", result.Segments[1].Start, result.Segments[1].End)
	}
	if result.Language != "en" {
		t.Errorf("language = %q, want normalized en", result.Language)
	}
}

func TestTranscribePassesExplicitLanguage(t *testing.T) {
	dir := t.TempDir()
	service := NewService(Config{})
	var captured []string
	service.WithCommandRunner(func(_ context.Context, _ string, args ...string) error {
		captured = args
		return os.WriteFile(filepath.Join(dir, "audio.json"), []byte(samplePayload), 0o644)
	})

	if _, err := service.Transcribe(context.Background(), filepath.Join(dir, "audio.wav"), dir, "spanish"); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	joined := strings.Join(captured, " ")
	if !strings.Contains(joined, "--language es") {
		t.Errorf("args missing normalized language: %s", joined)
	}
}

func TestTranscribeFailsWithoutOutput(t *testing.T) {
	dir := t.TempDir()
	service := NewService(Config{})
	service.WithCommandRunner(func(context.Context, string, ...string) error {
		// Command succeeds but writes nothing.
		return nil
	})

	if _, err := service.Transcribe(context.Background(), filepath.Join(dir, "audio.wav"), dir, ""); err == nil {
		t.Fatal("expected error when whisper output is missing")
	}
}
