package services

import (
	"errors"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	inner := errors.New("exit status 1")
	err := Wrap(ErrExternalTool, "extract", "ffmpeg", "audio extraction failed", inner)

	if !errors.Is(err, ErrExternalTool) {
		t.Fatal("wrapped error lost its marker")
	}
	if !errors.Is(err, inner) {
		t.Fatal("wrapped error lost its cause")
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := Wrap(nil, "stage", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatal("nil marker should default to ErrTransient")
	}
}

func TestMessage(t *testing.T) {
	err := Wrap(ErrValidation, "transcribe", "whisper", "no audio stream", nil)
	if got := Message(err); got != "transcribe: whisper: no audio stream" {
		t.Fatalf("Message = %q", got)
	}
	if got := Message(nil); got != "" {
		t.Fatalf("Message(nil) = %q", got)
	}
}
