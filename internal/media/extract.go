package media

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Extractor pulls audio tracks out of video containers with ffmpeg.
type Extractor struct {
	binary        string
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewExtractor constructs an Extractor for the given ffmpeg binary.
func NewExtractor(binary string) *Extractor {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Extractor{binary: binary}
}

// WithCommandRunner sets a custom command runner (for testing).
func (e *Extractor) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	e.commandRunner = runner
}

// ExtractAudio extracts the audio stream at audioIndex from source into
// dest. The output is a mono 16kHz PCM WAV file suitable for transcription.
func (e *Extractor) ExtractAudio(ctx context.Context, source string, audioIndex int, dest string) error {
	if strings.TrimSpace(source) == "" || strings.TrimSpace(dest) == "" {
		return errors.New("extract audio: source and dest required")
	}
	if audioIndex < 0 {
		return fmt.Errorf("extract audio: invalid audio track index %d", audioIndex)
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-map", fmt.Sprintf("0:%d", audioIndex),
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
	if err := e.run(ctx, e.binary, args...); err != nil {
		return fmt.Errorf("ffmpeg extract: %w", err)
	}
	return nil
}

func (e *Extractor) run(ctx context.Context, name string, args ...string) error {
	if e.commandRunner != nil {
		return e.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
