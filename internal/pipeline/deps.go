package pipeline

import (
	"context"

	"subfuse/internal/media"
	"subfuse/internal/subtitle"
	"subfuse/internal/transcribe"
	"subfuse/internal/translate"
)

// Prober inspects media containers.
type Prober interface {
	Inspect(ctx context.Context, path string) (media.ProbeResult, error)
}

// Extractor pulls a mono 16kHz audio track out of a video.
type Extractor interface {
	ExtractAudio(ctx context.Context, source string, audioIndex int, dest string) error
}

// Transcriber turns extracted audio into timed transcript segments.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, outputDir, sourceLanguage string) (transcribe.Result, error)
}

// Translator performs segment-preserving batch translation. It never fails
// hard; degraded outcomes surface through the result status.
type Translator interface {
	Translate(ctx context.Context, segments []subtitle.Segment, sourceLang, targetLang string) translate.Result
}

// Compositor burns a subtitle file into a video.
type Compositor interface {
	Burn(ctx context.Context, videoPath, subtitlePath, outputPath string) error
}

// Dependencies bundles the injected services the pipeline drives. Every
// field is required.
type Dependencies struct {
	Prober      Prober
	Extractor   Extractor
	Transcriber Transcriber
	Translator  Translator
	Compositor  Compositor
}
