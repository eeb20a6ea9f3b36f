package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"subfuse/internal/config"
	"subfuse/internal/language"
	"subfuse/internal/logging"
	"subfuse/internal/queue"
	"subfuse/internal/services"
	"subfuse/internal/stage"
	"subfuse/internal/subtitle"
	"subfuse/internal/transcribe"
)

type baseStage struct {
	cfg    *config.Config
	logger *slog.Logger
}

func (b *baseStage) SetLogger(logger *slog.Logger) {
	if logger != nil {
		b.logger = logger
	}
}

func (b *baseStage) log() *slog.Logger {
	if b.logger == nil {
		return logging.NewNop()
	}
	return b.logger
}

// extractStage probes the source container and extracts a mono 16kHz track.
type extractStage struct {
	baseStage
	prober    Prober
	extractor Extractor
}

func newExtractStage(cfg *config.Config, prober Prober, extractor Extractor) *extractStage {
	return &extractStage{baseStage: baseStage{cfg: cfg}, prober: prober, extractor: extractor}
}

func (s *extractStage) Prepare(_ context.Context, item *queue.Item) error {
	if _, err := os.Stat(item.SourcePath); err != nil {
		return services.Wrap(services.ErrValidation, "extract", "stat source", "source video not found", err)
	}
	if err := os.MkdirAll(workDir(s.cfg, item), 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "extract", "work dir", "cannot create working directory", err)
	}
	return nil
}

func (s *extractStage) Execute(ctx context.Context, item *queue.Item) error {
	result, err := s.prober.Inspect(ctx, item.SourcePath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "extract", "ffprobe", "source inspection failed", err)
	}
	audioIndex := result.FirstAudioStreamIndex()
	if audioIndex < 0 {
		return services.Wrap(services.ErrValidation, "extract", "ffprobe", "source video has no audio stream", nil)
	}

	dest := audioPath(s.cfg, item)
	if err := s.extractor.ExtractAudio(ctx, item.SourcePath, audioIndex, dest); err != nil {
		return services.Wrap(services.ErrExternalTool, "extract", "ffmpeg", "audio extraction failed", err)
	}

	item.AudioFile = dest
	item.SetProgress("Extracting", fmt.Sprintf("audio stream %d extracted", audioIndex))
	return nil
}

func (s *extractStage) HealthCheck(context.Context) stage.Health {
	if _, err := exec.LookPath(s.cfg.FFmpeg.Binary); err != nil {
		return stage.Unhealthy("extract", fmt.Sprintf("ffmpeg binary %q not found", s.cfg.FFmpeg.Binary))
	}
	if _, err := exec.LookPath(s.cfg.FFmpeg.FFprobeBinary); err != nil {
		return stage.Unhealthy("extract", fmt.Sprintf("ffprobe binary %q not found", s.cfg.FFmpeg.FFprobeBinary))
	}
	return stage.Healthy("extract")
}

// transcribeStage runs whisper against the extracted audio.
type transcribeStage struct {
	baseStage
	transcriber Transcriber
}

func newTranscribeStage(cfg *config.Config, transcriber Transcriber) *transcribeStage {
	return &transcribeStage{baseStage: baseStage{cfg: cfg}, transcriber: transcriber}
}

func (s *transcribeStage) Prepare(_ context.Context, item *queue.Item) error {
	if strings.TrimSpace(item.AudioFile) == "" {
		return services.Wrap(services.ErrValidation, "transcribe", "", "no extracted audio recorded for item", nil)
	}
	return nil
}

func (s *transcribeStage) Execute(ctx context.Context, item *queue.Item) error {
	result, err := s.transcriber.Transcribe(ctx, item.AudioFile, workDir(s.cfg, item), item.SourceLanguage)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "transcribe", "whisper", "transcription failed", err)
	}
	if len(result.Segments) == 0 {
		return services.Wrap(services.ErrValidation, "transcribe", "whisper", "no speech segments detected", nil)
	}

	item.TranscriptFile = result.JSONPath
	item.DetectedLanguage = result.Language
	if language.IsAuto(item.SourceLanguage) || strings.TrimSpace(item.SourceLanguage) == "" {
		item.SourceLanguage = result.Language
	}
	item.SetProgress("Transcribing", fmt.Sprintf("%d segments transcribed", len(result.Segments)))
	return nil
}

func (s *transcribeStage) HealthCheck(context.Context) stage.Health {
	if _, err := exec.LookPath(s.cfg.Whisper.Binary); err != nil {
		return stage.Unhealthy("transcribe", fmt.Sprintf("whisper binary %q not found", s.cfg.Whisper.Binary))
	}
	return stage.Healthy("transcribe")
}

// translateStage performs segment-preserving batch translation. Translation
// failures degrade softly: the stage records the fallback status and the
// pipeline continues with the original-language transcript.
type translateStage struct {
	baseStage
	translator Translator
}

func newTranslateStage(cfg *config.Config, translator Translator) *translateStage {
	return &translateStage{baseStage: baseStage{cfg: cfg}, translator: translator}
}

func (s *translateStage) Prepare(_ context.Context, item *queue.Item) error {
	if strings.TrimSpace(item.TranscriptFile) == "" {
		return services.Wrap(services.ErrValidation, "translate", "", "no transcript recorded for item", nil)
	}
	return nil
}

func (s *translateStage) Execute(ctx context.Context, item *queue.Item) error {
	segments, _, err := transcribe.LoadSegments(item.TranscriptFile)
	if err != nil {
		return services.Wrap(services.ErrValidation, "translate", "load transcript", "transcript file unreadable", err)
	}

	result := s.translator.Translate(ctx, segments, item.SourceLanguage, item.TargetLanguage)
	if len(result.Segments) != len(segments) {
		// The translator contract guarantees equal length; treat a breach
		// as a hard failure rather than emitting misaligned subtitles.
		return services.Wrap(services.ErrValidation, "translate", "", "translator returned wrong segment count", nil)
	}

	data, err := json.Marshal(result.Segments)
	if err != nil {
		return services.Wrap(services.ErrValidation, "translate", "encode segments", "cannot encode translated segments", err)
	}
	if err := os.WriteFile(translatedPath(s.cfg, item), data, 0o644); err != nil {
		return services.Wrap(services.ErrConfiguration, "translate", "write segments", "cannot persist translated segments", err)
	}

	item.TranslationStatus = string(result.Status)
	if result.Status.IsFailure() {
		item.SetProgress("Translating", fmt.Sprintf("translation degraded (%s), using original text", result.Status))
		s.log().WarnContext(ctx, "translation degraded",
			logging.String("status", string(result.Status)),
			logging.String("attempt_id", result.AttemptID))
	} else {
		item.SetProgress("Translating", fmt.Sprintf("%d segments translated", len(result.Segments)))
	}
	return nil
}

func (s *translateStage) HealthCheck(context.Context) stage.Health {
	if strings.TrimSpace(s.cfg.Gemini.APIKey) == "" {
		return stage.Unhealthy("translate", "gemini api key not configured")
	}
	return stage.Healthy("translate")
}

// subtitleStage encodes the translated segments as an SRT file.
type subtitleStage struct {
	baseStage
}

func newSubtitleStage(cfg *config.Config) *subtitleStage {
	return &subtitleStage{baseStage: baseStage{cfg: cfg}}
}

func (s *subtitleStage) Prepare(context.Context, *queue.Item) error { return nil }

func (s *subtitleStage) Execute(_ context.Context, item *queue.Item) error {
	data, err := os.ReadFile(translatedPath(s.cfg, item))
	if err != nil {
		return services.Wrap(services.ErrValidation, "subtitle", "read segments", "translated segments missing", err)
	}
	var segments []subtitle.Segment
	if err := json.Unmarshal(data, &segments); err != nil {
		return services.Wrap(services.ErrValidation, "subtitle", "decode segments", "translated segments unreadable", err)
	}
	if len(segments) == 0 {
		return services.Wrap(services.ErrValidation, "subtitle", "", "no segments to encode", nil)
	}

	if err := os.MkdirAll(s.cfg.Paths.SubtitleDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "subtitle", "subtitle dir", "cannot create subtitle directory", err)
	}
	dest := subtitlePath(s.cfg, item)
	if err := os.WriteFile(dest, subtitle.Encode(segments), 0o644); err != nil {
		return services.Wrap(services.ErrConfiguration, "subtitle", "write srt", "cannot write subtitle file", err)
	}

	item.SubtitleFile = dest
	item.SetProgress("Subtitling", fmt.Sprintf("%d subtitle blocks written", len(segments)))
	return nil
}

func (s *subtitleStage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("subtitle")
}

// composeStage burns the subtitle file into the video.
type composeStage struct {
	baseStage
	compositor Compositor
}

func newComposeStage(cfg *config.Config, compositor Compositor) *composeStage {
	return &composeStage{baseStage: baseStage{cfg: cfg}, compositor: compositor}
}

func (s *composeStage) Prepare(_ context.Context, item *queue.Item) error {
	if strings.TrimSpace(item.SubtitleFile) == "" {
		return services.Wrap(services.ErrValidation, "compose", "", "no subtitle file recorded for item", nil)
	}
	if err := os.MkdirAll(s.cfg.Paths.OutputDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "compose", "output dir", "cannot create output directory", err)
	}
	return nil
}

func (s *composeStage) Execute(ctx context.Context, item *queue.Item) error {
	dest := outputPath(s.cfg, item)
	if err := s.compositor.Burn(ctx, item.SourcePath, item.SubtitleFile, dest); err != nil {
		return services.Wrap(services.ErrExternalTool, "compose", "ffmpeg", "subtitle composition failed", err)
	}

	item.FinalFile = dest
	item.SetProgress("Compositing", "subtitles burned into video")
	cleanupTransient(s.cfg, item)
	return nil
}

func (s *composeStage) HealthCheck(context.Context) stage.Health {
	if _, err := exec.LookPath(s.cfg.FFmpeg.Binary); err != nil {
		return stage.Unhealthy("compose", fmt.Sprintf("ffmpeg binary %q not found", s.cfg.FFmpeg.Binary))
	}
	return stage.Healthy("compose")
}

// cleanupTransient removes request scratch files. Best effort: the audio and
// transcript stay useful for diagnostics only until the request completes.
func cleanupTransient(cfg *config.Config, item *queue.Item) {
	dir := workDir(cfg, item)
	if strings.TrimSpace(dir) == "" || dir == cfg.Paths.WorkDir {
		return
	}
	if err := os.RemoveAll(dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return
	}
}
