package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"subfuse/internal/compose"
	"subfuse/internal/config"
	"subfuse/internal/logging"
	"subfuse/internal/media"
	"subfuse/internal/pipeline"
	"subfuse/internal/queue"
	"subfuse/internal/services/gemini"
	"subfuse/internal/transcribe"
	"subfuse/internal/translate"
)

// buildLogger constructs the process logger from configuration. When toFile
// is set, output is copied to the daemon log under the log directory.
func buildLogger(cfg *config.Config, toFile bool) (*slog.Logger, error) {
	opts := logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if toFile {
		opts.LogFile = filepath.Join(cfg.Paths.LogDir, "subfuse.log")
	}
	logger, err := logging.New(opts)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// buildPipeline wires the concrete services behind the pipeline stages.
func buildPipeline(cfg *config.Config, store *queue.Store, logger *slog.Logger) (*pipeline.Pipeline, error) {
	generator := gemini.NewClient(gemini.Config{
		APIKey:         cfg.Gemini.APIKey,
		BaseURL:        cfg.Gemini.BaseURL,
		Model:          cfg.Gemini.Model,
		TimeoutSeconds: cfg.Gemini.TimeoutSeconds,
	})
	translator := translate.New(
		generator,
		translate.NewFileAttemptStore(cfg.Paths.AttemptDir),
		logger,
	)

	return pipeline.New(cfg, store, logger, pipeline.Dependencies{
		Prober:      media.NewProber(cfg.FFmpeg.FFprobeBinary),
		Extractor:   media.NewExtractor(cfg.FFmpeg.Binary),
		Transcriber: transcribe.NewService(transcribe.Config{Binary: cfg.Whisper.Binary, Model: cfg.Whisper.Model}),
		Translator:  translator,
		Compositor:  compose.NewCompositor(compose.Config{Binary: cfg.FFmpeg.Binary, FontFile: cfg.FFmpeg.FontFile}, logger),
	})
}
