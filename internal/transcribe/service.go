package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"subfuse/internal/language"
	"subfuse/internal/subtitle"
)

// DefaultModel is used when the configuration does not name one.
const DefaultModel = "small"

// Config captures the whisper CLI settings.
type Config struct {
	Binary string
	Model  string
}

// Service provides whisper transcription capabilities.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a transcription service with the given configuration.
func NewService(cfg Config) *Service {
	if cfg.Binary == "" {
		cfg.Binary = "whisper"
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	return s.cfg.Model
}

// Result contains the outcome of a transcription.
type Result struct {
	// Segments are the timed transcript segments in source order.
	Segments []subtitle.Segment
	// Language is the language whisper detected (ISO 639-1 when known).
	Language string
	// Text is the full transcript.
	Text string
	// JSONPath is the whisper output file the result was parsed from.
	JSONPath string
}

// Transcribe runs whisper against a mono 16kHz WAV file and parses the JSON
// it writes into outputDir. sourceLanguage may be "auto" to let whisper
// detect the language.
func (s *Service) Transcribe(ctx context.Context, audioPath, outputDir, sourceLanguage string) (Result, error) {
	var result Result

	if strings.TrimSpace(audioPath) == "" {
		return result, fmt.Errorf("transcribe: audio path required")
	}
	if outputDir == "" {
		outputDir = filepath.Dir(audioPath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return result, fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	args := s.buildArgs(audioPath, outputDir, sourceLanguage)
	if err := s.run(ctx, s.cfg.Binary, args...); err != nil {
		return result, fmt.Errorf("whisper: %w", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	result.JSONPath = filepath.Join(outputDir, baseName+".json")

	payload, err := loadPayload(result.JSONPath)
	if err != nil {
		return result, fmt.Errorf("transcribe: %w", err)
	}
	result.Segments = payload.timedSegments()
	result.Language = language.Normalize(payload.Language)
	result.Text = strings.TrimSpace(payload.Text)
	return result, nil
}

// buildArgs constructs the whisper CLI arguments.
func (s *Service) buildArgs(audioPath, outputDir, sourceLanguage string) []string {
	args := []string{
		audioPath,
		"--model", s.cfg.Model,
		"--task", "transcribe",
		"--output_format", "json",
		"--output_dir", outputDir,
	}
	if code := language.Normalize(sourceLanguage); code != "" && !language.IsAuto(code) {
		args = append(args, "--language", code)
	}
	return args
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// LoadSegments parses a previously written whisper JSON file into timed
// segments plus the detected language.
func LoadSegments(jsonPath string) ([]subtitle.Segment, string, error) {
	payload, err := loadPayload(jsonPath)
	if err != nil {
		return nil, "", err
	}
	return payload.timedSegments(), language.Normalize(payload.Language), nil
}

// whisperPayload is the JSON structure whisper writes.
type whisperPayload struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func (p whisperPayload) timedSegments() []subtitle.Segment {
	segments := make([]subtitle.Segment, 0, len(p.Segments))
	for _, seg := range p.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		segments = append(segments, subtitle.Segment{Start: seg.Start, End: seg.End, Text: text})
	}
	return segments
}

func loadPayload(jsonPath string) (whisperPayload, error) {
	var payload whisperPayload
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return payload, fmt.Errorf("read whisper output: %w", err)
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, fmt.Errorf("parse whisper json: %w", err)
	}
	return payload, nil
}
