package config

import (
	"fmt"
	"strings"
)

var validLogFormats = map[string]bool{"console": true, "json": true}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate reports the first configuration problem found. A missing Gemini
// key is fatal here so the daemon refuses to start rather than failing on
// the first translation.
func (c *Config) Validate() error {
	required := []struct {
		value string
		name  string
	}{
		{c.Paths.InputDir, "paths.input_dir"},
		{c.Paths.OutputDir, "paths.output_dir"},
		{c.Paths.SubtitleDir, "paths.subtitle_dir"},
		{c.Paths.WorkDir, "paths.work_dir"},
		{c.Paths.LogDir, "paths.log_dir"},
		{c.Paths.AttemptDir, "paths.attempt_dir"},
		{c.Paths.APIBind, "paths.api_bind"},
		{c.Whisper.Binary, "whisper.binary"},
		{c.Whisper.Model, "whisper.model"},
		{c.FFmpeg.Binary, "ffmpeg.binary"},
		{c.FFmpeg.FFprobeBinary, "ffmpeg.ffprobe_binary"},
		{c.Gemini.BaseURL, "gemini.base_url"},
		{c.Gemini.Model, "gemini.model"},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("config field %s must be set", field.name)
		}
	}

	if c.Gemini.APIKey == "" {
		return fmt.Errorf("gemini.api_key must be set (or exported as GEMINI_API_KEY)")
	}
	if c.Gemini.TimeoutSeconds <= 0 {
		return fmt.Errorf("gemini.timeout_seconds must be positive, got %d", c.Gemini.TimeoutSeconds)
	}

	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if !validLogFormats[format] {
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if !validLogLevels[level] {
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
