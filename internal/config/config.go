package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	// InputDir receives uploaded and imported source videos.
	InputDir string `toml:"input_dir"`
	// OutputDir holds final subtitled videos served over HTTP.
	OutputDir string `toml:"output_dir"`
	// SubtitleDir holds generated SRT files (kept for diagnostics).
	SubtitleDir string `toml:"subtitle_dir"`
	// WorkDir holds per-request scratch directories (extracted audio,
	// transcriber output).
	WorkDir string `toml:"work_dir"`
	// LogDir holds the daemon log, the queue database, and the lock file.
	LogDir string `toml:"log_dir"`
	// AttemptDir holds the translation attempt audit log (success/ and
	// error/ partitions).
	AttemptDir string `toml:"attempt_dir"`
	// APIBind is the HTTP listen address for the serve command.
	APIBind string `toml:"api_bind"`
}

// Whisper contains configuration for the transcription CLI.
type Whisper struct {
	Binary string `toml:"binary"`
	Model  string `toml:"model"`
}

// FFmpeg contains configuration for the media tools.
type FFmpeg struct {
	Binary        string `toml:"binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	// FontFile is used by the drawtext composition fallback.
	FontFile string `toml:"font_file"`
}

// Gemini contains connection settings for the translation service.
type Gemini struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for subfuse.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Whisper Whisper `toml:"whisper"`
	FFmpeg  FFmpeg  `toml:"ffmpeg"`
	Gemini  Gemini  `toml:"gemini"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/subfuse/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and the Gemini key resolved from the
// environment when the file leaves it blank.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("subfuse.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	paths := []*string{
		&c.Paths.InputDir,
		&c.Paths.OutputDir,
		&c.Paths.SubtitleDir,
		&c.Paths.WorkDir,
		&c.Paths.LogDir,
		&c.Paths.AttemptDir,
	}
	for _, p := range paths {
		expanded, err := expandPath(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}

	c.Gemini.APIKey = strings.TrimSpace(c.Gemini.APIKey)
	if c.Gemini.APIKey == "" {
		c.Gemini.APIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	return nil
}

// EnsureDirectories creates the directories subfuse operates in.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.InputDir,
		c.Paths.OutputDir,
		c.Paths.SubtitleDir,
		c.Paths.WorkDir,
		c.Paths.LogDir,
		c.Paths.AttemptDir,
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
