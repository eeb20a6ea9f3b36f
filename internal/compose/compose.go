package compose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"subfuse/internal/logging"
	"subfuse/internal/subtitle"
)

// Config captures the settings composition needs.
type Config struct {
	Binary string
	// FontFile is used by the drawtext fallback strategy.
	FontFile string
}

// Compositor renders subtitle files into video pixel data.
type Compositor struct {
	cfg           Config
	logger        *slog.Logger
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewCompositor constructs a Compositor.
func NewCompositor(cfg Config, logger *slog.Logger) *Compositor {
	if cfg.Binary == "" {
		cfg.Binary = "ffmpeg"
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Compositor{cfg: cfg, logger: logger}
}

// WithCommandRunner sets a custom command runner (for testing).
func (c *Compositor) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	c.commandRunner = runner
}

// strategy is one way of burning subtitles. Strategies are tried in order;
// the first success wins.
type strategy struct {
	name string
	burn func(ctx context.Context, videoPath, subtitlePath, outputPath string) error
}

func (c *Compositor) strategies() []strategy {
	return []strategy{
		{name: "subtitles_filter", burn: c.burnWithSubtitlesFilter},
		{name: "drawtext_overlay", burn: c.burnWithDrawText},
	}
}

// Burn renders the subtitle file into the video, writing outputPath. The
// original audio stream is copied unmodified. All strategies failing is a
// terminal error carrying the last strategy's diagnostics.
func (c *Compositor) Burn(ctx context.Context, videoPath, subtitlePath, outputPath string) error {
	if strings.TrimSpace(videoPath) == "" || strings.TrimSpace(subtitlePath) == "" || strings.TrimSpace(outputPath) == "" {
		return errors.New("compose: video, subtitle, and output paths required")
	}

	var lastErr error
	for _, s := range c.strategies() {
		err := s.burn(ctx, videoPath, subtitlePath, outputPath)
		if err == nil {
			c.logger.InfoContext(ctx, "subtitles burned",
				logging.String("strategy", s.name),
				logging.String("output", outputPath))
			return nil
		}
		lastErr = err
		c.logger.WarnContext(ctx, "composition strategy failed",
			logging.String("strategy", s.name),
			logging.Error(err))
	}
	return fmt.Errorf("compose: all strategies failed: %w", lastErr)
}

func (c *Compositor) burnWithSubtitlesFilter(ctx context.Context, videoPath, subtitlePath, outputPath string) error {
	filter := SubtitlesFilter(subtitlePath)
	return c.runFFmpeg(ctx, videoPath, filter, outputPath)
}

func (c *Compositor) burnWithDrawText(ctx context.Context, videoPath, subtitlePath, outputPath string) error {
	data, err := os.ReadFile(subtitlePath)
	if err != nil {
		return fmt.Errorf("drawtext: read subtitle file: %w", err)
	}
	segments, err := subtitle.Parse(data)
	if err != nil {
		return fmt.Errorf("drawtext: parse subtitle file: %w", err)
	}
	if len(segments) == 0 {
		return errors.New("drawtext: subtitle file has no segments")
	}
	filter := DrawTextFilter(segments, c.cfg.FontFile)
	return c.runFFmpeg(ctx, videoPath, filter, outputPath)
}

func (c *Compositor) runFFmpeg(ctx context.Context, videoPath, filter, outputPath string) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", videoPath,
		"-vf", filter,
		"-c:a", "copy",
		outputPath,
	}
	return c.run(ctx, c.cfg.Binary, args...)
}

func (c *Compositor) run(ctx context.Context, name string, args ...string) error {
	if c.commandRunner != nil {
		return c.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// SubtitlesFilter builds the ffmpeg subtitles filter expression for a
// subtitle file. Path escaping is applied here, exactly once.
func SubtitlesFilter(subtitlePath string) string {
	return "subtitles=filename=" + EscapeFilterPath(subtitlePath)
}

// DrawTextFilter builds a chained drawtext filter that overlays each
// segment's text, visible only within its own time window. Text and font
// path escaping are applied here, exactly once.
func DrawTextFilter(segments []subtitle.Segment, fontFile string) string {
	fontPath := EscapeFilterPath(fontFile)
	filters := make([]string, 0, len(segments))
	for _, seg := range segments {
		text := EscapeDrawText(seg.Text)
		filters = append(filters, fmt.Sprintf(
			"drawtext=fontfile=%s:text='%s':fontsize=24:fontcolor=white:bordercolor=black:borderw=2:x=(w-text_w)/2:y=h-th-20:enable='between(t,%.3f,%.3f)'",
			fontPath, text, seg.Start, seg.End))
	}
	return strings.Join(filters, ",")
}
