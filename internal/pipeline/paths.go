package pipeline

import (
	"path/filepath"

	"subfuse/internal/config"
	"subfuse/internal/fileutil"
	"subfuse/internal/queue"
)

// workDir returns the request-scoped scratch directory. Keying by request id
// means concurrent requests for the same input never share scratch space.
func workDir(cfg *config.Config, item *queue.Item) string {
	return filepath.Join(cfg.Paths.WorkDir, item.RequestID)
}

func audioPath(cfg *config.Config, item *queue.Item) string {
	return filepath.Join(workDir(cfg, item), "audio.wav")
}

func translatedPath(cfg *config.Config, item *queue.Item) string {
	return filepath.Join(workDir(cfg, item), "translated.json")
}

func subtitlePath(cfg *config.Config, item *queue.Item) string {
	base := fileutil.SanitizeBaseName(item.SourcePath)
	return filepath.Join(cfg.Paths.SubtitleDir, base+"_"+item.TargetLanguage+".srt")
}

func outputPath(cfg *config.Config, item *queue.Item) string {
	base := fileutil.SanitizeBaseName(item.SourcePath)
	return filepath.Join(cfg.Paths.OutputDir, base+"_"+item.TargetLanguage+"_subtitled.mp4")
}
