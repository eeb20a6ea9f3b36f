package preflight

import (
	"context"

	"subfuse/internal/config"
	"subfuse/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// minWorkDirBytes is the free space floor for the scratch directory. Audio
// extraction and composition both write intermediate files there.
const minWorkDirBytes = 1 << 30

// RunAll executes all preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Input directory", cfg.Paths.InputDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckFreeSpace("Work directory space", cfg.Paths.WorkDir, minWorkDirBytes),
		CheckGemini(ctx, cfg),
	}
	for _, status := range CheckSystemDeps(cfg) {
		result := Result{Name: status.Name, Passed: status.Available, Detail: status.Detail}
		if status.Available {
			result.Detail = status.Command
		}
		results = append(results, result)
	}
	return results
}

// CheckSystemDeps evaluates the external binaries the pipeline shells out
// to. Both the daemon and the CLI status command use this list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpeg.Binary,
			Description: "Required for audio extraction and subtitle burn-in",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFmpeg.FFprobeBinary,
			Description: "Required for media inspection",
		},
		{
			Name:        "Whisper",
			Command:     cfg.Whisper.Binary,
			Description: "Required for transcription",
		},
	})
}

// Passed reports whether every non-optional check succeeded.
func Passed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
