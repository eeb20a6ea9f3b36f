package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subfuse/internal/config"
	"subfuse/internal/queue"
)

func writeTestConfig(t *testing.T, base string) (string, *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
input_dir = %q
output_dir = %q
subtitle_dir = %q
work_dir = %q
log_dir = %q
attempt_dir = %q
api_bind = "127.0.0.1:0"

[gemini]
api_key = "test"
`,
		filepath.Join(base, "input"),
		filepath.Join(base, "output"),
		filepath.Join(base, "subtitles"),
		filepath.Join(base, "work"),
		filepath.Join(base, "logs"),
		filepath.Join(base, "logs", "attempts"),
	)
	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	return path, cfg
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCLIQueueCommands(t *testing.T) {
	base := t.TempDir()
	configPath, cfg := writeTestConfig(t, base)

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if _, err := store.NewRequest(ctx, "/input/alpha.mp4", "en", "es"); err != nil {
		t.Fatalf("enqueue alpha: %v", err)
	}
	beta, err := store.NewRequest(ctx, "/input/beta.mp4", "auto", "fr")
	if err != nil {
		t.Fatalf("enqueue beta: %v", err)
	}
	beta.SetFailed("transcription failed")
	if err := store.Update(ctx, beta); err != nil {
		t.Fatalf("fail beta: %v", err)
	}

	out, _, err := runCLI(t, configPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	if !strings.Contains(out, "alpha.mp4") || !strings.Contains(out, "beta.mp4") {
		t.Fatalf("queue list missing items: %q", out)
	}

	out, _, err = runCLI(t, configPath, "queue", "list", "--status", "failed")
	if err != nil {
		t.Fatalf("queue list --status: %v", err)
	}
	if strings.Contains(out, "alpha.mp4") || !strings.Contains(out, "beta.mp4") {
		t.Fatalf("status filter not applied: %q", out)
	}

	out, _, err = runCLI(t, configPath, "queue", "retry", fmt.Sprintf("%d", beta.ID))
	if err != nil {
		t.Fatalf("queue retry: %v", err)
	}
	if !strings.Contains(out, "queued for retry") {
		t.Fatalf("unexpected retry output: %q", out)
	}
	updated, err := store.GetByID(ctx, beta.ID)
	if err != nil {
		t.Fatalf("GetByID after retry: %v", err)
	}
	if updated.Status != queue.StatusPending {
		t.Fatalf("retried item status = %s, want pending", updated.Status)
	}

	out, _, err = runCLI(t, configPath, "queue", "remove", "9999")
	if err != nil {
		t.Fatalf("queue remove: %v", err)
	}
	if !strings.Contains(out, "not found") {
		t.Fatalf("unexpected remove output: %q", out)
	}

	out, _, err = runCLI(t, configPath, "queue", "clear")
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	if !strings.Contains(out, "Removed 2") {
		t.Fatalf("unexpected clear output: %q", out)
	}

	out, _, err = runCLI(t, configPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list after clear: %v", err)
	}
	if !strings.Contains(out, "Queue is empty") {
		t.Fatalf("expected empty queue message, got %q", out)
	}
}

func TestCLIConfigInit(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "config.toml")

	cmd := newRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(stdout.String(), "Wrote sample configuration") {
		t.Fatalf("unexpected output: %q", stdout.String())
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}

	// A second init without --overwrite refuses to clobber the file.
	cmd = newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for existing config file")
	}
}

func TestCLIProcessRejectsBadTarget(t *testing.T) {
	base := t.TempDir()
	configPath, cfg := writeTestConfig(t, base)

	source := filepath.Join(cfg.Paths.InputDir, "movie.mp4")
	if err := os.WriteFile(source, []byte("video"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	_, _, err := runCLI(t, configPath, "process", source, "--target", "klingon")
	if err == nil || !strings.Contains(err.Error(), "unrecognized target language") {
		t.Fatalf("expected target language error, got %v", err)
	}
}
