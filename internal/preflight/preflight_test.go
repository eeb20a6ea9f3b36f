package preflight_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"subfuse/internal/preflight"
	"subfuse/internal/testsupport"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()

	result := preflight.CheckDirectoryAccess("Work directory", dir)
	if !result.Passed {
		t.Errorf("writable directory failed: %+v", result)
	}

	result = preflight.CheckDirectoryAccess("Work directory", filepath.Join(dir, "missing"))
	if result.Passed {
		t.Error("missing directory should fail")
	}

	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	result = preflight.CheckDirectoryAccess("Work directory", file)
	if result.Passed {
		t.Error("regular file should fail")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()

	if result := preflight.CheckFreeSpace("space", dir, 1); !result.Passed {
		t.Errorf("tiny floor should pass: %+v", result)
	}
	if result := preflight.CheckFreeSpace("space", dir, ^uint64(0)); result.Passed {
		t.Error("absurd floor should fail")
	}
}

func TestCheckGemini(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Gemini.BaseURL = srv.URL
	result := preflight.CheckGemini(context.Background(), cfg)
	if !result.Passed {
		t.Errorf("responding endpoint should pass even on 404: %+v", result)
	}

	cfg.Gemini.APIKey = ""
	if result := preflight.CheckGemini(context.Background(), cfg); result.Passed {
		t.Error("missing key should fail")
	}

	cfg.Gemini.APIKey = "test"
	cfg.Gemini.BaseURL = "http://127.0.0.1:1"
	if result := preflight.CheckGemini(context.Background(), cfg); result.Passed {
		t.Error("unreachable endpoint should fail")
	}
}

func TestRunAllReportsBinaries(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	cfg.Gemini.BaseURL = "http://127.0.0.1:1"

	results := preflight.RunAll(context.Background(), cfg)
	byName := map[string]preflight.Result{}
	for _, result := range results {
		byName[result.Name] = result
	}
	for _, name := range []string{"FFmpeg", "FFprobe", "Whisper"} {
		if !byName[name].Passed {
			t.Errorf("%s should pass with stubbed binaries: %+v", name, byName[name])
		}
	}
	if byName["Gemini API"].Passed {
		t.Error("unreachable gemini endpoint should fail")
	}
	if preflight.Passed(results) {
		t.Error("Passed should be false with a failing check")
	}
}
