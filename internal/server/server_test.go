package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subfuse/internal/config"
	"subfuse/internal/queue"
	"subfuse/internal/server"
	"subfuse/internal/stage"
	"subfuse/internal/testsupport"
)

// completingProcessor stands in for the pipeline: it marks the item
// completed and writes a final artifact, or fails with a persisted message.
type completingProcessor struct {
	store *queue.Store
	cfg   *config.Config
	fail  bool
}

func (p *completingProcessor) Process(ctx context.Context, item *queue.Item) error {
	if p.fail {
		// A failed stage persists the tool's stderr for operators.
		item.SetFailed("audio extraction failed: ffmpeg: exit status 1: /srv/subfuse/work/input.mkv: Invalid data found when processing input")
		_ = p.store.Update(ctx, item)
		return fmt.Errorf("stage extract: boom")
	}
	final := filepath.Join(p.cfg.Paths.OutputDir, "movie_es_subtitled.mp4")
	if err := os.MkdirAll(p.cfg.Paths.OutputDir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(final, []byte("video"), 0o644); err != nil {
		return err
	}
	item.Status = queue.StatusCompleted
	item.FinalFile = final
	return p.store.Update(ctx, item)
}

func (p *completingProcessor) Health(context.Context) []stage.Health {
	return []stage.Health{stage.Healthy("extract")}
}

func newTestServer(t *testing.T, fail bool) (*server.Server, *config.Config, *queue.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)
	srv, err := server.New(cfg, store, &completingProcessor{store: store, cfg: cfg, fail: fail}, nil)
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	return srv, cfg, store
}

func multipartUpload(t *testing.T, target, source string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("video", "My Movie.mp4")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("fake video bytes")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if target != "" {
		_ = writer.WriteField("target_language", target)
	}
	if source != "" {
		_ = writer.WriteField("source_language", source)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestProcessVideoSuccess(t *testing.T) {
	srv, cfg, store := newTestServer(t, false)

	body, contentType := multipartUpload(t, "spanish", "auto")
	req := httptest.NewRequest(http.MethodPost, "/process-video", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Message   string `json:"message"`
		VideoURL  string `json:"video_url"`
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.HasPrefix(resp.VideoURL, "/output/") {
		t.Errorf("video_url = %q", resp.VideoURL)
	}
	if resp.RequestID == "" {
		t.Error("request_id missing")
	}

	// Upload landed in the input directory with a sanitized name.
	if _, err := os.Stat(filepath.Join(cfg.Paths.InputDir, "My_Movie.mp4")); err != nil {
		t.Errorf("sanitized upload missing: %v", err)
	}

	item, err := store.GetByRequestID(context.Background(), resp.RequestID)
	if err != nil || item == nil {
		t.Fatalf("item lookup: %v", err)
	}
	if item.TargetLanguage != "es" {
		t.Errorf("target language = %q, want normalized es", item.TargetLanguage)
	}
}

func TestProcessVideoFailureMapsToError(t *testing.T) {
	srv, _, _ := newTestServer(t, true)

	body, contentType := multipartUpload(t, "es", "")
	req := httptest.NewRequest(http.MethodPost, "/process-video", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["error"] == "" {
		t.Error("error payload missing")
	}
	// The persisted tool stderr and server paths never reach the caller.
	for _, leak := range []string{"boom", "ffmpeg", "exit status", "/srv/subfuse"} {
		if strings.Contains(resp["error"], leak) {
			t.Errorf("internal diagnostics leaked %q: %q", leak, resp["error"])
		}
	}
}

func TestProcessVideoValidation(t *testing.T) {
	srv, _, _ := newTestServer(t, false)

	// Missing target language.
	body, contentType := multipartUpload(t, "", "")
	req := httptest.NewRequest(http.MethodPost, "/process-video", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing target: status = %d", rec.Code)
	}

	// Unrecognized target language.
	body, contentType = multipartUpload(t, "klingon", "")
	req = httptest.NewRequest(http.MethodPost, "/process-video", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad target: status = %d", rec.Code)
	}

	// Missing file.
	noFile := &bytes.Buffer{}
	writer := multipart.NewWriter(noFile)
	_ = writer.WriteField("target_language", "es")
	_ = writer.Close()
	req = httptest.NewRequest(http.MethodPost, "/process-video", noFile)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing file: status = %d", rec.Code)
	}

	// Wrong method.
	req = httptest.NewRequest(http.MethodGet, "/process-video", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET: status = %d", rec.Code)
	}
}

func TestOutputServesArtifacts(t *testing.T) {
	srv, cfg, _ := newTestServer(t, false)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.OutputDir, "movie_es_subtitled.mp4"), 16)

	req := httptest.NewRequest(http.MethodGet, "/output/movie_es_subtitled.mp4", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}

	// Traversal attempts and unknown files 404.
	for _, path := range []string{"/output/../secret.txt", "/output/missing.mp4"} {
		req = httptest.NewRequest(http.MethodGet, path, nil)
		rec = httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", path, rec.Code)
		}
	}
}

func TestQueueEndpoints(t *testing.T) {
	srv, _, store := newTestServer(t, false)
	item := testsupport.NewRequest(t, store, "/input/a.mp4", "en", "es")

	req := httptest.NewRequest(http.MethodGet, "/api/queue", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("queue list: status = %d", rec.Code)
	}
	var list struct {
		Items []struct {
			ID     int64  `json:"id"`
			Status string `json:"status"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].ID != item.ID {
		t.Errorf("list = %+v", list)
	}

	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/queue/%d", item.ID), nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("queue item: status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/queue/9999", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown item: status = %d", rec.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Queue struct {
			Total int `json:"total"`
		} `json:"queue"`
		Stages []struct {
			Name  string `json:"name"`
			Ready bool   `json:"ready"`
		} `json:"stages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if len(resp.Stages) == 0 {
		t.Error("stage health missing")
	}
}
