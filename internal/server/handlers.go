package server

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"subfuse/internal/fileutil"
	"subfuse/internal/language"
	"subfuse/internal/logging"
	"subfuse/internal/queue"
)

// maxUploadBytes bounds multipart uploads (2 GiB).
const maxUploadBytes = 2 << 30

type processVideoForm struct {
	SourceLanguage string `validate:"omitempty,min=2,max=32"`
	TargetLanguage string `validate:"required,min=2,max=32"`
}

type processVideoResponse struct {
	Message   string `json:"message"`
	VideoURL  string `json:"video_url"`
	RequestID string `json:"request_id"`
}

type queueItemView struct {
	ID                int64  `json:"id"`
	RequestID         string `json:"request_id"`
	SourcePath        string `json:"source_path"`
	SourceLanguage    string `json:"source_language,omitempty"`
	TargetLanguage    string `json:"target_language"`
	DetectedLanguage  string `json:"detected_language,omitempty"`
	Status            string `json:"status"`
	TranslationStatus string `json:"translation_status,omitempty"`
	FinalFile         string `json:"final_file,omitempty"`
	ErrorMessage      string `json:"error_message,omitempty"`
	ProgressStage     string `json:"progress_stage,omitempty"`
	ProgressMessage   string `json:"progress_message,omitempty"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

type queueListResponse struct {
	Items []queueItemView `json:"items"`
}

type statusResponse struct {
	Queue  queueSummaryView  `json:"queue"`
	Stages []stageHealthView `json:"stages"`
}

type queueSummaryView struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Failed     int `json:"failed"`
	Completed  int `json:"completed"`
}

type stageHealthView struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

func itemView(item *queue.Item) queueItemView {
	return queueItemView{
		ID:                item.ID,
		RequestID:         item.RequestID,
		SourcePath:        item.SourcePath,
		SourceLanguage:    item.SourceLanguage,
		TargetLanguage:    item.TargetLanguage,
		DetectedLanguage:  item.DetectedLanguage,
		Status:            string(item.Status),
		TranslationStatus: item.TranslationStatus,
		FinalFile:         item.FinalFile,
		ErrorMessage:      item.ErrorMessage,
		ProgressStage:     item.ProgressStage,
		ProgressMessage:   item.ProgressMessage,
		CreatedAt:         item.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         item.UpdatedAt.Format(time.RFC3339),
	}
}

// handleProcessVideo accepts a multipart upload and runs the full pipeline
// synchronously, returning the output artifact URL on success.
func (s *Server) handleProcessVideo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart upload")
		return
	}

	form := processVideoForm{
		SourceLanguage: strings.TrimSpace(r.FormValue("source_language")),
		TargetLanguage: strings.TrimSpace(r.FormValue("target_language")),
	}
	if err := s.validate.Struct(form); err != nil {
		s.writeError(w, http.StatusBadRequest, "target_language is required")
		return
	}
	sourceLang := language.Normalize(form.SourceLanguage)
	if sourceLang == "" {
		sourceLang = language.Auto
	}
	targetLang := language.Normalize(form.TargetLanguage)
	if targetLang == "" {
		s.writeError(w, http.StatusBadRequest, "unrecognized target_language")
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "video file is required")
		return
	}
	defer file.Close()

	sourcePath, err := s.storeUpload(file, header.Filename)
	if err != nil {
		s.logger.Error("failed to store upload", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	item, err := s.store.NewRequest(r.Context(), sourcePath, sourceLang, targetLang)
	if err != nil {
		s.logger.Error("failed to enqueue request", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to enqueue request")
		return
	}

	if err := s.processor.Process(r.Context(), item); err != nil {
		// Tool stderr and file paths stay in the server log and the queue
		// record; the caller gets a generic message.
		s.logger.Error("pipeline failed", logging.Int64("item_id", item.ID), logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "video processing failed")
		return
	}

	final, err := s.store.GetByID(r.Context(), item.ID)
	if err != nil || final == nil || final.FinalFile == "" {
		s.writeError(w, http.StatusInternalServerError, "video processing failed")
		return
	}

	s.writeJSON(w, http.StatusOK, processVideoResponse{
		Message:   "video processed successfully",
		VideoURL:  "/output/" + filepath.Base(final.FinalFile),
		RequestID: final.RequestID,
	})
}

func (s *Server) storeUpload(file io.Reader, filename string) (string, error) {
	if err := os.MkdirAll(s.cfg.Paths.InputDir, 0o755); err != nil {
		return "", err
	}
	base := fileutil.SanitizeBaseName(filename)
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".mp4"
	}
	dest := filepath.Join(s.cfg.Paths.InputDir, base+ext)

	out, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	defer out.Close()
	if _, err := io.Copy(out, file); err != nil {
		_ = os.Remove(dest)
		return "", err
	}
	return dest, out.Close()
}

// handleOutput serves a produced artifact from the output directory.
func (s *Server) handleOutput(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/output/")
	if name == "" || name != filepath.Base(name) {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	path := filepath.Join(s.cfg.Paths.OutputDir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	summary, err := s.store.Summary(r.Context())
	if err != nil {
		s.logger.Error("queue summary failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "status unavailable")
		return
	}

	health := s.processor.Health(r.Context())
	stages := make([]stageHealthView, 0, len(health))
	for _, h := range health {
		stages = append(stages, stageHealthView{Name: h.Name, Ready: h.Ready, Detail: h.Detail})
	}

	s.writeJSON(w, http.StatusOK, statusResponse{
		Queue: queueSummaryView{
			Total:      summary.Total,
			Pending:    summary.Pending,
			Processing: summary.Processing,
			Failed:     summary.Failed,
			Completed:  summary.Completed,
		},
		Stages: stages,
	})
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var statuses []queue.Status
	for _, value := range r.URL.Query()["status"] {
		if status, ok := queue.ParseStatus(value); ok {
			statuses = append(statuses, status)
		}
	}

	items, err := s.store.List(r.Context(), statuses...)
	if err != nil {
		s.logger.Error("queue list failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "queue unavailable")
		return
	}
	views := make([]queueItemView, 0, len(items))
	for _, item := range items {
		views = append(views, itemView(item))
	}
	s.writeJSON(w, http.StatusOK, queueListResponse{Items: views})
}

func (s *Server) handleQueueItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	idStr := strings.TrimPrefix(r.URL.Path, "/api/queue/")
	if idStr == "" || strings.Contains(idStr, "/") {
		s.writeError(w, http.StatusNotFound, "queue item not found")
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid queue item id")
		return
	}
	item, err := s.store.GetByID(r.Context(), id)
	if err != nil {
		s.logger.Error("queue item lookup failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "queue unavailable")
		return
	}
	if item == nil {
		s.writeError(w, http.StatusNotFound, "queue item not found")
		return
	}
	s.writeJSON(w, http.StatusOK, itemView(item))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
