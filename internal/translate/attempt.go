package translate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Status classifies the outcome of one translation attempt.
type Status string

const (
	StatusSuccess           Status = "success"
	StatusNetworkError      Status = "network_error"
	StatusMalformedResponse Status = "malformed_response"
	StatusCountMismatch     Status = "count_mismatch"
)

// IsFailure reports whether the status represents a fallback outcome.
func (s Status) IsFailure() bool {
	return s != StatusSuccess
}

// Attempt records one external translation-service call. Records are
// append-only: created at call time, persisted once, never mutated.
type Attempt struct {
	ID                   string    `json:"id"`
	CreatedAt            time.Time `json:"created_at"`
	Status               Status    `json:"status"`
	SourceLanguage       string    `json:"source_language"`
	TargetLanguage       string    `json:"target_language"`
	Model                string    `json:"model"`
	Prompt               string    `json:"prompt"`
	RawResponse          string    `json:"raw_response"`
	SegmentCountSent     int       `json:"segment_count_sent"`
	SegmentCountReceived int       `json:"segment_count_received"`
	Detail               string    `json:"detail,omitempty"`
	DurationMS           int64     `json:"duration_ms"`
}

func newAttempt(sourceLang, targetLang, model string, segmentCount int) Attempt {
	return Attempt{
		ID:               uuid.NewString(),
		CreatedAt:        time.Now().UTC(),
		SourceLanguage:   sourceLang,
		TargetLanguage:   targetLang,
		Model:            model,
		SegmentCountSent: segmentCount,
	}
}

// AttemptStore persists translation attempts.
type AttemptStore interface {
	Record(attempt Attempt) error
}

// FileAttemptStore writes one JSON file per attempt under the base
// directory, partitioned into success/ and error/ by outcome.
type FileAttemptStore struct {
	baseDir string
}

// NewFileAttemptStore constructs a store rooted at baseDir. Partition
// directories are created lazily on first write.
func NewFileAttemptStore(baseDir string) *FileAttemptStore {
	return &FileAttemptStore{baseDir: baseDir}
}

// Record persists the attempt. The filename carries the creation timestamp
// so a plain directory listing reads chronologically.
func (s *FileAttemptStore) Record(attempt Attempt) error {
	partition := "success"
	if attempt.Status.IsFailure() {
		partition = "error"
	}
	dir := filepath.Join(s.baseDir, partition)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("attempt store: create partition: %w", err)
	}

	data, err := json.MarshalIndent(attempt, "", "  ")
	if err != nil {
		return fmt.Errorf("attempt store: encode attempt: %w", err)
	}
	name := fmt.Sprintf("%s_%s.json", attempt.CreatedAt.Format("20060102T150405.000Z"), attempt.ID)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("attempt store: write attempt: %w", err)
	}
	return nil
}
