package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending        Status = "pending"
	StatusExtracting     Status = "extracting"
	StatusAudioExtracted Status = "audio_extracted"
	StatusTranscribing   Status = "transcribing"
	StatusTranscribed    Status = "transcribed"
	StatusTranslating    Status = "translating"
	StatusTranslated     Status = "translated"
	StatusSubtitling     Status = "subtitling"
	StatusSubtitled      Status = "subtitled"
	StatusCompositing    Status = "compositing"
	StatusCompleted      Status = "completed"
	StatusFailed         Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusExtracting,
	StatusAudioExtracted,
	StatusTranscribing,
	StatusTranscribed,
	StatusTranslating,
	StatusTranslated,
	StatusSubtitling,
	StatusSubtitled,
	StatusCompositing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusExtracting:   {},
	StatusTranscribing: {},
	StatusTranslating:  {},
	StatusSubtitling:   {},
	StatusCompositing:  {},
}

type statusTransition struct {
	from Status
	to   Status
}

// stageRollbackTransitions map in-flight statuses back to the completed
// status of the previous stage, used when recovering after a crash.
var stageRollbackTransitions = []statusTransition{
	{from: StatusExtracting, to: StatusPending},
	{from: StatusTranscribing, to: StatusAudioExtracted},
	{from: StatusTranslating, to: StatusTranscribed},
	{from: StatusSubtitling, to: StatusTranslated},
	{from: StatusCompositing, to: StatusSubtitled},
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Completed  int
}

// Item represents a subtitling request persisted in SQLite.
type Item struct {
	ID int64
	// RequestID names the request-scoped working directory, so concurrent
	// requests for the same input never collide.
	RequestID         string
	SourcePath        string
	SourceLanguage    string
	TargetLanguage    string
	DetectedLanguage  string
	Status            Status
	AudioFile         string
	TranscriptFile    string
	SubtitleFile      string
	FinalFile         string
	TranslationStatus string
	ErrorMessage      string
	ProgressStage     string
	ProgressMessage   string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (i Item) IsProcessing() bool {
	return IsProcessingStatus(i.Status)
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsTerminal reports whether the status ends the request lifecycle.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// SetProgress updates the progress fields together.
func (i *Item) SetProgress(stage, message string) {
	i.ProgressStage = stage
	i.ProgressMessage = message
}

// SetFailed marks the item as failed with the given error message.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.ProgressStage = "Failed"
	i.ProgressMessage = message
}
