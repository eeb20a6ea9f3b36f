package queue_test

import (
	"context"
	"testing"

	"subfuse/internal/queue"
	"subfuse/internal/testsupport"
)

func TestNewRequestAndFetch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item, err := store.NewRequest(ctx, "/input/movie.mp4", "auto", "es")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if item.Status != queue.StatusPending {
		t.Errorf("status = %s, want pending", item.Status)
	}
	if item.RequestID == "" {
		t.Error("request id must be assigned")
	}
	if item.TargetLanguage != "es" {
		t.Errorf("target language = %q", item.TargetLanguage)
	}

	fetched, err := store.GetByRequestID(ctx, item.RequestID)
	if err != nil {
		t.Fatalf("GetByRequestID: %v", err)
	}
	if fetched == nil || fetched.ID != item.ID {
		t.Fatalf("fetched = %+v", fetched)
	}

	// Repeated uploads of the same input get distinct request ids.
	second, err := store.NewRequest(ctx, "/input/movie.mp4", "auto", "es")
	if err != nil {
		t.Fatalf("NewRequest second: %v", err)
	}
	if second.RequestID == item.RequestID {
		t.Error("request ids must be unique per request")
	}
}

func TestNewRequestValidation(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if _, err := store.NewRequest(ctx, "", "en", "es"); err == nil {
		t.Error("expected error for empty source path")
	}
	if _, err := store.NewRequest(ctx, "/input/a.mp4", "en", ""); err == nil {
		t.Error("expected error for empty target language")
	}
}

func TestUpdatePersistsPipelineFields(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	item := testsupport.NewRequest(t, store, "/input/movie.mp4", "en", "fr")

	item.Status = queue.StatusTranscribed
	item.DetectedLanguage = "en"
	item.AudioFile = "/work/req/audio.wav"
	item.TranscriptFile = "/work/req/audio.json"
	item.SetProgress("Transcribing", "42 segments")
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched.Status != queue.StatusTranscribed || fetched.DetectedLanguage != "en" {
		t.Errorf("fetched = %+v", fetched)
	}
	if fetched.AudioFile != item.AudioFile || fetched.TranscriptFile != item.TranscriptFile {
		t.Errorf("artifact paths lost: %+v", fetched)
	}
	if fetched.ProgressStage != "Transcribing" {
		t.Errorf("progress stage = %q", fetched.ProgressStage)
	}
}

func TestNextForStatusesOrdering(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first := testsupport.NewRequest(t, store, "/input/a.mp4", "en", "es")
	second := testsupport.NewRequest(t, store, "/input/b.mp4", "en", "es")

	next, err := store.NextForStatuses(ctx, queue.StatusPending)
	if err != nil {
		t.Fatalf("NextForStatuses: %v", err)
	}
	if next == nil || next.ID != first.ID {
		t.Fatalf("next = %+v, want first item", next)
	}

	first.Status = queue.StatusCompleted
	if err := store.Update(ctx, first); err != nil {
		t.Fatalf("Update: %v", err)
	}
	next, err = store.NextForStatuses(ctx, queue.StatusPending)
	if err != nil {
		t.Fatalf("NextForStatuses: %v", err)
	}
	if next == nil || next.ID != second.ID {
		t.Fatalf("next = %+v, want second item", next)
	}
}

func TestClaimForProcessing(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	item := testsupport.NewRequest(t, store, "/input/a.mp4", "en", "es")

	claimed, err := store.ClaimForProcessing(ctx, item.ID, queue.StatusPending, queue.StatusExtracting)
	if err != nil {
		t.Fatalf("ClaimForProcessing: %v", err)
	}
	if !claimed {
		t.Fatal("first claim must win")
	}

	// A second claimant racing for the same transition loses.
	claimed, err = store.ClaimForProcessing(ctx, item.ID, queue.StatusPending, queue.StatusExtracting)
	if err != nil {
		t.Fatalf("ClaimForProcessing second: %v", err)
	}
	if claimed {
		t.Error("second claim must lose")
	}

	fetched, _ := store.GetByID(ctx, item.ID)
	if fetched.Status != queue.StatusExtracting {
		t.Errorf("status = %s, want extracting", fetched.Status)
	}
}

func TestResetStuckProcessing(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	item := testsupport.NewRequest(t, store, "/input/a.mp4", "en", "es")
	item.Status = queue.StatusTranslating
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	reset, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing: %v", err)
	}
	if reset != 1 {
		t.Fatalf("reset = %d, want 1", reset)
	}

	fetched, _ := store.GetByID(ctx, item.ID)
	if fetched.Status != queue.StatusTranscribed {
		t.Errorf("status = %s, want transcribed", fetched.Status)
	}
}

func TestRetryFailed(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	item := testsupport.NewRequest(t, store, "/input/a.mp4", "en", "es")
	item.SetFailed("whisper exploded")
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	ok, err := store.RetryFailed(ctx, item.ID)
	if err != nil || !ok {
		t.Fatalf("RetryFailed = %v, %v", ok, err)
	}
	fetched, _ := store.GetByID(ctx, item.ID)
	if fetched.Status != queue.StatusPending || fetched.ErrorMessage != "" {
		t.Errorf("fetched = %+v", fetched)
	}

	// Retrying a non-failed item is a no-op.
	ok, err = store.RetryFailed(ctx, item.ID)
	if err != nil {
		t.Fatalf("RetryFailed: %v", err)
	}
	if ok {
		t.Error("retry of pending item should report false")
	}
}

func TestClearAndSummary(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	a := testsupport.NewRequest(t, store, "/input/a.mp4", "en", "es")
	b := testsupport.NewRequest(t, store, "/input/b.mp4", "en", "es")
	testsupport.NewRequest(t, store, "/input/c.mp4", "en", "es")

	a.Status = queue.StatusCompleted
	_ = store.Update(ctx, a)
	b.SetFailed("boom")
	_ = store.Update(ctx, b)

	summary, err := store.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.Total != 3 || summary.Completed != 1 || summary.Failed != 1 || summary.Pending != 1 {
		t.Errorf("summary = %+v", summary)
	}

	removed, err := store.ClearCompleted(ctx)
	if err != nil || removed != 1 {
		t.Fatalf("ClearCompleted = %d, %v", removed, err)
	}
	removed, err = store.ClearFailed(ctx)
	if err != nil || removed != 1 {
		t.Fatalf("ClearFailed = %d, %v", removed, err)
	}
	removed, err = store.Clear(ctx)
	if err != nil || removed != 1 {
		t.Fatalf("Clear = %d, %v", removed, err)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := queue.ParseStatus(" Translating "); !ok || status != queue.StatusTranslating {
		t.Errorf("ParseStatus = %s, %v", status, ok)
	}
	if _, ok := queue.ParseStatus("ripping"); ok {
		t.Error("unknown status should not parse")
	}
	if !queue.IsProcessingStatus(queue.StatusCompositing) {
		t.Error("compositing is a processing status")
	}
	if queue.IsProcessingStatus(queue.StatusCompleted) {
		t.Error("completed is not a processing status")
	}
}
