package testsupport

import (
	"context"
	"testing"

	"subfuse/internal/config"
	"subfuse/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewRequest creates a new subtitling request for tests using the provided
// store.
func NewRequest(t testing.TB, store *queue.Store, sourcePath, sourceLang, targetLang string) *queue.Item {
	t.Helper()

	item, err := store.NewRequest(context.Background(), sourcePath, sourceLang, targetLang)
	if err != nil {
		t.Fatalf("store.NewRequest: %v", err)
	}
	return item
}
