package daemon_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"subfuse/internal/config"
	"subfuse/internal/daemon"
	"subfuse/internal/queue"
	"subfuse/internal/server"
	"subfuse/internal/stage"
	"subfuse/internal/testsupport"
)

type stubWorker struct {
	calls atomic.Int64
}

func (w *stubWorker) ProcessNext(context.Context) (bool, error) {
	w.calls.Add(1)
	return false, nil
}

type stubProcessor struct{}

func (stubProcessor) Process(context.Context, *queue.Item) error { return nil }

func (stubProcessor) Health(context.Context) []stage.Health {
	return []stage.Health{stage.Healthy("extract")}
}

func newTestDaemon(t *testing.T, cfg *config.Config, store *queue.Store, worker daemon.Worker) *daemon.Daemon {
	t.Helper()
	api, err := server.New(cfg, store, stubProcessor{}, nil)
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	d, err := daemon.New(cfg, store, worker, api, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	return d
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)
	worker := &stubWorker{}
	d := newTestDaemon(t, cfg, store, worker)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	status := d.Status()
	if !status.Running {
		t.Error("status should report running")
	}
	if status.APIAddress == "" {
		t.Error("api address missing")
	}

	deadline := time.Now().Add(2 * time.Second)
	for worker.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if worker.calls.Load() == 0 {
		t.Error("worker never polled the queue")
	}

	d.Stop()
	if d.Status().Running {
		t.Error("status should report stopped")
	}
}

func TestDaemonSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)

	first := newTestDaemon(t, cfg, store, &stubWorker{})
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer first.Stop()

	second := newTestDaemon(t, cfg, store, &stubWorker{})
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second instance should fail to acquire the lock")
	}
}

func TestDaemonRecoversInterruptedItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)

	item := testsupport.NewRequest(t, store, "/input/a.mp4", "en", "es")
	item.Status = queue.StatusTranscribing
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("update: %v", err)
	}

	d := newTestDaemon(t, cfg, store, &stubWorker{})
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	fetched, err := store.GetByID(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetched.Status != queue.StatusAudioExtracted {
		t.Errorf("status = %s, want rollback to audio_extracted", fetched.Status)
	}
}
