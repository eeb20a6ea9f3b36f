package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"subfuse/internal/config"
	"subfuse/internal/logging"
	"subfuse/internal/queue"
	"subfuse/internal/server"
)

const (
	defaultPollInterval  = 2 * time.Second
	defaultErrorInterval = 5 * time.Second
)

// Worker drains pending queue items one at a time.
type Worker interface {
	ProcessNext(ctx context.Context) (bool, error)
}

// Daemon coordinates the API server and the queue worker and enforces
// single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *queue.Store
	worker Worker
	api    *server.Server

	lockPath string
	lock     *flock.Flock

	pollInterval  time.Duration
	errorInterval time.Duration

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status reports daemon runtime information.
type Status struct {
	Running      bool
	APIAddress   string
	QueueDBPath  string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, worker Worker, api *server.Server, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || worker == nil || api == nil {
		return nil, errors.New("daemon requires config, store, worker, and api server")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "subfuse.lock")
	return &Daemon{
		cfg:           cfg,
		logger:        logging.WithComponent(logger, "daemon"),
		store:         store,
		worker:        worker,
		api:           api,
		lockPath:      lockPath,
		lock:          flock.New(lockPath),
		pollInterval:  defaultPollInterval,
		errorInterval: defaultErrorInterval,
	}, nil
}

// Start acquires the daemon lock, recovers interrupted items, starts the API
// server, and launches the queue worker.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another subfuse daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)

	reclaimed, err := d.store.ResetStuckProcessing(runCtx)
	if err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("reset stuck items: %w", err)
	}
	if reclaimed > 0 {
		d.logger.Info("recovered interrupted items", logging.Int64("count", reclaimed))
	}

	if err := d.api.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start api server: %w", err)
	}

	d.cancel = cancel
	d.running.Store(true)
	d.wg.Add(1)
	go d.runWorker(runCtx)

	d.logger.Info("daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api", d.api.Addr()),
	)
	return nil
}

// Stop terminates background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	d.api.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close stops the daemon and closes the queue store.
func (d *Daemon) Close() error {
	d.Stop()
	return d.store.Close()
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		APIAddress:   d.api.Addr(),
		QueueDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
	}
}

func (d *Daemon) runWorker(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		processed, err := d.worker.ProcessNext(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			d.logger.Error("queue worker iteration failed", logging.Error(err))
			if !d.sleep(ctx, d.errorInterval) {
				return
			}
			continue
		}
		if processed {
			continue
		}
		if !d.sleep(ctx, d.pollInterval) {
			return
		}
	}
}

func (d *Daemon) sleep(ctx context.Context, interval time.Duration) bool {
	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
