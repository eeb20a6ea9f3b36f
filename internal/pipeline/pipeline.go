package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"subfuse/internal/config"
	"subfuse/internal/logging"
	"subfuse/internal/queue"
	"subfuse/internal/services"
	"subfuse/internal/stage"
	"subfuse/internal/stageexec"
)

type stageDef struct {
	name       string
	ready      queue.Status
	processing queue.Status
	done       queue.Status
	handler    stage.Handler
}

// Pipeline drives a subtitling request through every stage in order.
type Pipeline struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
	stages []stageDef
}

// New constructs a Pipeline with injected service handles.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, deps Dependencies) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("pipeline: config required")
	}
	if store == nil {
		return nil, errors.New("pipeline: queue store required")
	}
	if deps.Prober == nil || deps.Extractor == nil || deps.Transcriber == nil || deps.Translator == nil || deps.Compositor == nil {
		return nil, errors.New("pipeline: all dependencies required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	p := &Pipeline{cfg: cfg, store: store, logger: logger}
	p.stages = []stageDef{
		{
			name:       "extract",
			ready:      queue.StatusPending,
			processing: queue.StatusExtracting,
			done:       queue.StatusAudioExtracted,
			handler:    newExtractStage(cfg, deps.Prober, deps.Extractor),
		},
		{
			name:       "transcribe",
			ready:      queue.StatusAudioExtracted,
			processing: queue.StatusTranscribing,
			done:       queue.StatusTranscribed,
			handler:    newTranscribeStage(cfg, deps.Transcriber),
		},
		{
			name:       "translate",
			ready:      queue.StatusTranscribed,
			processing: queue.StatusTranslating,
			done:       queue.StatusTranslated,
			handler:    newTranslateStage(cfg, deps.Translator),
		},
		{
			name:       "subtitle",
			ready:      queue.StatusTranslated,
			processing: queue.StatusSubtitling,
			done:       queue.StatusSubtitled,
			handler:    newSubtitleStage(cfg),
		},
		{
			name:       "compose",
			ready:      queue.StatusSubtitled,
			processing: queue.StatusCompositing,
			done:       queue.StatusCompleted,
			handler:    newComposeStage(cfg, deps.Compositor),
		},
	}
	return p, nil
}

// Process runs the item through every remaining stage. An item resuming
// after a crash picks up at the stage matching its current status. The
// first stage failure aborts the request; the error carries the stage and
// reason.
func (p *Pipeline) Process(ctx context.Context, item *queue.Item) error {
	if item == nil {
		return errors.New("pipeline: item required")
	}

	ctx = services.WithItemID(ctx, item.ID)
	ctx = services.WithRequestID(ctx, item.RequestID)

	started := false
	for _, def := range p.stages {
		if !started {
			if item.Status != def.ready {
				continue
			}
			started = true
		}
		if err := stageexec.Run(ctx, stageexec.Options{
			Logger:     p.logger,
			Store:      p.store,
			Handler:    def.handler,
			StageName:  def.name,
			Ready:      def.ready,
			Processing: def.processing,
			Done:       def.done,
			Item:       item,
		}); err != nil {
			if errors.Is(err, stageexec.ErrNotClaimed) {
				return p.awaitTerminal(ctx, item)
			}
			return fmt.Errorf("stage %s: %w", def.name, err)
		}
	}
	if !started {
		return fmt.Errorf("pipeline: item %d has no runnable stage in status %s", item.ID, item.Status)
	}
	return nil
}

const claimPollInterval = 250 * time.Millisecond

// awaitTerminal follows an item claimed by another executor until it reaches
// a terminal status, then reports that executor's outcome. The item is
// refreshed in place so callers observe the final state.
func (p *Pipeline) awaitTerminal(ctx context.Context, item *queue.Item) error {
	ticker := time.NewTicker(claimPollInterval)
	defer ticker.Stop()
	for {
		fetched, err := p.store.GetByID(ctx, item.ID)
		if err != nil {
			return err
		}
		if fetched == nil {
			return fmt.Errorf("pipeline: item %d no longer exists", item.ID)
		}
		*item = *fetched
		switch item.Status {
		case queue.StatusCompleted:
			return nil
		case queue.StatusFailed:
			return fmt.Errorf("pipeline: item %d failed: %s", item.ID, item.ErrorMessage)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ProcessNext picks the oldest runnable item and runs it to completion.
// Items recovered after a crash sit at intermediate ready statuses, so the
// fetch spans every stage entry point, not just pending. Returns false when
// no work is available.
func (p *Pipeline) ProcessNext(ctx context.Context) (bool, error) {
	ready := make([]queue.Status, 0, len(p.stages))
	for _, def := range p.stages {
		ready = append(ready, def.ready)
	}
	item, err := p.store.NextForStatuses(ctx, ready...)
	if err != nil {
		return false, err
	}
	if item == nil {
		return false, nil
	}
	return true, p.Process(ctx, item)
}

// Health reports readiness of every stage.
func (p *Pipeline) Health(ctx context.Context) []stage.Health {
	health := make([]stage.Health, 0, len(p.stages))
	for _, def := range p.stages {
		health = append(health, def.handler.HealthCheck(ctx))
	}
	return health
}
