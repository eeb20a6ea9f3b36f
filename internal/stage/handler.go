package stage

import (
	"context"
	"log/slog"

	"subfuse/internal/queue"
)

// Handler describes the contract the pipeline needs from each stage.
type Handler interface {
	Prepare(context.Context, *queue.Item) error
	Execute(context.Context, *queue.Item) error
	HealthCheck(context.Context) Health
}

// LoggerAware lets the executor hand a stage-scoped logger to handlers that
// want one.
type LoggerAware interface {
	SetLogger(*slog.Logger)
}
