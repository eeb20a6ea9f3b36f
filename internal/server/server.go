package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"subfuse/internal/config"
	"subfuse/internal/logging"
	"subfuse/internal/queue"
	"subfuse/internal/stage"
)

// Processor runs a queued request through the pipeline.
type Processor interface {
	Process(ctx context.Context, item *queue.Item) error
	Health(ctx context.Context) []stage.Health
}

// Server is the subfuse HTTP API.
type Server struct {
	cfg       *config.Config
	store     *queue.Store
	processor Processor
	logger    *slog.Logger
	validate  *validator.Validate

	listener net.Listener
	server   *http.Server
}

// New constructs a Server.
func New(cfg *config.Config, store *queue.Store, processor Processor, logger *slog.Logger) (*Server, error) {
	if cfg == nil || store == nil || processor == nil {
		return nil, errors.New("server: config, store, and processor required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	s := &Server{
		cfg:       cfg,
		store:     store,
		processor: processor,
		logger:    logger.With(logging.String(logging.FieldComponent, "api-server")),
		validate:  validator.New(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/process-video", s.handleProcessVideo)
	mux.HandleFunc("/output/", s.handleOutput)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/queue", s.handleQueue)
	mux.HandleFunc("/api/queue/", s.handleQueueItem)

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins serving on the configured bind address. Shutdown is tied to
// ctx cancellation.
func (s *Server) Start(ctx context.Context) error {
	bind := strings.TrimSpace(s.cfg.Paths.APIBind)
	if bind == "" {
		return errors.New("server: api bind address not configured")
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}
