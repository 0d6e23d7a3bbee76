// Package app wires configuration, storage, the todo service and the HTTP
// server together.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"todo-tree/app/config"
	"todo-tree/app/controllers"
	"todo-tree/app/events"
	"todo-tree/app/generator"
	"todo-tree/app/logger"
	"todo-tree/app/routes"
	"todo-tree/app/services"
)

// Server is the assembled application.
type Server struct {
	cfg       config.Config
	storage   *Storage
	publisher events.Publisher
	handler   http.Handler
	log       *logger.Logger
}

// New opens storage and the event publisher and builds the HTTP handler.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	storage, err := OpenStorage(ctx, cfg, cfg.Storage.Migrates())
	if err != nil {
		return nil, err
	}

	publisher, err := newPublisher(cfg.Events)
	if err != nil {
		storage.Close()
		return nil, err
	}

	service := services.NewTodoService(storage.Repo,
		services.WithProposer(generator.New(cfg.Generator, logger.Generator())),
		services.WithPublisher(publisher),
		services.WithLogger(logger.Service()),
	)
	controller := controllers.NewTodoController(service, logger.HTTP())

	return &Server{
		cfg:       cfg,
		storage:   storage,
		publisher: publisher,
		handler:   routes.NewHandler(controller, cfg.Server.CORSOrigins, logger.HTTP()),
		log:       logger.Component("server"),
	}, nil
}

func newPublisher(cfg events.AMQPConfig) (events.Publisher, error) {
	if cfg.URL == "" {
		return events.Nop{}, nil
	}
	p, err := events.DialAMQP(cfg)
	if err != nil {
		return nil, err
	}
	logger.Events().Info().Str("exchange", cfg.Exchange).Msg("publishing todo events")
	return p, nil
}

// Handler exposes the HTTP handler, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully and
// releases storage and the publisher.
func (s *Server) Run(ctx context.Context) error {
	defer s.close()

	srv := &http.Server{
		Addr:              s.cfg.Server.Addr(),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", srv.Addr).Str("driver", s.cfg.Storage.Driver).Msg("server is running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := time.Duration(s.cfg.Server.ShutdownTimeoutSeconds) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.log.Info().Msg("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) close() {
	if err := s.publisher.Close(); err != nil {
		s.log.Warn().Err(err).Msg("close publisher")
	}
	if err := s.storage.Close(); err != nil {
		s.log.Warn().Err(err).Msg("close storage")
	}
}
