package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/tsawler/sentiment"
)

// predictionService is the part of sentiment.Service the handlers use.
type predictionService interface {
	PredictBatch(ctx context.Context, items []sentiment.RawDocument) (sentiment.BatchResult, error)
	State() sentiment.ServiceState
	Ready() bool
	Metadata() (sentiment.Metadata, bool)
}

type Server struct {
	echo      *echo.Echo
	service   predictionService
	logger    *zap.Logger
	clock     clockwork.Clock
	startTime time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithClock sets the clock used for uptime reporting.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Server) {
		s.clock = clock
	}
}

func NewServer(service predictionService, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:    e,
		service: service,
		logger:  logger,
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(srv)
	}
	srv.startTime = srv.clock.Now()

	srv.registerRoutes()

	return srv
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(addr string) error {
	s.logger.Info("Starting server", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
