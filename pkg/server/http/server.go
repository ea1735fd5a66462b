package httpfiber

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"sync/atomic"
	"time"

	"github.com/forest-army/faucet-claimer/pkg/config"
	"github.com/forest-army/faucet-claimer/pkg/logger"
	"github.com/gofiber/contrib/fiberzap/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 1 * time.Second

type Server struct {
	app *fiber.App
	cfg *config.Schema

	registry *prometheus.Registry
	runID    string
	mode     atomic.Value // string
}

type Option func(*Server)

func NewServer(cfg *config.Schema, opts ...Option) *Server {
	app := fiber.New(fiber.Config{
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		DisableStartupMessage: true,
	})
	srv := &Server{
		app:      app,
		cfg:      cfg,
		registry: prometheus.NewRegistry(),
	}
	srv.mode.Store("")
	for _, opt := range opts {
		opt(srv)
	}

	if cfg.Global.Environment == "production" {
		if zl, ok := logger.GetLogger().(*logger.ZapLogger); ok && zl != nil {
			srv.app.Use(fiberzap.New(fiberzap.Config{
				Logger: zl.Logger,
			}))
		}
	}
	srv.MapRoutes()
	return srv
}

func WithRegistry(registry *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = registry
	}
}

// WithRunID exposes the run identifier on /readiness.
func WithRunID(runID string) Option {
	return func(s *Server) {
		s.runID = runID
	}
}

// SetMode records which flow is running, for /readiness.
func (s *Server) SetMode(mode string) {
	s.mode.Store(mode)
}

// Run serves until ctx is done, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("metrics listening on %s", s.cfg.Global.MetricsAddr)
		errCh <- s.app.Listen(s.cfg.Global.MetricsAddr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.Stop()
		return nil
	}
}

func (s *Server) Stop() {
	logger.Debugf("Stopping HTTP server...")
	if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Debugf("HTTP server shutdown: %v", err)
	}
	logger.Debugf("HTTP server stopped")
}

func (s *Server) MapRoutes() {
	v1 := s.app.Group("/")
	v1.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		ErrorLog:      log.New(os.Stderr, log.Prefix(), log.Flags()),
		ErrorHandling: promhttp.ContinueOnError,
	})))
	v1.Get("/readiness", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "ok",
			"runId":  s.runID,
			"mode":   s.mode.Load(),
		})
	})
}
