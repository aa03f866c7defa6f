// Package server exposes the daemon's HTTP surface: refresh control
// with SSE progress streaming, dashboard views, settings and cache
// management, and the run history.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nats-io/nats.go"

	"summitstats-backend/lib/clubdata"
	"summitstats-backend/lib/snapshotstore"
	"summitstats-backend/services/collector"
	"summitstats-backend/services/dashboard"
	"summitstats-backend/services/runlog"
)

type Config struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type Options struct {
	Collector *collector.Service
	Snapshots snapshotstore.Store
	Runs      runlog.Store
	Nats      *nats.Conn
	Config    Config
}

type Server struct {
	echo *echo.Echo
	opts Options

	// preparation memo, keyed on the snapshot's LastUpdated stamp
	mu          sync.Mutex
	preparedKey time.Time
	preparedOK  bool
	prepared    dashboard.Prepared
}

func New(opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger)

	s := &Server{echo: e, opts: opts}
	s.registerRoutes()
	return s
}

func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		slog.InfoContext(c.Request().Context(), "http request",
			"method", c.Request().Method,
			"uri", c.Request().RequestURI,
			"status", c.Response().Status,
			"duration", time.Since(start),
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		)
		return err
	}
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)

	api := s.echo.Group("/api")
	api.POST("/refresh", s.handleRefresh)
	api.GET("/refresh/active", s.handleRefreshActive)
	api.GET("/refresh/events/:run_id", s.handleRefreshEvents)
	api.GET("/dashboard", s.handleDashboard)
	api.GET("/settings", s.handleGetSettings)
	api.PUT("/settings", s.handlePutSettings)
	api.DELETE("/cache", s.handleClearCache)
	api.GET("/runs", s.handleRuns)
}

// preparedData returns the filter-independent preparation for snap,
// recomputing only when the snapshot changed since the last request.
// Every merge bumps LastUpdated, so the stamp identifies the snapshot.
func (s *Server) preparedData(snap clubdata.Snapshot) dashboard.Prepared {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.preparedOK && s.preparedKey.Equal(snap.LastUpdated) {
		return s.prepared
	}
	s.prepared = dashboard.Prepare(snap)
	s.preparedKey = snap.LastUpdated
	s.preparedOK = true
	return s.prepared
}

// Handler exposes the underlying mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.opts.Config.Host, s.opts.Config.Port)
	slog.Info("starting http server", "addr", addr)
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
