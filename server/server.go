package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/existflow/irontrack/internal/db"
	"github.com/existflow/irontrack/internal/display"
	"github.com/existflow/irontrack/internal/timing"
)

// Options configures a Server
type Options struct {
	// Token enables bearer authentication on /api/v1 when set
	Token  string
	Locale display.Locale
	// Now overrides the clock used for live durations and date labels
	Now func() time.Time
}

// Server exposes the task store over HTTP
type Server struct {
	db     *db.DB
	timing *timing.Aggregator
	opts   Options
	echo   *echo.Echo
}

// New creates a server over an open store
func New(store *db.DB, opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Locale.Location == nil {
		opts.Locale.Location = time.Local
	}

	s := &Server{
		db:     store,
		timing: timing.New(store, timing.WithClock(opts.Now)),
		opts:   opts,
	}
	s.setupEcho()
	return s
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(requestLogger)
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	// Health check
	e.GET("/health", s.handleHealth)

	api := e.Group("/api/v1")
	if s.opts.Token != "" {
		api.Use(s.authMiddleware)
	}
	api.GET("/tasks/:id", s.handleTask)
	api.GET("/tasks/:id/variant", s.handleVariant)
	api.POST("/handoff", s.handleHandoff)

	s.echo = e
}

// Close closes the underlying store
func (s *Server) Close() error {
	return s.db.Close()
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start starts the server
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "driver": s.db.Driver()})
}
