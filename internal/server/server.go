// Package server serves the swim-times dashboard over HTTP.
//
// The HTML page renders the personal-best grid, a log-scale progression chart
// for one event and the full list of times, all narrowed by the same filter
// parameters as /api/times. The same data is available as
// JSON under /api, and /metrics exposes the process metrics registry.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pfrederiksen/swim-times/internal/dashboard"
	"github.com/pfrederiksen/swim-times/internal/logger"
)

const shutdownTimeout = 10 * time.Second

// DataSource supplies dashboard data; *dashboard.Service implements it
type DataSource interface {
	Data(ctx context.Context) (*dashboard.Data, error)
	Refresh() error
}

// Server is the dashboard HTTP server
type Server struct {
	source DataSource
	engine *gin.Engine
}

// New creates a Server with all routes registered
func New(source DataSource) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		source: source,
		engine: gin.New(),
	}
	s.engine.Use(gin.Recovery(), requestLogger())

	if err := s.setupRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

// Handler returns the underlying http.Handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setupRoutes() error {
	tmpl, err := parseTemplates()
	if err != nil {
		return err
	}
	s.engine.SetHTMLTemplate(tmpl)

	r := s.engine
	r.GET("/", s.index)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "metrics": logger.GetMetricsSnapshot()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(logger.Registry(), promhttp.HandlerOpts{})))

	api := r.Group("/api")
	{
		api.GET("/personal-bests", s.personalBests)
		api.GET("/times", s.times)
		api.GET("/events", s.events)
		api.GET("/progression", s.progression)
		api.POST("/refresh", s.refresh)
	}
	return nil
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Dashboard listening", logger.Fields{"addr": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("Shutting down dashboard", logger.Fields{"addr": addr})
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}

// requestLogger logs each request through the process logger
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		elapsed := time.Since(start)
		logger.RecordTiming("http.request", elapsed)
		logger.Debug("HTTP request", logger.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"elapsed": elapsed.String(),
		})
	}
}
