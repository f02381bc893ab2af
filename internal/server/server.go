package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/nahidhasan98/autolog/internal/config"
	"github.com/nahidhasan98/autolog/internal/handlers"
	"github.com/nahidhasan98/autolog/internal/logger"
	"github.com/nahidhasan98/autolog/internal/metrics"
	"github.com/nahidhasan98/autolog/internal/middleware"
)

// Route patterns served by the API
const (
	RouteGenerateLog   = "POST /api/auto-generate-log"
	RouteProjectStatus = "GET /api/project-status"
	RouteHealth        = "GET /api/health"
	RouteSendDigest    = "POST /api/send-digest"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	cfg        *config.Config
	log        *logger.Logger
}

// New creates a new HTTP server with its routes and middleware chain
func New(cfg *config.Config, handler *handlers.Handler, collector *metrics.Collector, log *logger.Logger) *Server {
	mux := http.NewServeMux()

	// Register routes
	mux.HandleFunc(RouteGenerateLog, handler.GenerateLog)
	mux.HandleFunc(RouteProjectStatus, handler.ProjectStatus)
	mux.HandleFunc(RouteHealth, handler.HealthCheck)
	mux.HandleFunc(RouteSendDigest, handler.SendDigest)

	publicPaths := []string{"/api/health"}
	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, collector.Handler())
		publicPaths = append(publicPaths, cfg.Metrics.Path)
	}

	mw := middleware.New(log, middleware.Options{
		APIKeys:            cfg.Security.APIKeys,
		RateLimitPerMinute: cfg.Security.RateLimitPerMinute,
		MaxBodyBytes:       cfg.Server.MaxBodyBytes,
		PublicPaths:        publicPaths,
		Metrics:            collector,
	})

	return &Server{
		handler: mw.Chain(mux),
		cfg:     cfg,
		log:     log,
	}
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start binds the listen address and serves in the background. Bind errors
// are returned; later serve errors are sent to errChan.
func (s *Server) Start(errChan chan<- error) error {
	addr := s.cfg.Server.Address()

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.httpServer = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	s.log.Infof("HTTP server listening on %s", listener.Addr().String())

	// Start server in a goroutine
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.log.Info("HTTP server shutdown complete")
	return nil
}
