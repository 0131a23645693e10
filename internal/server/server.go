// Package server hosts the catalog HTTP API: health, metrics and the
// resource routes contributed by RouteRegistrars.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/videocatalog/internal/metrics"
	"github.com/HerbHall/videocatalog/internal/version"
)

// RouteRegistrar mounts a resource's routes on the API mux.
type RouteRegistrar interface {
	RegisterRoutes(mux *http.ServeMux)
}

// Options configures a Server. Zero timeouts fall back to the defaults below.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// RateLimit is requests per second per client on API routes; 0 disables.
	RateLimit float64
	RateBurst int
	// Ready, when set, backs the health endpoint's readiness check.
	Ready func(context.Context) error
}

// Server is the catalog HTTP server.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	api        *http.ServeMux
	logger     *zap.Logger
	metrics    *metrics.Metrics
	limiter    *ClientLimiter
	ready      func(context.Context) error
}

// New builds a Server. m may be nil, which disables /metrics and request
// instrumentation.
func New(opts Options, m *metrics.Metrics, logger *zap.Logger, registrars ...RouteRegistrar) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("http")

	s := &Server{
		mux:     http.NewServeMux(),
		api:     http.NewServeMux(),
		logger:  logger,
		metrics: m,
		limiter: NewClientLimiter(opts.RateLimit, opts.RateBurst),
		ready:   opts.Ready,
	}

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadTimeout:       orDefault(opts.ReadTimeout, 15*time.Second),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      orDefault(opts.WriteTimeout, 15*time.Second),
		IdleTimeout:       orDefault(opts.IdleTimeout, 60*time.Second),
		ErrorLog:          zap.NewStdLog(logger),
	}

	s.registerCoreRoutes()
	for _, reg := range registrars {
		reg.RegisterRoutes(s.api)
	}
	return s
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// registerCoreRoutes sets up routes that are always available. Everything
// else under /api/ goes through the rate limiter to the API mux.
func (s *Server) registerCoreRoutes() {
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
	s.mux.Handle("/api/", WithRateLimit(s.limiter, s.metrics)(s.api))
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler {
	return Chain(s.mux,
		WithRequestID(),
		WithObservability(s.logger, s.metrics),
		WithRecovery(s.logger),
	)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting HTTP server", zap.String("addr", ln.Addr().String()))
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server, waiting for in-flight
// requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

type healthResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Version map[string]string `json:"version"`
	Error   string            `json:"error,omitempty"`
}

// handleHealth reports liveness and, when configured, storage readiness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Service: version.Name, Version: version.Map()}
	status := http.StatusOK
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.Warn("readiness check failed", zap.Error(err))
			resp.Status = "unavailable"
			resp.Error = err.Error()
			status = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(version.Header, version.Short())
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
