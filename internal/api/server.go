// Tastegraph - Watchlist Synchronization and Taste Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

// Package api provides the read-only observability server: liveness and
// readiness probes, Prometheus metrics, and the last-run status of every
// sync channel and the scoring pipeline. There are no trigger endpoints;
// runs are scheduled by the supervisor or started manually from the CLI.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/tastegraph/internal/config"
	"github.com/tomtom215/tastegraph/internal/store"
)

// Server serves the observability endpoints over one store.
type Server struct {
	store     store.Store
	cfg       config.ServerConfig
	startTime time.Time
}

// NewServer creates the observability server.
func NewServer(st store.Store, cfg config.ServerConfig) *Server {
	return &Server{
		store:     st,
		cfg:       cfg,
		startTime: time.Now(),
	}
}

// Router builds the chi handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(requestIDLogging)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(recordMetrics)
		r.Get("/healthz", s.handleHealthz)
		r.Get("/readyz", s.handleReadyz)
		r.Get("/api/v1/status", s.handleStatus)
	})

	// The metrics endpoint stays outside recordMetrics so scrapes do not
	// count themselves.
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

// HTTPServer builds the http.Server for the supervisor's HTTP service
// wrapper.
func (s *Server) HTTPServer() *http.Server {
	timeout := s.cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
		IdleTimeout:       2 * timeout,
	}
}
