// Package api implements the read-only diagnostics HTTP surface (§14):
// /healthz, /status, /events, /metrics. It never originates control tokens —
// those still flow exclusively through internal/supervisor.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/radio-control/rdoctl/internal/auth"
	"github.com/radio-control/rdoctl/internal/chanspec"
	"github.com/radio-control/rdoctl/internal/tuner"
)

// StatusSource is the minimal read surface the diagnostics API needs from a
// running Controller.
type StatusSource interface {
	VNIC() string
	Descriptor() chanspec.RadioDescriptor
	CachedState() tuner.State
}

// EventSource subscribes an HTTP client to the SSE event stream.
type EventSource interface {
	Subscribe(w http.ResponseWriter, r *http.Request) error
}

// Server is the diagnostics HTTP server.
type Server struct {
	httpServer *http.Server

	status StatusSource
	events EventSource
	auth   *auth.Middleware

	startTime    time.Time
	readTimeout  time.Duration
	writeTimeout time.Duration
	idleTimeout  time.Duration
}

// NewServer builds a diagnostics Server. authMW may be nil to disable auth
// entirely (§11's Algorithm == "" case).
func NewServer(status StatusSource, events EventSource, authMW *auth.Middleware, readTimeout, writeTimeout, idleTimeout time.Duration) *Server {
	return &Server{
		status:       status,
		events:       events,
		auth:         authMW,
		startTime:    time.Now(),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
		idleTimeout:  idleTimeout,
	}
}

// Mux builds the request router for this Server.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	gate := func(h http.HandlerFunc) http.HandlerFunc {
		if s.auth == nil {
			return h
		}
		return s.auth.RequireAuth(h)
	}

	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/status", gate(s.handleStatus))
	mux.HandleFunc("/events", gate(s.handleEvents))
	mux.Handle("/metrics", gate(promhttp.Handler().ServeHTTP))
	return mux
}

// Start runs the HTTP server on addr until it is stopped or fails.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Mux(),
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
		IdleTimeout:  s.idleTimeout,
	}
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: listen %s: %w", addr, err)
	}
	return nil
}

// Stop gracefully shuts the HTTP server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api: shutdown: %w", err)
	}
	return nil
}
