// Package server provides the receiver's HTTP surface: the peer link, the
// gesture event feed, health, metrics and the recording API. It also holds
// the sender's link client.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/store"
)

const shutdownTimeout = 5 * time.Second

// Config holds the server configuration. Every handler is optional; routes
// are only registered for the ones that are set.
type Config struct {
	Addr    string
	Link    *LinkHandler
	Events  *EventHub
	Store   *store.Store
	Metrics *metrics.Metrics
	Log     zerolog.Logger
}

// Server represents the receiver's HTTP server.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time

	mu sync.Mutex
	ln net.Listener
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Link != nil {
		s.mux.Handle("/api/link", s.config.Link)
	}
	if s.config.Events != nil {
		s.mux.Handle("/api/events", s.config.Events)
	}
	if s.config.Metrics != nil {
		s.mux.Handle("/metrics", s.config.Metrics.Handler())
	}

	// Recording API if Store is configured
	if s.config.Store != nil {
		sessions := api.NewSessionHandler(s.config.Store)
		bindings := api.NewBindingHandler(s.config.Store)

		s.mux.Handle("/api/sessions", sessions)
		s.mux.Handle("/api/sessions/", sessions)
		s.mux.Handle("/api/bindings", bindings)
		s.mux.Handle("/api/bindings/", bindings)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).Round(time.Millisecond).String(),
	}
	if s.config.Link != nil {
		response["peers"] = s.config.Link.Peers()
	}
	if s.config.Events != nil {
		response["subscribers"] = s.config.Events.Subscribers()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Listen binds the configured address without serving yet, so that callers
// learn the port before Serve runs. Serve calls it when needed.
func (s *Server) Listen() (net.Addr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		ln, err := net.Listen("tcp", s.config.Addr)
		if err != nil {
			return nil, fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
		}
		s.ln = ln
	}
	return s.ln.Addr(), nil
}

// Serve runs the server until ctx is done, then shuts it down and closes
// every open websocket.
func (s *Server) Serve(ctx context.Context) error {
	addr, err := s.Listen()
	if err != nil {
		return err
	}
	s.mu.Lock()
	ln := s.ln
	s.ln = nil
	s.mu.Unlock()

	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(func() {
		if s.config.Link != nil {
			s.config.Link.CloseAll()
		}
		if s.config.Events != nil {
			s.config.Events.CloseAll()
		}
	})

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.config.Log.Info().Str("addr", addr.String()).Msg("receiver listening")

	select {
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return ctx.Err()
}

// String names the server for the supervisor.
func (s *Server) String() string {
	return "http:" + strings.TrimSpace(s.config.Addr)
}
