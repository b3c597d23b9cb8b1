// Package server provides the HTTP and WebSocket service for the rep counter.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/repcount/internal/metrics"
	"github.com/ayusman/repcount/internal/server/api"
	"github.com/ayusman/repcount/internal/session"
)

// Config holds the server configuration.
type Config struct {
	Session *session.Session
	Metrics *metrics.Manager
	// Gatherer backs /metrics. The route is not registered when nil.
	Gatherer  prometheus.Gatherer
	Log       *log.Entry
	StaticDir string
}

// Server represents the HTTP server for the rep counter.
type Server struct {
	config  Config
	router  *mux.Router
	start   time.Time
	samples *SamplesHandler
	events  *EventsHandler
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Log == nil {
		config.Log = log.NewEntry(log.StandardLogger())
	}
	if config.Metrics == nil {
		config.Metrics = metrics.NewTestManager()
	}

	s := &Server{
		config: config,
		router: mux.NewRouter(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)

	if s.config.Session != nil {
		h := api.NewSessionHandler(s.config.Session, s.config.Log)
		s.router.HandleFunc("/api/exercises", h.HandleExercises).Methods(http.MethodGet)
		s.router.HandleFunc("/api/session", h.HandleGet).Methods(http.MethodGet)
		s.router.HandleFunc("/api/session/exercise", h.HandleSelect).Methods(http.MethodPut)
		s.router.HandleFunc("/api/session/reset", h.HandleReset).Methods(http.MethodPost)
		s.router.HandleFunc("/api/session/restart", h.HandleRestart).Methods(http.MethodPost)

		s.samples = NewSamplesHandler(s.config.Session, s.config.Metrics, s.config.Log)
		s.events = NewEventsHandler(s.config.Session, s.config.Metrics, s.config.Log)
		s.router.Handle("/api/samples", s.samples).Methods(http.MethodGet)
		s.router.Handle("/api/events", s.events).Methods(http.MethodGet)
	}

	if s.config.Gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		s.router.PathPrefix("/").MatcherFunc(isStaticPath).Handler(http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// isStaticPath keeps the file server off the API so a wrong method on an
// API route still answers 405.
func isStaticPath(r *http.Request, _ *mux.RouteMatch) bool {
	return !strings.HasPrefix(r.URL.Path, "/api/") && r.URL.Path != "/metrics"
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Close disconnects every event subscriber.
func (s *Server) Close() {
	if s.events != nil {
		s.events.Close()
	}
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.config.Log.Infof(" > server listening on: [%s]", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
	}

	s.config.Log.Debug("graceful shutdown initiated ...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Hijacked websocket connections are not tracked by Shutdown.
	s.Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
