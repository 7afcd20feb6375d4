// Package server provides the HTTP surface of the hand tracking daemon.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/mikoslaf/handsense/internal/capture"
	"github.com/mikoslaf/handsense/internal/detector"
	"github.com/mikoslaf/handsense/internal/gesture"
	"github.com/mikoslaf/handsense/internal/server/api"
	"github.com/mikoslaf/handsense/internal/store"
)

// Observer runs one on-demand classification window. The app satisfies it;
// tests substitute a stub.
type Observer interface {
	Observe(ctx context.Context, duration time.Duration) (gesture.Result, error)
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Camera    capture.Camera
	Detector  detector.Detector
	Observer  Observer
}

// Server is the HTTP server for the hand tracking daemon.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
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
	s.mux.HandleFunc("/api/detect", s.handleDetect)

	if s.config.Store != nil {
		detectionHandler := api.NewDetectionHandler(s.config.Store)
		s.mux.Handle("/api/detections", detectionHandler)
		s.mux.Handle("/api/detections/", detectionHandler)
	}

	if s.config.Camera != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Camera))
	}

	if s.config.Camera != nil && s.config.Detector != nil {
		s.mux.Handle("/api/landmarks", NewLandmarksHandler(s.config.Detector, s.config.Camera))
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
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

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

type detectRequest struct {
	DurationMs int `json:"duration_ms"`
}

// handleDetect handles POST /api/detect: it runs one stabilization window
// and returns the stabilized result. The optional JSON body sets the window
// duration in milliseconds; omitted or zero uses the configured default.
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.config.Observer == nil {
		http.Error(w, "Detection is not available", http.StatusServiceUnavailable)
		return
	}

	var req detectRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
	}
	if req.DurationMs < 0 {
		http.Error(w, "Invalid duration", http.StatusBadRequest)
		return
	}

	duration := time.Duration(req.DurationMs) * time.Millisecond
	result, err := s.config.Observer.Observe(r.Context(), duration)
	if err != nil {
		http.Error(w, "Detection failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
