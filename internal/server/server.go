// Package server provides the HTTP control surface for the airdraw canvas.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/airdraw/internal/capture"
	"github.com/ayusman/airdraw/internal/server/api"
	"github.com/ayusman/airdraw/internal/sketch"
	"github.com/ayusman/airdraw/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Studio    api.Studio
	// Canvas supplies rendered canvas frames for the MJPEG stream.
	Canvas capture.FrameSource
	// RecordDir holds canvas recordings offered for download.
	RecordDir string
}

// Server represents the HTTP server for the airdraw application.
type Server struct {
	config Config
	mux    *http.ServeMux
	events *EventsHandler
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

	if st := s.config.Studio; st != nil {
		canvas := api.NewCanvasHandler(st)
		for _, route := range []string{"state", "undo", "clear", "color", "brush", "camera", "record"} {
			s.mux.Handle("/api/"+route, canvas)
		}

		exports := api.NewExportHandler(st)
		s.mux.Handle("/api/export.svg", exports)
		s.mux.Handle("/api/export.pdf", exports)

		s.events = NewEventsHandler(st)
		s.mux.Handle("/api/events", s.events)

		if s.config.Store != nil {
			drawings := api.NewDrawingHandler(s.config.Store, st)
			s.mux.Handle("/api/drawings", drawings)
			s.mux.Handle("/api/drawings/", drawings)
		}
	}

	if s.config.Canvas != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Canvas))
	}

	if s.config.RecordDir != "" {
		s.mux.Handle("/api/recordings/", api.NewRecordingHandler(s.config.RecordDir))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Notify queues engine events for the next event feed broadcast.
func (s *Server) Notify(ev sketch.Event) {
	if s.events != nil {
		s.events.Notify(ev)
	}
}

// Close stops the event feed.
func (s *Server) Close() {
	if s.events != nil {
		s.events.Close()
	}
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

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
