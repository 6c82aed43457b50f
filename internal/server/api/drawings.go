package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/airdraw/internal/export"
	"github.com/ayusman/airdraw/internal/store"
)

// DrawingHandler handles HTTP requests for the saved drawing gallery.
type DrawingHandler struct {
	store  *store.Store
	studio Studio
}

// NewDrawingHandler creates a DrawingHandler saving from and loading into st.
func NewDrawingHandler(s *store.Store, st Studio) *DrawingHandler {
	return &DrawingHandler{store: s, studio: st}
}

// ServeHTTP routes /api/drawings, /api/drawings/{id} and /api/drawings/{id}/load.
func (h *DrawingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/drawings")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if id, ok := strings.CutSuffix(path, "/load"); ok {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.load(w, r, id)
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type createDrawingRequest struct {
	Name string `json:"name"`
}

type drawingResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Strokes   int    `json:"strokes"`
	CreatedAt string `json:"created_at"`
}

type listDrawingsResponse struct {
	Drawings []drawingResponse `json:"drawings"`
}

type loadResponse struct {
	ID      string `json:"id"`
	Strokes int    `json:"strokes"`
}

func toResponse(d *store.Drawing) drawingResponse {
	return drawingResponse{
		ID:        d.ID,
		Name:      d.Name,
		Width:     d.Width,
		Height:    d.Height,
		Strokes:   d.Strokes,
		CreatedAt: d.CreatedAt.Format(time.RFC3339),
	}
}

// list handles GET /api/drawings.
func (h *DrawingHandler) list(w http.ResponseWriter, r *http.Request) {
	drawings, err := h.store.Drawings().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list drawings")
		return
	}

	response := listDrawingsResponse{
		Drawings: make([]drawingResponse, 0, len(drawings)),
	}
	for _, d := range drawings {
		response.Drawings = append(response.Drawings, toResponse(d))
	}

	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/drawings, saving the current path list as SVG
// for viewing and as JSON for reloading.
func (h *DrawingHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createDrawingRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	}
	if req.Name == "" {
		req.Name = "Drawing " + time.Now().Format("2006-01-02 15:04")
	}

	width, height := h.studio.CanvasSize()
	strokes := h.studio.Session().Paths()

	var buf bytes.Buffer
	if err := export.WriteSVG(&buf, width, height, strokes); err != nil {
		log.Printf("save drawing: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to encode drawing")
		return
	}

	paths, err := export.EncodePaths(strokes)
	if err != nil {
		log.Printf("save drawing: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to encode drawing")
		return
	}

	d := &store.Drawing{
		Name:    req.Name,
		Width:   width,
		Height:  height,
		Strokes: len(strokes),
		SVG:     buf.String(),
		Paths:   paths,
	}
	if err := h.store.Drawings().Create(d); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save drawing")
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(d))
}

// get handles GET /api/drawings/{id}, returning the SVG document.
func (h *DrawingHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	d, ok := h.lookup(w, id)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(d.SVG))
}

// delete handles DELETE /api/drawings/{id}.
func (h *DrawingHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Drawings().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Drawing not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete drawing")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// load handles POST /api/drawings/{id}/load, replacing the path list with
// the saved strokes.
func (h *DrawingHandler) load(w http.ResponseWriter, r *http.Request, id string) {
	d, ok := h.lookup(w, id)
	if !ok {
		return
	}

	strokes, err := export.SavedStrokes(d.Paths, d.SVG)
	if err != nil {
		log.Printf("load drawing %s: %v", id, err)
		writeError(w, http.StatusUnprocessableEntity, "Saved drawing is corrupt")
		return
	}

	sess := h.studio.Session()
	sess.Restore(strokes)
	writeJSON(w, http.StatusOK, loadResponse{ID: d.ID, Strokes: len(sess.Paths())})
}

func (h *DrawingHandler) lookup(w http.ResponseWriter, id string) (*store.Drawing, bool) {
	d, err := h.store.Drawings().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Drawing not found")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to get drawing")
		return nil, false
	}
	return d, true
}
