package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/ayusman/airdraw/internal/sketch"
)

// CanvasHandler serves the drawing controls: state, undo, clear, colour,
// brush size, camera visibility and recording.
type CanvasHandler struct {
	studio Studio
}

// NewCanvasHandler creates a CanvasHandler for st.
func NewCanvasHandler(st Studio) *CanvasHandler {
	return &CanvasHandler{studio: st}
}

// ServeHTTP routes /api/{state,undo,clear,color,brush,camera,record}.
func (h *CanvasHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route := strings.TrimPrefix(r.URL.Path, "/api/")

	type endpoint struct {
		method string
		handle func(http.ResponseWriter, *http.Request)
	}
	endpoints := map[string]endpoint{
		"state":  {http.MethodGet, h.state},
		"undo":   {http.MethodPost, h.undo},
		"clear":  {http.MethodPost, h.clear},
		"color":  {http.MethodPost, h.color},
		"brush":  {http.MethodPut, h.brush},
		"camera": {http.MethodPut, h.camera},
		"record": {http.MethodPost, h.record},
	}

	ep, ok := endpoints[route]
	if !ok {
		http.NotFound(w, r)
		return
	}
	if r.Method != ep.method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ep.handle(w, r)
}

func (h *CanvasHandler) state(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CurrentState(h.studio))
}

type undoResponse struct {
	Undone  bool `json:"undone"`
	Strokes int  `json:"strokes"`
}

// undo handles POST /api/undo. Undoing an empty path list is not an error.
func (h *CanvasHandler) undo(w http.ResponseWriter, r *http.Request) {
	undone := h.studio.Undo()
	writeJSON(w, http.StatusOK, undoResponse{Undone: undone, Strokes: len(h.studio.Session().Paths())})
}

// clear handles POST /api/clear.
func (h *CanvasHandler) clear(w http.ResponseWriter, r *http.Request) {
	h.studio.Clear()
	writeJSON(w, http.StatusOK, CurrentState(h.studio))
}

type colorRequest struct {
	Index *int `json:"index"`
}

type colorResponse struct {
	Color string `json:"color"`
	Index int    `json:"index"`
}

// color handles POST /api/color. With no body it cycles to the next palette
// entry; {"index": n} selects an entry directly.
func (h *CanvasHandler) color(w http.ResponseWriter, r *http.Request) {
	sess := h.studio.Session()

	var req colorRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	}

	if req.Index != nil {
		h.studio.SetColorIndex(*req.Index)
	} else {
		h.studio.CycleColor()
	}

	writeJSON(w, http.StatusOK, colorResponse{
		Color: sketch.Hex(sess.Color()),
		Index: sess.ColorIndex(),
	})
}

type brushRequest struct {
	Size int `json:"size"`
}

type brushResponse struct {
	Size int `json:"size"`
}

// brush handles PUT /api/brush. Sizes outside the allowed range are clamped.
func (h *CanvasHandler) brush(w http.ResponseWriter, r *http.Request) {
	var req brushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Size == 0 {
		writeError(w, http.StatusBadRequest, "Size is required")
		return
	}

	size := h.studio.Session().SetBrushSize(req.Size)
	writeJSON(w, http.StatusOK, brushResponse{Size: size})
}

type cameraRequest struct {
	Visible bool `json:"visible"`
}

type cameraResponse struct {
	Visible bool `json:"visible"`
}

// camera handles PUT /api/camera.
func (h *CanvasHandler) camera(w http.ResponseWriter, r *http.Request) {
	var req cameraRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	h.studio.SetCameraVisible(req.Visible)
	writeJSON(w, http.StatusOK, cameraResponse{Visible: h.studio.CameraVisible()})
}

type recordResponse struct {
	Recording bool   `json:"recording"`
	Path      string `json:"path,omitempty"`
	// URL downloads the finished file once recording stops.
	URL string `json:"url,omitempty"`
}

// record handles POST /api/record, toggling video capture of the canvas.
func (h *CanvasHandler) record(w http.ResponseWriter, r *http.Request) {
	recording, path, err := h.studio.ToggleRecording()
	if err != nil {
		log.Printf("toggle recording: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to toggle recording")
		return
	}
	resp := recordResponse{Recording: recording, Path: path}
	if !recording && path != "" {
		resp.URL = RecordingURL(path)
	}
	writeJSON(w, http.StatusOK, resp)
}
