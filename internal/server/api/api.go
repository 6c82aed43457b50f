// Package api provides HTTP API handlers for the airdraw canvas.
package api

import (
	"encoding/json"
	"image/color"
	"net/http"

	"github.com/ayusman/airdraw/internal/detector"
	"github.com/ayusman/airdraw/internal/sketch"
)

// Studio is the running drawing application as seen by the handlers.
type Studio interface {
	Session() *sketch.Session
	CanvasSize() (width, height int)

	// Controls that change the drawing report their event to listeners
	// of the running application.
	Undo() bool
	Clear()
	CycleColor() color.RGBA
	SetColorIndex(i int) color.RGBA

	SetCameraVisible(visible bool)
	CameraVisible() bool

	// ToggleRecording starts or stops video recording. path is the file
	// being written (on start) or finished (on stop).
	ToggleRecording() (recording bool, path string, err error)
	Recording() bool
}

// State is the canvas status reported by /api/state and the event feed.
type State struct {
	Color      string          `json:"color"`
	ColorIndex int             `json:"color_index"`
	Palette    []string        `json:"palette"`
	BrushSize  int             `json:"brush_size"`
	Drawing    bool            `json:"drawing"`
	Strokes    int             `json:"strokes"`
	Cursor     *detector.Point `json:"cursor"`
	Recording  bool            `json:"recording"`
	Camera     bool            `json:"camera"`
	Width      int             `json:"width"`
	Height     int             `json:"height"`
}

// CurrentState reads the studio's state in one consistent session snapshot.
func CurrentState(st Studio) State {
	sess := st.Session()
	snap := sess.Snapshot()
	w, h := st.CanvasSize()

	palette := sess.Palette()
	hexes := make([]string, len(palette))
	for i, c := range palette {
		hexes[i] = sketch.Hex(c)
	}

	return State{
		Color:      sketch.Hex(snap.Color),
		ColorIndex: snap.ColorIndex,
		Palette:    hexes,
		BrushSize:  snap.BrushSize,
		Drawing:    snap.Drawing(),
		Strokes:    len(snap.Paths),
		Cursor:     snap.Cursor,
		Recording:  st.Recording(),
		Camera:     st.CameraVisible(),
		Width:      w,
		Height:     h,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
