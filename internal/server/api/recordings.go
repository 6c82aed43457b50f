package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ayusman/airdraw/internal/export"
)

// RecordingHandler serves finished canvas recordings for download.
type RecordingHandler struct {
	dir string
}

// NewRecordingHandler creates a RecordingHandler for recordings in dir.
func NewRecordingHandler(dir string) *RecordingHandler {
	return &RecordingHandler{dir: dir}
}

// RecordingURL returns the download URL of the recording at path.
func RecordingURL(path string) string {
	return "/api/recordings/" + filepath.Base(path)
}

// ServeHTTP handles GET /api/recordings/{name}.
func (h *RecordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/recordings/")
	if !validRecordingName(name) {
		writeError(w, http.StatusNotFound, "Recording not found")
		return
	}

	path := filepath.Join(h.dir, name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		writeError(w, http.StatusNotFound, "Recording not found")
		return
	}

	if filepath.Ext(name) == ".webm" {
		w.Header().Set("Content-Type", "video/webm")
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeFile(w, r, path)
}

// validRecordingName accepts bare file names written by the recorder.
func validRecordingName(name string) bool {
	return strings.HasPrefix(name, export.RecordingPrefix) &&
		name == filepath.Base(name) &&
		!strings.ContainsAny(name, `/\"`)
}
