package api

import (
	"bytes"
	"log"
	"net/http"

	"github.com/ayusman/airdraw/internal/export"
)

// ExportHandler serves downloads of the committed path list.
type ExportHandler struct {
	studio Studio
}

// NewExportHandler creates an ExportHandler for st.
func NewExportHandler(st Studio) *ExportHandler {
	return &ExportHandler{studio: st}
}

// ServeHTTP handles GET /api/export.svg and GET /api/export.pdf.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	width, height := h.studio.CanvasSize()
	strokes := h.studio.Session().Paths()

	var (
		buf         bytes.Buffer
		err         error
		contentType string
		filename    string
	)

	switch r.URL.Path {
	case "/api/export.svg":
		err = export.WriteSVG(&buf, width, height, strokes)
		contentType, filename = "image/svg+xml", "airdraw.svg"
	case "/api/export.pdf":
		err = export.WritePDF(&buf, width, height, strokes)
		contentType, filename = "application/pdf", "airdraw.pdf"
	default:
		http.NotFound(w, r)
		return
	}

	if err != nil {
		log.Printf("export %s: %v", filename, err)
		writeError(w, http.StatusInternalServerError, "Failed to export drawing")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
