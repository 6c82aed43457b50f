package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ayusman/airdraw/internal/sketch"
)

// EncodePaths serialises strokes as JSON. Unlike the SVG export it keeps
// the colour and size of every point.
func EncodePaths(strokes []sketch.Stroke) (string, error) {
	if strokes == nil {
		strokes = []sketch.Stroke{}
	}
	data, err := json.Marshal(strokes)
	if err != nil {
		return "", fmt.Errorf("encode paths: %w", err)
	}
	return string(data), nil
}

// DecodePaths reads a path list written by EncodePaths.
func DecodePaths(data string) ([]sketch.Stroke, error) {
	var strokes []sketch.Stroke
	if err := json.Unmarshal([]byte(data), &strokes); err != nil {
		return nil, fmt.Errorf("decode paths: %w", err)
	}
	return strokes, nil
}

// SavedStrokes returns the strokes of a saved drawing, preferring the JSON
// path list and falling back to the SVG body for drawings saved without one.
func SavedStrokes(paths, svg string) ([]sketch.Stroke, error) {
	if paths != "" {
		return DecodePaths(paths)
	}
	doc, err := ParseSVG(strings.NewReader(svg))
	if err != nil {
		return nil, err
	}
	return doc.Strokes, nil
}
