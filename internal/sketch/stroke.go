// Package sketch implements the gesture and path engine: it turns per-tick
// fingertip positions into drawn strokes, colour changes and undo.
package sketch

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// StrokePoint is one captured position together with the colour and brush
// size that were active when it was captured.
type StrokePoint struct {
	X     float64    `json:"x"`
	Y     float64    `json:"y"`
	Color color.RGBA `json:"color"`
	Size  int        `json:"size"`
}

// Stroke is an ordered run of points drawn in one continuous pinch.
// A committed stroke is never modified.
type Stroke struct {
	Points []StrokePoint `json:"points"`
}

// Len returns the number of points in the stroke.
func (s Stroke) Len() int {
	return len(s.Points)
}

// Color returns the colour the stroke was started with.
func (s Stroke) Color() color.RGBA {
	if len(s.Points) == 0 {
		return color.RGBA{}
	}
	return s.Points[0].Color
}

// Size returns the brush size the stroke was started with.
func (s Stroke) Size() int {
	if len(s.Points) == 0 {
		return 0
	}
	return s.Points[0].Size
}

func (s Stroke) clone() Stroke {
	return Stroke{Points: append([]StrokePoint(nil), s.Points...)}
}

// Palette is the fixed, ordered set of colours cycled by the colour gesture.
type Palette []color.RGBA

// DefaultPalette starts with the blue the original sketch drew in.
func DefaultPalette() Palette {
	return Palette{
		{R: 0, G: 102, B: 255, A: 255},
		{R: 230, G: 30, B: 40, A: 255},
		{R: 20, G: 170, B: 60, A: 255},
		{R: 250, G: 200, B: 0, A: 255},
		{R: 200, G: 0, B: 200, A: 255},
		{R: 0, G: 0, B: 0, A: 255},
	}
}

// Hex formats c as #rrggbb.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHex parses #rrggbb (the leading # is optional) into an opaque colour.
func ParseHex(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
