// Package render composes the canvas: background, committed strokes, the
// stroke in progress and the fingertip cursor.
package render

import (
	"image"
	"image/color"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/airdraw/internal/sketch"
)

// segmentSteps is the number of line pieces each curve segment is split into.
const segmentSteps = 8

// Config holds renderer settings.
type Config struct {
	Width         int
	Height        int
	Background    color.RGBA // fill used when the camera is hidden
	CameraVisible bool
	ShowCursor    bool
	// MirrorCamera flips the camera frame horizontally so it lines up with
	// mirrored fingertip coordinates.
	MirrorCamera bool
}

// DefaultConfig returns a 640x480 canvas showing the mirrored camera.
func DefaultConfig() Config {
	return Config{
		Width:         640,
		Height:        480,
		Background:    color.RGBA{R: 255, G: 255, B: 255, A: 255},
		CameraVisible: true,
		ShowCursor:    true,
		MirrorCamera:  true,
	}
}

// Renderer draws session snapshots onto gocv Mats.
type Renderer struct {
	config Config
	mu     sync.RWMutex
}

// New creates a Renderer.
func New(config Config) *Renderer {
	if config.Width <= 0 || config.Height <= 0 {
		config.Width, config.Height = 640, 480
	}
	return &Renderer{config: config}
}

// Size returns the canvas size.
func (r *Renderer) Size() (int, int) {
	return r.config.Width, r.config.Height
}

// SetCameraVisible toggles between the camera feed and a flat background.
func (r *Renderer) SetCameraVisible(visible bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.config.CameraVisible = visible
}

// CameraVisible reports whether the camera feed is drawn.
func (r *Renderer) CameraVisible() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config.CameraVisible
}

// Render draws snap over frame (or over the flat background when the camera
// is hidden or frame is nil) and returns a new canvas Mat the caller must close.
func (r *Renderer) Render(frame *gocv.Mat, snap sketch.Snapshot) gocv.Mat {
	r.mu.RLock()
	cfg := r.config
	r.mu.RUnlock()

	canvas := r.background(frame, cfg)

	for _, stroke := range snap.Paths {
		drawStroke(&canvas, stroke)
	}
	if snap.Current != nil {
		drawStroke(&canvas, *snap.Current)
	}

	if cfg.ShowCursor && snap.Cursor != nil {
		center := image.Pt(int(snap.Cursor.X), int(snap.Cursor.Y))
		radius := snap.BrushSize/2 + 4
		gocv.Circle(&canvas, center, radius, snap.Color, 2)
	}

	return canvas
}

func (r *Renderer) background(frame *gocv.Mat, cfg Config) gocv.Mat {
	if !cfg.CameraVisible || frame == nil || frame.Empty() {
		bg := cfg.Background
		return gocv.NewMatWithSizeFromScalar(
			gocv.NewScalar(float64(bg.B), float64(bg.G), float64(bg.R), 0),
			cfg.Height, cfg.Width, gocv.MatTypeCV8UC3)
	}

	canvas := gocv.NewMat()
	if frame.Cols() != cfg.Width || frame.Rows() != cfg.Height {
		gocv.Resize(*frame, &canvas, image.Pt(cfg.Width, cfg.Height), 0, 0, gocv.InterpolationLinear)
	} else {
		frame.CopyTo(&canvas)
	}
	if cfg.MirrorCamera {
		gocv.Flip(canvas, &canvas, 1)
	}
	return canvas
}

// drawStroke draws a smooth curve through the stroke's points, each piece
// in the colour and size recorded for the point it ends on.
func drawStroke(canvas *gocv.Mat, stroke sketch.Stroke) {
	pts := stroke.Points
	switch len(pts) {
	case 0:
		return
	case 1:
		p := pts[0]
		gocv.Circle(canvas, image.Pt(int(p.X), int(p.Y)), max(p.Size/2, 1), p.Color, -1)
		return
	}

	for i := 0; i < len(pts)-1; i++ {
		to := pts[i+1]
		samples := Segment(pts, i, segmentSteps)
		for j := 1; j < len(samples); j++ {
			gocv.Line(canvas, samples[j-1], samples[j], to.Color, max(to.Size, 1))
		}
	}
}

// Segment samples the Catmull-Rom curve between pts[i] and pts[i+1] at
// steps+1 evenly spaced parameters, including both endpoints. The curve
// passes through every point; end segments reuse the endpoint as the
// missing neighbour.
func Segment(pts []sketch.StrokePoint, i, steps int) []image.Point {
	if i < 0 || i >= len(pts)-1 || steps < 1 {
		return nil
	}

	p0 := pts[max(i-1, 0)]
	p1 := pts[i]
	p2 := pts[i+1]
	p3 := pts[min(i+2, len(pts)-1)]

	out := make([]image.Point, 0, steps+1)
	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		x := catmullRom(p0.X, p1.X, p2.X, p3.X, t)
		y := catmullRom(p0.Y, p1.Y, p2.Y, p3.Y, t)
		out = append(out, image.Pt(round(x), round(y)))
	}
	return out
}

func catmullRom(p0, p1, p2, p3, t float64) float64 {
	t2 := t * t
	t3 := t2 * t
	return 0.5 * ((2 * p1) +
		(-p0+p2)*t +
		(2*p0-5*p1+4*p2-p3)*t2 +
		(-p0+3*p1-3*p2+p3)*t3)
}

func round(v float64) int {
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}
