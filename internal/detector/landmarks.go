// Package detector provides the hand landmark boundary: the Detector interface,
// the 21-point hand skeleton it returns, and the fingertip extraction used by
// the drawing engine.
package detector

import (
	"errors"
	"math"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// landmarkSlack is how far outside [0,1] a normalized coordinate may fall
// before the detection is rejected. MediaPipe reports slightly out-of-frame
// points for fingers near the border.
const landmarkSlack = 0.5

// ErrMalformedLandmarks is returned when a detection carries coordinates that
// cannot be mapped onto the canvas.
var ErrMalformedLandmarks = errors.New("malformed landmarks")

// Point3D represents a normalized landmark as reported by the model.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Point is a position in canvas pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Fingertips is the set of five tracked fingertip positions from one
// detection, in canvas pixels.
type Fingertips struct {
	Thumb  Point `json:"thumb"`
	Index  Point `json:"index"`
	Middle Point `json:"middle"`
	Ring   Point `json:"ring"`
	Pinky  Point `json:"pinky"`
}

// Distance returns the Euclidean distance between two pixel positions.
func Distance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Fingertips converts the fingertip landmarks into canvas pixel space.
// When mirror is set the horizontal axis is flipped so that motion to the
// user's right appears on the right of a front-camera canvas.
func (h *HandLandmarks) Fingertips(width, height int, mirror bool) (*Fingertips, error) {
	if h == nil {
		return nil, ErrMalformedLandmarks
	}

	convert := func(idx int) (Point, error) {
		p := h.Points[idx]
		if !validCoord(p.X) || !validCoord(p.Y) {
			return Point{}, ErrMalformedLandmarks
		}
		x := p.X
		if mirror {
			x = 1 - x
		}
		return Point{X: x * float64(width), Y: p.Y * float64(height)}, nil
	}

	var tips Fingertips
	targets := []struct {
		idx int
		dst *Point
	}{
		{ThumbTip, &tips.Thumb},
		{IndexTip, &tips.Index},
		{MiddleTip, &tips.Middle},
		{RingTip, &tips.Ring},
		{PinkyTip, &tips.Pinky},
	}
	for _, t := range targets {
		p, err := convert(t.idx)
		if err != nil {
			return nil, err
		}
		*t.dst = p
	}

	return &tips, nil
}

func validCoord(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v >= -landmarkSlack && v <= 1+landmarkSlack
}
