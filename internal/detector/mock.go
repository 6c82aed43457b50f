package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu         sync.Mutex
	hands      []HandLandmarks
	err        error
	notReady   bool
	timestamps []int64
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetReady controls what Ready reports. Mocks start ready.
func (m *MockDetector) SetReady(ready bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notReady = !ready
}

// Ready implements Readier.
func (m *MockDetector) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.notReady
}

// Timestamps returns the timestamps Detect has been called with.
func (m *MockDetector) Timestamps() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.timestamps...)
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat, timestampMs int64) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.timestamps = append(m.timestamps, timestampMs)
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// OpenHandLandmarks returns a relaxed open hand with its index fingertip at
// the normalized position (x, y). No two fingertips are close together.
func OpenHandLandmarks(x, y float64) HandLandmarks {
	lm := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	lm.Points[Wrist] = Point3D{X: x + 0.02, Y: y + 0.35}

	lm.Points[ThumbCMC] = Point3D{X: x + 0.08, Y: y + 0.30}
	lm.Points[ThumbMCP] = Point3D{X: x + 0.13, Y: y + 0.25}
	lm.Points[ThumbIP] = Point3D{X: x + 0.17, Y: y + 0.20}
	lm.Points[ThumbTip] = Point3D{X: x + 0.20, Y: y + 0.15}

	lm.Points[IndexMCP] = Point3D{X: x, Y: y + 0.20}
	lm.Points[IndexPIP] = Point3D{X: x, Y: y + 0.13}
	lm.Points[IndexDIP] = Point3D{X: x, Y: y + 0.06}
	lm.Points[IndexTip] = Point3D{X: x, Y: y}

	lm.Points[MiddleMCP] = Point3D{X: x - 0.04, Y: y + 0.20}
	lm.Points[MiddlePIP] = Point3D{X: x - 0.05, Y: y + 0.12}
	lm.Points[MiddleDIP] = Point3D{X: x - 0.05, Y: y + 0.05}
	lm.Points[MiddleTip] = Point3D{X: x - 0.05, Y: y - 0.02}

	lm.Points[RingMCP] = Point3D{X: x - 0.08, Y: y + 0.21}
	lm.Points[RingPIP] = Point3D{X: x - 0.10, Y: y + 0.14}
	lm.Points[RingDIP] = Point3D{X: x - 0.11, Y: y + 0.08}
	lm.Points[RingTip] = Point3D{X: x - 0.12, Y: y + 0.02}

	lm.Points[PinkyMCP] = Point3D{X: x - 0.12, Y: y + 0.23}
	lm.Points[PinkyPIP] = Point3D{X: x - 0.15, Y: y + 0.18}
	lm.Points[PinkyDIP] = Point3D{X: x - 0.17, Y: y + 0.13}
	lm.Points[PinkyTip] = Point3D{X: x - 0.19, Y: y + 0.09}

	return lm
}

// PinchLandmarks returns an open hand whose thumb tip touches the index
// fingertip at (x, y): the drawing pose.
func PinchLandmarks(x, y float64) HandLandmarks {
	lm := OpenHandLandmarks(x, y)
	lm.Points[ThumbTip] = Point3D{X: x + 0.005, Y: y + 0.005}
	return lm
}

// RingPinchLandmarks returns a hand with the thumb touching the ring fingertip.
func RingPinchLandmarks(x, y float64) HandLandmarks {
	lm := OpenHandLandmarks(x, y)
	ring := lm.Points[RingTip]
	lm.Points[ThumbTip] = Point3D{X: ring.X + 0.005, Y: ring.Y}
	return lm
}

// PinkyPinchLandmarks returns a hand with the thumb touching the pinky fingertip.
func PinkyPinchLandmarks(x, y float64) HandLandmarks {
	lm := OpenHandLandmarks(x, y)
	pinky := lm.Points[PinkyTip]
	lm.Points[ThumbTip] = Point3D{X: pinky.X + 0.005, Y: pinky.Y}
	return lm
}
