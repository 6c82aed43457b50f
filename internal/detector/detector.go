package detector

import "gocv.io/x/gocv"

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Detect analyzes a video frame captured at timestampMs and returns the
	// detected hand landmarks. Timestamps must increase monotonically.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat, timestampMs int64) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Readier is implemented by detectors that need time to load their model.
// Callers skip detection while Ready reports false.
type Readier interface {
	Ready() bool
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 1).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64
}

// DefaultConfig returns a Config with sensible default values.
// Drawing only follows one hand.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}
