package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

var (
	ErrNotRecording     = errors.New("not recording")
	ErrAlreadyRecording = errors.New("already recording")
)

// RecordingPrefix starts the name of every recording file.
const RecordingPrefix = "airdraw_"

// RecorderConfig holds video recording settings.
type RecorderConfig struct {
	Dir    string
	Codec  string
	Ext    string
	FPS    float64
	Width  int
	Height int
}

// DefaultRecorderConfig records 640x480 VP9 WebM at 30 fps into the
// current directory.
func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		Dir:    ".",
		Codec:  "VP90",
		Ext:    ".webm",
		FPS:    30,
		Width:  640,
		Height: 480,
	}
}

// Recorder writes rendered canvases to a video file between Start and Stop.
type Recorder struct {
	config RecorderConfig
	writer *gocv.VideoWriter
	path   string
	frames int
	mu     sync.Mutex

	now func() time.Time
}

// NewRecorder creates an idle Recorder.
func NewRecorder(config RecorderConfig) *Recorder {
	if config.Codec == "" {
		config.Codec = "VP90"
	}
	if config.Ext == "" {
		config.Ext = ".webm"
	}
	if config.FPS <= 0 {
		config.FPS = 30
	}
	if config.Dir == "" {
		config.Dir = "."
	}
	return &Recorder{config: config, now: time.Now}
}

// Start opens a new timestamped file and begins accepting frames.
func (r *Recorder) Start() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.writer != nil {
		return "", ErrAlreadyRecording
	}

	if err := os.MkdirAll(r.config.Dir, 0755); err != nil {
		return "", fmt.Errorf("create record dir: %w", err)
	}

	name := fmt.Sprintf("%s%s%s", RecordingPrefix, r.now().Format("20060102_150405"), r.config.Ext)
	path := filepath.Join(r.config.Dir, name)

	w, err := gocv.VideoWriterFile(path, r.config.Codec, r.config.FPS, r.config.Width, r.config.Height, true)
	if err != nil {
		return "", fmt.Errorf("open video writer: %w", err)
	}
	if !w.IsOpened() {
		w.Close()
		os.Remove(path)
		return "", fmt.Errorf("open video writer: codec %s unavailable", r.config.Codec)
	}

	r.writer = w
	r.path = path
	r.frames = 0
	return path, nil
}

// Write appends a frame. It is a no-op when not recording.
func (r *Recorder) Write(frame *gocv.Mat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.writer == nil || frame == nil || frame.Empty() {
		return nil
	}
	if err := r.writer.Write(*frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	r.frames++
	return nil
}

// Stop finalizes the file and returns its path.
func (r *Recorder) Stop() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.writer == nil {
		return "", ErrNotRecording
	}

	err := r.writer.Close()
	path := r.path
	r.writer = nil
	r.path = ""
	if err != nil {
		return path, fmt.Errorf("close video writer: %w", err)
	}
	return path, nil
}

// Recording reports whether frames are being written.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writer != nil
}

// Frames returns the number of frames written since the last Start.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}
