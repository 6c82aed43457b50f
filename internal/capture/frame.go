package capture

import (
	"errors"
	"sync"

	"gocv.io/x/gocv"
)

// ErrNoFrame is returned by FrameBuffer before the first frame is stored.
var ErrNoFrame = errors.New("no frame available")

// FrameBuffer holds the most recent frame so that independent loops can
// share one capture device. Readers get their own copy.
type FrameBuffer struct {
	mu  sync.Mutex
	mat gocv.Mat
	has bool
	seq uint64
}

// NewFrameBuffer creates an empty FrameBuffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{mat: gocv.NewMat()}
}

// Store copies frame into the buffer, replacing the previous one.
// The caller keeps ownership of frame.
func (b *FrameBuffer) Store(frame *gocv.Mat) {
	if frame == nil || frame.Empty() {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	frame.CopyTo(&b.mat)
	b.has = true
	b.seq++
}

// ReadFrame returns a copy of the latest frame.
// The caller is responsible for closing the returned Mat.
func (b *FrameBuffer) ReadFrame() (*gocv.Mat, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.has {
		return nil, ErrNoFrame
	}

	clone := b.mat.Clone()
	return &clone, nil
}

// Seq returns the number of frames stored so far.
func (b *FrameBuffer) Seq() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seq
}

// Close releases the buffered frame.
func (b *FrameBuffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.mat.Close()
	b.mat = gocv.NewMat()
	b.has = false
}
