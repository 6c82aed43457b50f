package capture

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func TestMockCamera_Playback(t *testing.T) {
	frame1 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame1, &frame2}, false)

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() before Open error = %v, want ErrCameraNotOpen", err)
	}

	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer cam.Close()

	for i := 0; i < 2; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() %d error = %v", i, err)
		}
		f.Close()
	}

	// Third read should fail (no loop)
	if _, err := cam.ReadFrame(); err == nil {
		t.Error("expected error after all frames consumed")
	}

	if got := cam.Reads(); got != 2 {
		t.Errorf("Reads() = %d, want 2", got)
	}
}

func TestMockCamera_Loop(t *testing.T) {
	frame := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	defer frame.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame}, true)
	cam.Open()
	defer cam.Close()

	for i := 0; i < 5; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() iteration %d error = %v", i, err)
		}
		f.Close()
	}

	if w, h := cam.Size(); w != 320 || h != 240 {
		t.Errorf("Size() = %dx%d, want 320x240", w, h)
	}
}

func TestFrameBuffer(t *testing.T) {
	buf := NewFrameBuffer()
	defer buf.Close()

	t.Run("empty buffer has no frame", func(t *testing.T) {
		if _, err := buf.ReadFrame(); !errors.Is(err, ErrNoFrame) {
			t.Errorf("ReadFrame() error = %v, want ErrNoFrame", err)
		}
	})

	t.Run("empty frames are ignored", func(t *testing.T) {
		empty := gocv.NewMat()
		defer empty.Close()
		buf.Store(&empty)
		buf.Store(nil)

		if buf.Seq() != 0 {
			t.Errorf("Seq() = %d, want 0", buf.Seq())
		}
	})

	t.Run("stores a copy", func(t *testing.T) {
		src := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
		buf.Store(&src)
		src.Close()

		got, err := buf.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() error = %v", err)
		}
		defer got.Close()

		if got.Cols() != 64 || got.Rows() != 48 {
			t.Errorf("frame size = %dx%d, want 64x48", got.Cols(), got.Rows())
		}
		if buf.Seq() != 1 {
			t.Errorf("Seq() = %d, want 1", buf.Seq())
		}
	})

	t.Run("close drops the frame", func(t *testing.T) {
		buf.Close()
		if _, err := buf.ReadFrame(); !errors.Is(err, ErrNoFrame) {
			t.Errorf("ReadFrame() after Close error = %v, want ErrNoFrame", err)
		}
	})
}
