package sketch

import (
	"image/color"
	"sync"
	"testing"

	"github.com/ayusman/airdraw/internal/detector"
)

// Hand poses in pixel space. Fingers not involved in a pinch are far from
// the thumb.
func openHand(x, y float64) *detector.Fingertips {
	return &detector.Fingertips{
		Thumb:  detector.Point{X: x + 120, Y: y + 80},
		Index:  detector.Point{X: x, Y: y},
		Middle: detector.Point{X: x - 30, Y: y - 10},
		Ring:   detector.Point{X: x - 60, Y: y + 10},
		Pinky:  detector.Point{X: x - 90, Y: y + 40},
	}
}

func pinch(x, y float64) *detector.Fingertips {
	tips := openHand(x, y)
	tips.Thumb = detector.Point{X: x + 3, Y: y + 3}
	return tips
}

func ringPinch() *detector.Fingertips {
	tips := openHand(300, 200)
	tips.Thumb = detector.Point{X: tips.Ring.X + 2, Y: tips.Ring.Y}
	return tips
}

func pinkyPinch() *detector.Fingertips {
	tips := openHand(300, 200)
	tips.Thumb = detector.Point{X: tips.Pinky.X + 2, Y: tips.Pinky.Y}
	return tips
}

// drawStroke pinches for n ticks along a horizontal line and then releases.
func drawStroke(t *testing.T, s *Session, n int) Event {
	t.Helper()
	for i := 0; i < n; i++ {
		s.Observe(pinch(100+float64(i)*10, 100))
	}
	return s.Observe(openHand(100, 100))
}

func TestSession_DrawChannel(t *testing.T) {
	t.Run("pinch held for several ticks commits one stroke", func(t *testing.T) {
		s := NewSession(DefaultConfig())

		ev := s.Observe(pinch(100, 100))
		if !ev.Has(StrokeStarted) {
			t.Errorf("first pinch tick: expected StrokeStarted, got %v", ev)
		}
		if !s.Drawing() {
			t.Fatal("expected session to be drawing")
		}
		s.Observe(pinch(110, 105))
		s.Observe(pinch(120, 110))

		if len(s.Paths()) != 0 {
			t.Fatal("stroke must not be committed while still drawing")
		}

		ev = s.Observe(openHand(130, 110))
		if !ev.Has(StrokeCommitted) {
			t.Errorf("release: expected StrokeCommitted, got %v", ev)
		}

		paths := s.Paths()
		if len(paths) != 1 {
			t.Fatalf("expected 1 committed stroke, got %d", len(paths))
		}
		if paths[0].Len() != 3 {
			t.Errorf("expected 3 points, one per pinched tick, got %d", paths[0].Len())
		}
		want := []detector.Point{{X: 100, Y: 100}, {X: 110, Y: 105}, {X: 120, Y: 110}}
		for i, p := range paths[0].Points {
			if p.X != want[i].X || p.Y != want[i].Y {
				t.Errorf("point %d = (%f,%f), want (%f,%f)", i, p.X, p.Y, want[i].X, want[i].Y)
			}
		}
		if s.Drawing() {
			t.Error("expected session to be idle after release")
		}
	})

	t.Run("losing the hand commits the stroke", func(t *testing.T) {
		s := NewSession(DefaultConfig())
		s.Observe(pinch(100, 100))
		s.Observe(pinch(120, 100))

		ev := s.Observe(nil)
		if !ev.Has(StrokeCommitted) {
			t.Errorf("hand lost: expected StrokeCommitted, got %v", ev)
		}
		if len(s.Paths()) != 1 {
			t.Errorf("expected 1 committed stroke, got %d", len(s.Paths()))
		}
	})

	t.Run("single tick pinch is discarded", func(t *testing.T) {
		for _, end := range []struct {
			name string
			tips *detector.Fingertips
		}{
			{"released", openHand(100, 100)},
			{"hand lost", nil},
		} {
			t.Run(end.name, func(t *testing.T) {
				s := NewSession(DefaultConfig())
				s.Observe(pinch(100, 100))

				ev := s.Observe(end.tips)
				if !ev.Has(StrokeDiscarded) {
					t.Errorf("expected StrokeDiscarded, got %v", ev)
				}
				if len(s.Paths()) != 0 {
					t.Errorf("expected no committed stroke, got %d", len(s.Paths()))
				}
				if s.Drawing() {
					t.Error("expected idle after discard")
				}
			})
		}
	})

	t.Run("consecutive strokes are committed in order", func(t *testing.T) {
		s := NewSession(DefaultConfig())
		drawStroke(t, s, 2)
		drawStroke(t, s, 4)
		drawStroke(t, s, 3)

		paths := s.Paths()
		if len(paths) != 3 {
			t.Fatalf("expected 3 strokes, got %d", len(paths))
		}
		for i, want := range []int{2, 4, 3} {
			if paths[i].Len() != want {
				t.Errorf("stroke %d has %d points, want %d", i, paths[i].Len(), want)
			}
		}
	})

	t.Run("no hand while idle is a no-op", func(t *testing.T) {
		s := NewSession(DefaultConfig())
		if ev := s.Observe(nil); ev != 0 {
			t.Errorf("expected no event, got %v", ev)
		}
	})
}

func TestSession_PointsKeepTheirStyle(t *testing.T) {
	s := NewSession(DefaultConfig())
	first := s.Color()

	s.Observe(pinch(100, 100))
	s.SetBrushSize(12)
	s.Observe(pinch(110, 100))
	s.Observe(openHand(110, 100))

	// Changing style afterwards must not touch the committed stroke.
	s.CycleColor()
	s.SetBrushSize(30)

	stroke := s.Paths()[0]
	if stroke.Points[0].Size != DefaultBrushSize {
		t.Errorf("point 0 size = %d, want %d", stroke.Points[0].Size, DefaultBrushSize)
	}
	if stroke.Points[1].Size != 12 {
		t.Errorf("point 1 size = %d, want 12", stroke.Points[1].Size)
	}
	for i, p := range stroke.Points {
		if p.Color != first {
			t.Errorf("point %d color = %v, want %v", i, p.Color, first)
		}
	}
	if stroke.Size() != DefaultBrushSize {
		t.Errorf("stroke Size() = %d, want %d", stroke.Size(), DefaultBrushSize)
	}
}

func TestSession_ColorChannel(t *testing.T) {
	c0 := color.RGBA{R: 1, A: 255}
	c1 := color.RGBA{G: 1, A: 255}
	c2 := color.RGBA{B: 1, A: 255}

	newSession := func() *Session {
		cfg := DefaultConfig()
		cfg.Palette = Palette{c0, c1, c2}
		return NewSession(cfg)
	}

	t.Run("rising edges cycle and wrap", func(t *testing.T) {
		s := newSession()
		if s.Color() != c0 {
			t.Fatalf("initial color = %v, want %v", s.Color(), c0)
		}

		for _, want := range []color.RGBA{c1, c2, c0} {
			ev := s.Observe(ringPinch())
			if !ev.Has(ColorChanged) {
				t.Errorf("expected ColorChanged, got %v", ev)
			}
			if s.Color() != want {
				t.Errorf("color = %v, want %v", s.Color(), want)
			}
			s.Observe(openHand(300, 200))
		}
	})

	t.Run("held pinch fires once", func(t *testing.T) {
		s := newSession()
		for i := 0; i < 10; i++ {
			s.Observe(ringPinch())
		}
		if s.ColorIndex() != 1 {
			t.Errorf("color index = %d after a held pinch, want 1", s.ColorIndex())
		}
	})

	t.Run("hand loss resets the latch", func(t *testing.T) {
		s := newSession()
		s.Observe(ringPinch())
		s.Observe(nil)
		s.Observe(ringPinch())
		if s.ColorIndex() != 2 {
			t.Errorf("color index = %d, want 2", s.ColorIndex())
		}
	})

	t.Run("ignored while drawing", func(t *testing.T) {
		s := newSession()
		s.Observe(pinch(100, 100))

		// Index and ring both pinched to the thumb: drawing wins.
		both := pinch(100, 100)
		both.Ring = both.Thumb
		ev := s.Observe(both)
		if ev.Has(ColorChanged) {
			t.Error("color must not change while drawing")
		}
		if s.ColorIndex() != 0 {
			t.Errorf("color index = %d, want 0", s.ColorIndex())
		}
		if !s.Drawing() {
			t.Error("expected to still be drawing")
		}
	})

	t.Run("latch carries across a stroke", func(t *testing.T) {
		both := pinch(300, 200)
		both.Ring = both.Thumb

		// Ring pinch held before the stroke started: no second change.
		s := newSession()
		s.Observe(ringPinch())
		s.Observe(both)
		s.Observe(both)
		if ev := s.Observe(ringPinch()); ev.Has(ColorChanged) {
			t.Errorf("held pinch fired again on release: %v", ev)
		}
		if s.ColorIndex() != 1 {
			t.Errorf("color index = %d, want 1", s.ColorIndex())
		}

		// Ring pinch first seen mid-stroke: fires once the stroke ends.
		s = newSession()
		s.Observe(pinch(300, 200))
		s.Observe(both)
		ev := s.Observe(ringPinch())
		if !ev.Has(StrokeCommitted) || !ev.Has(ColorChanged) {
			t.Errorf("release with ring pinched = %v, want commit and colour change", ev)
		}
	})
}

func TestSession_UndoChannel(t *testing.T) {
	t.Run("edge gating scenario", func(t *testing.T) {
		s := NewSession(DefaultConfig())
		drawStroke(t, s, 2)
		drawStroke(t, s, 3)
		drawStroke(t, s, 4)

		ev := s.Observe(pinkyPinch())
		if !ev.Has(Undone) {
			t.Errorf("expected Undone, got %v", ev)
		}
		paths := s.Paths()
		if len(paths) != 2 || paths[1].Len() != 3 {
			t.Fatalf("expected [S1 S2] after one undo, got %d strokes", len(paths))
		}

		// Same physical pinch, no release.
		if ev := s.Observe(pinkyPinch()); ev.Has(Undone) {
			t.Error("held pinch must not undo again")
		}
		if len(s.Paths()) != 2 {
			t.Fatalf("expected 2 strokes, got %d", len(s.Paths()))
		}

		s.Observe(openHand(300, 200))
		s.Observe(pinkyPinch())

		paths = s.Paths()
		if len(paths) != 1 || paths[0].Len() != 2 {
			t.Fatalf("expected [S1] after release and new pinch, got %d strokes", len(paths))
		}
	})

	t.Run("empty path list is a no-op", func(t *testing.T) {
		s := NewSession(DefaultConfig())
		ev := s.Observe(pinkyPinch())
		if ev.Has(Undone) {
			t.Error("nothing to undo")
		}
		if s.Undo() {
			t.Error("Undo() on empty path list should report false")
		}
	})

	t.Run("ignored while drawing", func(t *testing.T) {
		s := NewSession(DefaultConfig())
		drawStroke(t, s, 2)

		s.Observe(pinch(100, 100))
		both := pinch(100, 100)
		both.Pinky = both.Thumb
		s.Observe(both)

		if len(s.Paths()) != 1 {
			t.Errorf("undo must be ignored while drawing, got %d strokes", len(s.Paths()))
		}
	})

	t.Run("pinch held through a stroke does not refire", func(t *testing.T) {
		s := NewSession(DefaultConfig())
		drawStroke(t, s, 2)
		drawStroke(t, s, 2)

		s.Observe(pinkyPinch()) // undo S2
		both := pinkyPinch()
		both.Index = both.Thumb
		s.Observe(both) // start drawing with pinky still pinched
		s.Observe(both)
		s.Observe(pinkyPinch()) // stop drawing, pinky never released

		paths := s.Paths()
		// S1 plus the new stroke; the held pinky pinch did not undo again.
		if len(paths) != 2 {
			t.Errorf("expected 2 strokes, got %d", len(paths))
		}
	})
}

func TestSession_Controls(t *testing.T) {
	t.Run("clear removes everything", func(t *testing.T) {
		s := NewSession(DefaultConfig())
		drawStroke(t, s, 3)
		drawStroke(t, s, 3)

		if ev := s.Clear(); !ev.Has(Cleared) {
			t.Errorf("expected Cleared, got %v", ev)
		}
		if len(s.Paths()) != 0 {
			t.Errorf("expected empty path list, got %d", len(s.Paths()))
		}
	})

	t.Run("clear while drawing restarts the stroke", func(t *testing.T) {
		s := NewSession(DefaultConfig())
		s.Observe(pinch(100, 100))
		s.Observe(pinch(110, 100))
		s.Clear()

		cur, ok := s.Current()
		if !ok || cur.Len() != 0 {
			t.Fatalf("expected empty in-progress stroke, got ok=%v len=%d", ok, cur.Len())
		}
		s.Observe(pinch(120, 100))
		s.Observe(pinch(130, 100))
		s.Observe(nil)
		if paths := s.Paths(); len(paths) != 1 || paths[0].Len() != 2 {
			t.Errorf("expected one 2-point stroke after clear")
		}
	})

	t.Run("brush size is clamped", func(t *testing.T) {
		s := NewSession(DefaultConfig())
		tests := []struct{ in, want int }{
			{10, 10}, {0, MinBrushSize}, {-4, MinBrushSize}, {500, MaxBrushSize},
		}
		for _, tt := range tests {
			if got := s.SetBrushSize(tt.in); got != tt.want {
				t.Errorf("SetBrushSize(%d) = %d, want %d", tt.in, got, tt.want)
			}
			if s.BrushSize() != tt.want {
				t.Errorf("BrushSize() = %d, want %d", s.BrushSize(), tt.want)
			}
		}
	})

	t.Run("color index wraps", func(t *testing.T) {
		s := NewSession(DefaultConfig())
		n := len(DefaultPalette())
		s.SetColorIndex(n + 2)
		if s.ColorIndex() != 2 {
			t.Errorf("ColorIndex() = %d, want 2", s.ColorIndex())
		}
		s.SetColorIndex(-1)
		if s.ColorIndex() != n-1 {
			t.Errorf("ColorIndex() = %d, want %d", s.ColorIndex(), n-1)
		}
	})

	t.Run("restore drops degenerate strokes", func(t *testing.T) {
		s := NewSession(DefaultConfig())
		s.Restore([]Stroke{
			{Points: []StrokePoint{{X: 1, Y: 1}, {X: 2, Y: 2}}},
			{Points: []StrokePoint{{X: 5, Y: 5}}},
			{},
		})
		if len(s.Paths()) != 1 {
			t.Errorf("expected 1 restored stroke, got %d", len(s.Paths()))
		}
	})
}

func TestSession_Snapshot(t *testing.T) {
	s := NewSession(DefaultConfig())
	drawStroke(t, s, 2)
	s.Observe(pinch(200, 200))
	s.Observe(pinch(210, 200))

	snap := s.Snapshot()
	if len(snap.Paths) != 1 {
		t.Errorf("expected 1 path, got %d", len(snap.Paths))
	}
	if !snap.Drawing() || snap.Current.Len() != 2 {
		t.Fatalf("expected in-progress stroke of 2 points")
	}
	if snap.Cursor == nil || snap.Cursor.X != 210 {
		t.Errorf("expected cursor at index tip, got %v", snap.Cursor)
	}

	// Further drawing must not leak into the snapshot.
	s.Observe(pinch(220, 200))
	if snap.Current.Len() != 2 {
		t.Errorf("snapshot changed after Observe: %d points", snap.Current.Len())
	}

	s.Observe(nil)
	if s.Snapshot().Cursor != nil {
		t.Error("cursor should clear when the hand is lost")
	}
}

func TestSession_ConcurrentAccess(t *testing.T) {
	s := NewSession(DefaultConfig())

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if i%5 == 4 {
				s.Observe(openHand(100, 100))
			} else {
				s.Observe(pinch(float64(i), 100))
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = s.Snapshot()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			s.SetBrushSize(i)
			s.Undo()
		}
	}()
	wg.Wait()
}

func TestEvent_String(t *testing.T) {
	tests := []struct {
		ev   Event
		want string
	}{
		{0, "none"},
		{StrokeCommitted, "stroke-committed"},
		{StrokeCommitted | ColorChanged, "stroke-committed|color-changed"},
	}
	for _, tt := range tests {
		if got := tt.ev.String(); got != tt.want {
			t.Errorf("Event(%d).String() = %q, want %q", tt.ev, got, tt.want)
		}
	}
}

func TestHex(t *testing.T) {
	c := color.RGBA{R: 0, G: 102, B: 255, A: 255}
	if got := Hex(c); got != "#0066ff" {
		t.Errorf("Hex() = %q, want #0066ff", got)
	}

	back, err := ParseHex("#0066ff")
	if err != nil {
		t.Fatalf("ParseHex() error = %v", err)
	}
	if back != c {
		t.Errorf("ParseHex() = %v, want %v", back, c)
	}

	for _, bad := range []string{"", "#12345", "#gggggg", "0066ff00"} {
		if _, err := ParseHex(bad); err == nil {
			t.Errorf("ParseHex(%q) expected error", bad)
		}
	}
}
