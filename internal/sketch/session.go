package sketch

import (
	"image/color"
	"strings"
	"sync"

	"github.com/ayusman/airdraw/internal/detector"
)

// Brush size limits.
const (
	MinBrushSize     = 1
	MaxBrushSize     = 50
	DefaultBrushSize = 5
)

// Thresholds are the pinch distances, in canvas pixels, below which each
// gesture channel is considered active.
type Thresholds struct {
	Draw  float64 // index to thumb
	Color float64 // ring to thumb
	Undo  float64 // pinky to thumb
}

// DefaultThresholds are tuned for a 640x480 canvas.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Draw:  30,
		Color: 30,
		Undo:  30,
	}
}

// Config holds the engine settings.
type Config struct {
	Thresholds Thresholds
	Palette    Palette
	BrushSize  int
}

// DefaultConfig returns the default engine settings.
func DefaultConfig() Config {
	return Config{
		Thresholds: DefaultThresholds(),
		Palette:    DefaultPalette(),
		BrushSize:  DefaultBrushSize,
	}
}

// Event reports what a call changed. Several flags may be set at once.
type Event uint8

const (
	StrokeStarted Event = 1 << iota
	StrokeCommitted
	StrokeDiscarded
	ColorChanged
	Undone
	Cleared
)

// Has reports whether all flags in f are set.
func (e Event) Has(f Event) bool {
	return e&f == f && f != 0
}

func (e Event) String() string {
	if e == 0 {
		return "none"
	}
	names := []struct {
		flag Event
		name string
	}{
		{StrokeStarted, "stroke-started"},
		{StrokeCommitted, "stroke-committed"},
		{StrokeDiscarded, "stroke-discarded"},
		{ColorChanged, "color-changed"},
		{Undone, "undone"},
		{Cleared, "cleared"},
	}
	var parts []string
	for _, n := range names {
		if e&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// Session is the whole drawing state: the committed path list, the stroke in
// progress, the active colour and brush size, and the edge latches for the
// discrete gestures. It is safe for concurrent use.
type Session struct {
	mu         sync.Mutex
	thresholds Thresholds
	palette    Palette
	colorIdx   int
	brushSize  int

	paths   []Stroke
	current *Stroke // nil while idle

	colorLatch bool
	undoLatch  bool

	cursor *detector.Point
}

// NewSession creates an empty session. An empty palette or out-of-range
// brush size falls back to the defaults.
func NewSession(config Config) *Session {
	if len(config.Palette) == 0 {
		config.Palette = DefaultPalette()
	}
	if config.Thresholds == (Thresholds{}) {
		config.Thresholds = DefaultThresholds()
	}
	s := &Session{
		thresholds: config.Thresholds,
		palette:    append(Palette(nil), config.Palette...),
		brushSize:  DefaultBrushSize,
	}
	if config.BrushSize != 0 {
		s.brushSize = clampBrush(config.BrushSize)
	}
	return s
}

// Observe advances the gesture state machine by one tick. tips is nil when
// no hand was detected.
//
// The draw channel follows the index/thumb pinch continuously. The colour
// and undo channels fire once per rising edge and are only evaluated while
// not drawing.
func (s *Session) Observe(tips *detector.Fingertips) Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tips == nil {
		s.cursor = nil
		s.colorLatch = false
		s.undoLatch = false
		return s.endStroke()
	}

	cursor := tips.Index
	s.cursor = &cursor

	var ev Event

	if detector.Distance(tips.Index, tips.Thumb) < s.thresholds.Draw {
		if s.current == nil {
			s.current = &Stroke{}
			ev |= StrokeStarted
		}
		s.current.Points = append(s.current.Points, StrokePoint{
			X:     tips.Index.X,
			Y:     tips.Index.Y,
			Color: s.palette[s.colorIdx],
			Size:  s.brushSize,
		})
		// Discrete channels are ignored while drawing; latches keep their value.
		return ev
	}

	ev |= s.endStroke()

	colorActive := detector.Distance(tips.Ring, tips.Thumb) < s.thresholds.Color
	if colorActive && !s.colorLatch {
		s.colorIdx = (s.colorIdx + 1) % len(s.palette)
		ev |= ColorChanged
	}
	s.colorLatch = colorActive

	undoActive := detector.Distance(tips.Pinky, tips.Thumb) < s.thresholds.Undo
	if undoActive && !s.undoLatch {
		if s.undo() {
			ev |= Undone
		}
	}
	s.undoLatch = undoActive

	return ev
}

// endStroke commits the in-progress stroke if it has more than one point and
// discards it otherwise. Caller holds mu.
func (s *Session) endStroke() Event {
	if s.current == nil {
		return 0
	}
	stroke := *s.current
	s.current = nil

	if stroke.Len() > 1 {
		s.paths = append(s.paths, stroke)
		return StrokeCommitted
	}
	return StrokeDiscarded
}

func (s *Session) undo() bool {
	if len(s.paths) == 0 {
		return false
	}
	s.paths[len(s.paths)-1] = Stroke{}
	s.paths = s.paths[:len(s.paths)-1]
	return true
}

// Undo removes the most recently committed stroke. It reports false when
// there was nothing to undo.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.undo()
}

// Clear removes every committed stroke. A stroke in progress restarts empty
// so the pinch that is still held keeps drawing.
func (s *Session) Clear() Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.paths = nil
	if s.current != nil {
		s.current = &Stroke{}
	}
	return Cleared
}

// Restore replaces the committed path list, e.g. when loading a saved drawing.
// Strokes with fewer than two points are dropped.
func (s *Session) Restore(strokes []Stroke) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.paths = make([]Stroke, 0, len(strokes))
	for _, st := range strokes {
		if st.Len() > 1 {
			s.paths = append(s.paths, st.clone())
		}
	}
	s.current = nil
}

// SetBrushSize sets the size used for subsequently captured points,
// clamped to [MinBrushSize, MaxBrushSize]. It returns the applied size.
func (s *Session) SetBrushSize(size int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.brushSize = clampBrush(size)
	return s.brushSize
}

// BrushSize returns the active brush size.
func (s *Session) BrushSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brushSize
}

// CycleColor advances to the next palette colour, as the colour gesture does.
func (s *Session) CycleColor() color.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.colorIdx = (s.colorIdx + 1) % len(s.palette)
	return s.palette[s.colorIdx]
}

// SetColorIndex selects a palette entry. Out-of-range indexes wrap.
func (s *Session) SetColorIndex(i int) color.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.palette)
	s.colorIdx = ((i % n) + n) % n
	return s.palette[s.colorIdx]
}

// Color returns the active colour.
func (s *Session) Color() color.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.palette[s.colorIdx]
}

// ColorIndex returns the active palette index.
func (s *Session) ColorIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.colorIdx
}

// Palette returns a copy of the palette.
func (s *Session) Palette() Palette {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(Palette(nil), s.palette...)
}

// Drawing reports whether a stroke is in progress.
func (s *Session) Drawing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Paths returns the committed strokes in commit order.
func (s *Session) Paths() []Stroke {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Stroke(nil), s.paths...)
}

// Current returns a copy of the stroke in progress and whether there is one.
func (s *Session) Current() (Stroke, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Stroke{}, false
	}
	return s.current.clone(), true
}

// Snapshot is a consistent read-only view of a Session.
type Snapshot struct {
	Paths      []Stroke
	Current    *Stroke
	Color      color.RGBA
	ColorIndex int
	BrushSize  int
	Cursor     *detector.Point
}

// Drawing reports whether a stroke was in progress.
func (sn Snapshot) Drawing() bool {
	return sn.Current != nil
}

// Snapshot returns a copy of the session state. Committed strokes are shared
// with the session since they are never modified.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	sn := Snapshot{
		Paths:      append([]Stroke(nil), s.paths...),
		Color:      s.palette[s.colorIdx],
		ColorIndex: s.colorIdx,
		BrushSize:  s.brushSize,
	}
	if s.current != nil {
		cur := s.current.clone()
		sn.Current = &cur
	}
	if s.cursor != nil {
		c := *s.cursor
		sn.Cursor = &c
	}
	return sn
}

func clampBrush(size int) int {
	if size < MinBrushSize {
		return MinBrushSize
	}
	if size > MaxBrushSize {
		return MaxBrushSize
	}
	return size
}
