// Package poller runs hand detection on a fixed interval, independent of
// the render loop, and hands each result to a sink.
package poller

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/airdraw/internal/capture"
	"github.com/ayusman/airdraw/internal/detector"
)

// DefaultInterval is the time between polls.
const DefaultInterval = 100 * time.Millisecond

// Sink receives one result per completed poll: the fingertips of the first
// detected hand, or nil when no hand was found or detection failed.
type Sink func(tips *detector.Fingertips)

// Config holds poller settings.
type Config struct {
	Interval time.Duration
	// Width and Height are the pixel space fingertips are scaled into.
	Width  int
	Height int
	// Mirror flips the horizontal axis to match a front-facing camera.
	Mirror bool
}

// DefaultConfig polls every 100 ms into a mirrored 640x480 space.
func DefaultConfig() Config {
	return Config{
		Interval: DefaultInterval,
		Width:    640,
		Height:   480,
		Mirror:   true,
	}
}

// Stats counts what the poller has done since it was created.
type Stats struct {
	Polled  uint64 // polls that ran detection
	Skipped uint64 // ticks dropped because a poll was still in flight
	Failed  uint64 // polls that ended in an error or panic
}

// Poller owns the re-entrancy guard around the detector. At most one
// detection call is outstanding; a tick arriving while one is pending is
// dropped, not queued.
type Poller struct {
	config Config
	frames capture.FrameSource
	sink   Sink

	mu       sync.RWMutex
	detector detector.Detector
	enabled  bool

	busy atomic.Bool

	// Guarded by busy.
	start  time.Time
	lastTs int64

	polled  atomic.Uint64
	skipped atomic.Uint64
	failed  atomic.Uint64

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a Poller reading frames from frames and running d on them.
// The poller starts enabled.
func New(config Config, frames capture.FrameSource, d detector.Detector, sink Sink) *Poller {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if config.Width <= 0 || config.Height <= 0 {
		config.Width, config.Height = 640, 480
	}
	if sink == nil {
		sink = func(*detector.Fingertips) {}
	}
	return &Poller{
		config:   config,
		frames:   frames,
		sink:     sink,
		detector: d,
		enabled:  true,
		start:    time.Now(),
		lastTs:   -1,
	}
}

// Start launches the polling loop. Calling Start twice is a no-op.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopCh != nil {
		return
	}
	p.stopCh = make(chan struct{})
	p.wg.Add(1)
	go p.run(p.stopCh)
}

// Stop halts the loop and waits for an in-flight poll to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.stopCh != nil {
		close(p.stopCh)
		p.stopCh = nil
	}
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Poller) run(stopCh chan struct{}) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if p.busy.Load() {
				p.skipped.Add(1)
				continue
			}
			p.wg.Add(1)
			go func() {
				defer p.wg.Done()
				p.Poll()
			}()
		}
	}
}

// Poll performs one guarded tick synchronously. It reports false when the
// tick was skipped: a poll was already in flight, the poller is disabled,
// or the detector is not ready yet. Skipped ticks deliver nothing.
func (p *Poller) Poll() bool {
	p.mu.RLock()
	d := p.detector
	enabled := p.enabled
	p.mu.RUnlock()

	if !enabled || d == nil {
		return false
	}
	if r, ok := d.(detector.Readier); ok && !r.Ready() {
		return false
	}

	if !p.busy.CompareAndSwap(false, true) {
		p.skipped.Add(1)
		return false
	}
	defer p.busy.Store(false)

	p.polled.Add(1)
	tips, err := p.detect(d)
	if err != nil {
		p.failed.Add(1)
		log.Printf("poll failed: %v", err)
		tips = nil
	}
	p.sink(tips)
	return true
}

// detect reads the latest frame and runs d on it. A panic inside the
// detector comes back as an error.
func (p *Poller) detect(d detector.Detector) (tips *detector.Fingertips, err error) {
	defer func() {
		if r := recover(); r != nil {
			tips, err = nil, fmt.Errorf("detector panic: %v", r)
		}
	}()

	frame, err := p.frames.ReadFrame()
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	defer frame.Close()

	hands, err := d.Detect(frame, p.nextTimestamp())
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}
	if len(hands) == 0 {
		return nil, nil
	}

	return hands[0].Fingertips(p.config.Width, p.config.Height, p.config.Mirror)
}

// nextTimestamp returns milliseconds since the poller was created, bumped
// so that successive values strictly increase. Caller holds busy.
func (p *Poller) nextTimestamp() int64 {
	ts := time.Since(p.start).Milliseconds()
	if ts <= p.lastTs {
		ts = p.lastTs + 1
	}
	p.lastTs = ts
	return ts
}

// SetEnabled pauses or resumes polling.
func (p *Poller) SetEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = enabled
}

// Enabled reports whether polling is active.
func (p *Poller) Enabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.enabled
}

// SetDetector swaps the detector used by subsequent polls.
func (p *Poller) SetDetector(d detector.Detector) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detector = d
}

// Detector returns the current detector.
func (p *Poller) Detector() detector.Detector {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.detector
}

// Stats returns the poll counters.
func (p *Poller) Stats() Stats {
	return Stats{
		Polled:  p.polled.Load(),
		Skipped: p.skipped.Load(),
		Failed:  p.failed.Load(),
	}
}
