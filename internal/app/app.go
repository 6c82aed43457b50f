// Package app wires the camera, detector, gesture engine, renderer and
// recorder into the running airdraw application.
package app

import (
	"errors"
	"fmt"
	"image/color"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/ayusman/airdraw/internal/capture"
	"github.com/ayusman/airdraw/internal/detector"
	"github.com/ayusman/airdraw/internal/export"
	"github.com/ayusman/airdraw/internal/poller"
	"github.com/ayusman/airdraw/internal/render"
	"github.com/ayusman/airdraw/internal/sketch"
	"github.com/ayusman/airdraw/internal/store"
)

// Config holds configuration options for the application.
type Config struct {
	Store *store.Store

	CameraID int
	Width    int
	Height   int
	// FPS is the render loop and recording frame rate.
	FPS int
	// PollInterval is the time between hand detection polls.
	PollInterval time.Duration
	Mirror       bool
	RecordDir    string

	// Camera and Detector override the real devices when set.
	Camera   capture.Camera
	Detector detector.Detector
}

// DefaultConfig returns a mirrored 640x480 canvas rendered at 30 FPS and
// polled every 100 ms.
func DefaultConfig() Config {
	return Config{
		Width:        capture.DefaultWidth,
		Height:       capture.DefaultHeight,
		FPS:          capture.DefaultFPS,
		PollInterval: poller.DefaultInterval,
		Mirror:       true,
		RecordDir:    ".",
	}
}

// App is the running drawing application. The poller and the render loop
// are independent periodic tasks that share state only through the session
// and the latest camera frame.
type App struct {
	config   Config
	camera   capture.Camera
	frames   *capture.FrameBuffer // latest camera frame
	canvas   *capture.FrameBuffer // latest rendered canvas
	detector detector.Detector
	session  *sketch.Session
	poller   *poller.Poller
	renderer *render.Renderer
	recorder *export.Recorder

	hooks   []func(sketch.Event)
	enabled bool
	mu      sync.RWMutex
	// observeMu orders poll results against SetEnabled.
	observeMu sync.Mutex
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	def := DefaultConfig()
	if config.Width <= 0 || config.Height <= 0 {
		config.Width, config.Height = def.Width, def.Height
	}
	if config.FPS <= 0 {
		config.FPS = def.FPS
	}
	if config.PollInterval <= 0 {
		config.PollInterval = def.PollInterval
	}
	if config.RecordDir == "" {
		config.RecordDir = def.RecordDir
	}

	a := &App{
		config:  config,
		frames:  capture.NewFrameBuffer(),
		canvas:  capture.NewFrameBuffer(),
		session: sketch.NewSession(sketch.DefaultConfig()),
		enabled: true,
	}

	a.camera = config.Camera
	if a.camera == nil {
		a.camera = capture.NewCamera(capture.Config{
			DeviceID: config.CameraID,
			Width:    config.Width,
			Height:   config.Height,
			FPS:      config.FPS,
		})
	}

	a.detector = config.Detector
	if a.detector == nil {
		// Try MediaPipe first, fall back to mock detector
		if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
			a.detector = mp
			log.Println("Using MediaPipe hand detection")
		} else {
			log.Printf("MediaPipe not available (%v), using mock detector", err)
			a.detector = detector.NewMockDetector()
		}
	}

	a.poller = poller.New(poller.Config{
		Interval: config.PollInterval,
		Width:    config.Width,
		Height:   config.Height,
		Mirror:   config.Mirror,
	}, a.frames, a.detector, a.observe)

	rc := render.DefaultConfig()
	rc.Width, rc.Height = config.Width, config.Height
	rc.MirrorCamera = config.Mirror
	a.renderer = render.New(rc)

	a.recorder = export.NewRecorder(export.RecorderConfig{
		Dir:    config.RecordDir,
		FPS:    float64(config.FPS),
		Width:  config.Width,
		Height: config.Height,
	})

	return a
}

// OnEvent registers fn to be called with every non-empty engine event.
// Hooks run on the poller goroutine and must not block.
func (a *App) OnEvent(fn func(sketch.Event)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hooks = append(a.hooks, fn)
}

func (a *App) emit(ev sketch.Event) {
	if ev == 0 {
		return
	}
	a.mu.RLock()
	hooks := a.hooks
	a.mu.RUnlock()

	for _, fn := range hooks {
		fn(ev)
	}
}

// SetEnabled enables or disables hand tracking. Disabling ends any stroke
// in progress as if the hand had left the frame; a poll already in flight
// is delivered as no hand.
func (a *App) SetEnabled(enabled bool) {
	a.observeMu.Lock()
	a.mu.Lock()
	a.enabled = enabled
	a.mu.Unlock()

	a.poller.SetEnabled(enabled)
	var ev sketch.Event
	if !enabled {
		ev = a.session.Observe(nil)
	}
	a.observeMu.Unlock()

	a.emit(ev)
}

// IsEnabled returns whether hand tracking is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the hand detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	a.detector = d
	a.mu.Unlock()
	a.poller.SetDetector(d)
}

// LoadSettings restores brush size, colour and camera visibility from the store.
func (a *App) LoadSettings() error {
	if a.config.Store == nil {
		return nil
	}
	settings := a.config.Store.Settings()

	size, err := settings.GetInt(store.KeyBrushSize, sketch.DefaultBrushSize)
	if err != nil {
		return err
	}
	idx, err := settings.GetInt(store.KeyColorIndex, 0)
	if err != nil {
		return err
	}
	camera, err := settings.GetBool(store.KeyCameraVisible, true)
	if err != nil {
		return err
	}

	a.session.SetBrushSize(size)
	a.session.SetColorIndex(idx)
	a.renderer.SetCameraVisible(camera)
	log.Printf("Loaded settings: brush %d, colour %d, camera %v", size, idx, camera)
	return nil
}

// SaveSettings persists brush size, colour and camera visibility.
func (a *App) SaveSettings() error {
	if a.config.Store == nil {
		return nil
	}
	settings := a.config.Store.Settings()

	values := map[string]string{
		store.KeyBrushSize:     strconv.Itoa(a.session.BrushSize()),
		store.KeyColorIndex:    strconv.Itoa(a.session.ColorIndex()),
		store.KeyCameraVisible: strconv.FormatBool(a.renderer.CameraVisible()),
	}
	for k, v := range values {
		if err := settings.Set(k, v); err != nil {
			return fmt.Errorf("save %s: %w", k, err)
		}
	}
	return nil
}

// Start opens the camera and begins polling and rendering.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}

	a.stopCh = make(chan struct{})
	a.wg.Add(1)
	go a.runRenderLoop(a.stopCh)
	a.poller.Start()

	log.Println("Drawing pipeline started")
	return nil
}

// Stop halts polling and rendering, finishes any recording and releases
// the camera and detector.
func (a *App) Stop() {
	a.poller.Stop()

	a.mu.Lock()
	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}
	d := a.detector
	a.mu.Unlock()
	a.wg.Wait()

	if path, err := a.recorder.Stop(); err == nil {
		log.Printf("Recording saved to %s", path)
	} else if !errors.Is(err, export.ErrNotRecording) {
		log.Printf("Error finishing recording: %v", err)
	}

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	if d != nil {
		if err := d.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	a.frames.Close()
	a.canvas.Close()

	log.Println("Drawing pipeline stopped")
}

// Session returns the drawing session.
func (a *App) Session() *sketch.Session {
	return a.session
}

// CanvasSize returns the canvas size in pixels.
func (a *App) CanvasSize() (int, int) {
	return a.renderer.Size()
}

// Undo removes the last committed stroke.
func (a *App) Undo() bool {
	undone := a.session.Undo()
	if undone {
		a.emit(sketch.Undone)
	}
	return undone
}

// Clear removes every committed stroke.
func (a *App) Clear() {
	a.emit(a.session.Clear())
}

// CycleColor advances to the next palette colour.
func (a *App) CycleColor() color.RGBA {
	c := a.session.CycleColor()
	a.emit(sketch.ColorChanged)
	return c
}

// SetColorIndex selects a palette entry.
func (a *App) SetColorIndex(i int) color.RGBA {
	before := a.session.ColorIndex()
	c := a.session.SetColorIndex(i)
	if a.session.ColorIndex() != before {
		a.emit(sketch.ColorChanged)
	}
	return c
}

// SetCameraVisible toggles the camera feed behind the drawing.
func (a *App) SetCameraVisible(visible bool) {
	a.renderer.SetCameraVisible(visible)
}

// CameraVisible reports whether the camera feed is drawn.
func (a *App) CameraVisible() bool {
	return a.renderer.CameraVisible()
}

// ToggleRecording starts recording the canvas, or stops the recording in
// progress and returns the finished file.
func (a *App) ToggleRecording() (bool, string, error) {
	if a.recorder.Recording() {
		path, err := a.recorder.Stop()
		if err != nil {
			return false, path, err
		}
		log.Printf("Recording saved to %s", path)
		return false, path, nil
	}

	path, err := a.recorder.Start()
	if err != nil {
		return false, "", err
	}
	log.Printf("Recording to %s", path)
	return true, path, nil
}

// Recording reports whether the canvas is being recorded.
func (a *App) Recording() bool {
	return a.recorder.Recording()
}

// Canvas returns the latest rendered canvas frames.
func (a *App) Canvas() capture.FrameSource {
	return a.canvas
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// Stats returns the poller counters.
func (a *App) Stats() poller.Stats {
	return a.poller.Stats()
}
