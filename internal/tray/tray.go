// Package tray provides a system tray menu for controlling airdraw.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle func(enabled bool)
	onUndo   func()
	onClear  func()
	onRecord func() (recording bool)
	onCamera func(visible bool)
	onOpen   func()
	onQuit   func()

	enabled   bool
	camera    bool
	recording bool
	mu        sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuColor  *systray.MenuItem
	menuRecord *systray.MenuItem
	menuCamera *systray.MenuItem
	color      string
}

// New creates a new Tray with tracking enabled and the camera shown.
func New() *Tray {
	return &Tray{
		enabled: true,
		camera:  true,
	}
}

// OnToggle sets the callback for enabling or disabling hand tracking.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnUndo sets the callback for the Undo item.
func (t *Tray) OnUndo(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onUndo = fn
}

// OnClear sets the callback for the Clear item.
func (t *Tray) OnClear(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onClear = fn
}

// OnRecord sets the callback for the recording item. fn returns whether
// recording is active afterwards.
func (t *Tray) OnRecord(fn func() bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onRecord = fn
}

// OnCamera sets the callback for showing or hiding the camera feed.
func (t *Tray) OnCamera(fn func(visible bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onCamera = fn
}

// OnOpen sets the callback for opening the canvas in a browser.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray, making Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("airdraw")
	systray.SetTooltip("airdraw - draw in the air")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(enabledTitle(t.enabled), "Toggle hand tracking")
	systray.AddSeparator()

	t.menuColor = systray.AddMenuItem(colorTitle(t.color), "Active colour")
	t.menuColor.Disable()
	systray.AddSeparator()

	menuUndo := systray.AddMenuItem("Undo", "Remove the last stroke")
	menuClear := systray.AddMenuItem("Clear", "Remove every stroke")
	t.menuRecord = systray.AddMenuItem(recordTitle(t.recording), "Record the canvas to video")
	t.menuCamera = systray.AddMenuItem(cameraTitle(t.camera), "Show or hide the camera feed")
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Canvas...", "Open the canvas in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit airdraw")
	t.mu.Unlock()

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuUndo.ClickedCh:
				t.handleUndo()
			case <-menuClear.ClickedCh:
				t.handleClear()
			case <-t.menuRecord.ClickedCh:
				t.handleRecord()
			case <-t.menuCamera.ClickedCh:
				t.handleCamera()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

func (t *Tray) handleUndo() {
	t.mu.RLock()
	callback := t.onUndo
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleClear() {
	t.mu.RLock()
	callback := t.onClear
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleOpen handles the Open Canvas menu item click.
func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(enabledTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleRecord() {
	t.mu.RLock()
	callback := t.onRecord
	t.mu.RUnlock()

	if callback == nil {
		return
	}
	t.SetRecording(callback())
}

func (t *Tray) handleCamera() {
	t.mu.Lock()
	t.camera = !t.camera
	visible := t.camera
	if t.menuCamera != nil {
		t.menuCamera.SetTitle(cameraTitle(visible))
	}
	callback := t.onCamera
	t.mu.Unlock()

	if callback != nil {
		callback(visible)
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetColor updates the active colour line, e.g. "#0066ff".
func (t *Tray) SetColor(hex string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.color = hex
	if t.menuColor != nil {
		t.menuColor.SetTitle(colorTitle(hex))
	}
}

// SetRecording updates the recording item.
func (t *Tray) SetRecording(recording bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.recording = recording
	if t.menuRecord != nil {
		t.menuRecord.SetTitle(recordTitle(recording))
	}
}

// SetCameraVisible updates the camera item without firing the callback.
func (t *Tray) SetCameraVisible(visible bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.camera = visible
	if t.menuCamera != nil {
		t.menuCamera.SetTitle(cameraTitle(visible))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Color returns the colour shown in the menu.
func (t *Tray) Color() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.color
}

// Recording returns the recording state shown in the menu.
func (t *Tray) Recording() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.recording
}

// CameraVisible returns the camera state shown in the menu.
func (t *Tray) CameraVisible() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.camera
}

func enabledTitle(enabled bool) string {
	if enabled {
		return "● Tracking"
	}
	return "○ Paused"
}

func colorTitle(hex string) string {
	if hex == "" {
		return "Colour: -"
	}
	return "Colour: " + hex
}

func recordTitle(recording bool) string {
	if recording {
		return "Stop Recording"
	}
	return "Start Recording"
}

func cameraTitle(visible bool) string {
	if visible {
		return "Hide Camera"
	}
	return "Show Camera"
}
