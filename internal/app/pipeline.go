package app

import (
	"log"
	"time"

	"github.com/ayusman/airdraw/internal/detector"
)

// runRenderLoop reads the camera, publishes the frame for the poller and
// renders the canvas at the configured frame rate.
func (a *App) runRenderLoop(stopCh chan struct{}) {
	defer a.wg.Done()

	ticker := time.NewTicker(time.Second / time.Duration(a.config.FPS))
	defer ticker.Stop()

	cameraOK := true
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if err := a.renderFrame(); err != nil {
				if cameraOK {
					log.Printf("Error reading frame: %v", err)
				}
				cameraOK = false
			} else {
				cameraOK = true
			}
		}
	}
}

// renderFrame runs one render tick. A camera error still renders the
// drawing over the flat background and is returned for logging.
func (a *App) renderFrame() error {
	frame, readErr := a.camera.ReadFrame()
	if readErr == nil {
		defer frame.Close()
		a.frames.Store(frame)
	} else {
		frame = nil
	}

	canvas := a.renderer.Render(frame, a.session.Snapshot())
	defer canvas.Close()

	if err := a.recorder.Write(&canvas); err != nil {
		log.Printf("Error recording frame: %v", err)
	}
	a.canvas.Store(&canvas)

	return readErr
}

// observe feeds one poll result into the gesture engine. Results arriving
// while tracking is disabled count as no hand.
func (a *App) observe(tips *detector.Fingertips) {
	a.observeMu.Lock()
	if !a.IsEnabled() {
		tips = nil
	}
	ev := a.session.Observe(tips)
	a.observeMu.Unlock()

	a.emit(ev)
}
