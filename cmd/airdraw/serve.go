package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"gocv.io/x/gocv"

	"github.com/ayusman/airdraw/internal/app"
	"github.com/ayusman/airdraw/internal/discovery"
	"github.com/ayusman/airdraw/internal/server"
	"github.com/ayusman/airdraw/internal/sketch"
	"github.com/ayusman/airdraw/internal/tray"
)

// serveOptions holds the flags of the serve command.
type serveOptions struct {
	Addr         string
	CameraID     int
	FPS          int
	PollInterval time.Duration
	NoMirror     bool
	WebDir       string
	RecordDir    string
	Tray         bool
	Window       bool
	Advertise    bool
}

var serveOpts serveOptions

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the camera, the gesture engine and the web canvas",
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveOpts.Tray && serveOpts.Window {
			return errors.New("--tray and --window cannot be used together")
		}
		return runServe(cmd.Context(), serveOpts)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveOpts.Addr, "addr", "a", ":8080", "HTTP listen address")
	serveCmd.Flags().IntVarP(&serveOpts.CameraID, "camera", "c", 0, "Camera device ID")
	serveCmd.Flags().IntVar(&serveOpts.FPS, "fps", 30, "Render and recording frame rate")
	serveCmd.Flags().DurationVarP(&serveOpts.PollInterval, "poll-interval", "p", 100*time.Millisecond, "Time between hand detection polls")
	serveCmd.Flags().BoolVar(&serveOpts.NoMirror, "no-mirror", false, "Do not mirror the camera horizontally")
	serveCmd.Flags().StringVar(&serveOpts.WebDir, "web", "", "Static web directory (default: search web, ../web, ~/.airdraw/web)")
	serveCmd.Flags().StringVar(&serveOpts.RecordDir, "record-dir", ".", "Directory for canvas recordings")
	serveCmd.Flags().BoolVar(&serveOpts.Tray, "tray", false, "Show a system tray menu")
	serveCmd.Flags().BoolVar(&serveOpts.Window, "window", false, "Show a local preview window (keys: space colour, u undo, c clear, r record, b camera, q quit)")
	serveCmd.Flags().BoolVar(&serveOpts.Advertise, "advertise", false, "Announce the canvas on the local network over mDNS")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context, opts serveOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg := app.DefaultConfig()
	cfg.Store = DB
	cfg.CameraID = opts.CameraID
	cfg.FPS = opts.FPS
	cfg.PollInterval = opts.PollInterval
	cfg.Mirror = !opts.NoMirror
	cfg.RecordDir = opts.RecordDir

	a := app.New(cfg)
	if err := a.LoadSettings(); err != nil {
		log.Printf("Failed to load settings: %v", err)
	}

	webDir := opts.WebDir
	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     DB,
		Studio:    a,
		Canvas:    a.Canvas(),
		RecordDir: opts.RecordDir,
	})
	defer srv.Close()

	a.OnEvent(srv.Notify)
	a.OnEvent(logEvent(a))

	if err := a.Start(); err != nil {
		return fmt.Errorf("failed to start camera: %w", err)
	}
	defer func() {
		if err := a.SaveSettings(); err != nil {
			log.Printf("Failed to save settings: %v", err)
		}
		a.Stop()
	}()

	httpSrv := &http.Server{Addr: opts.Addr, Handler: srv}
	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			cancel()
		}
	}()
	fmt.Printf("Starting server on %s\n", opts.Addr)
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown: %v", err)
		}
	}()

	if opts.Advertise {
		port, err := discovery.ListenPort(opts.Addr)
		if err != nil {
			return err
		}
		mdnsSrv, err := discovery.Advertise(port, "airdraw", "v"+Version)
		if err != nil {
			log.Printf("mDNS advertising disabled: %v", err)
		} else {
			defer mdnsSrv.Shutdown()
			fmt.Printf("Advertising %s on port %d\n", discovery.ServiceType, port)
		}
	}

	switch {
	case opts.Tray:
		runTray(ctx, cancel, a, canvasURL(opts.Addr))
	case opts.Window:
		runWindow(ctx, a)
	default:
		<-ctx.Done()
	}

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	default:
		return nil
	}
}

// logEvent logs completed strokes and discrete gestures.
func logEvent(a *app.App) func(sketch.Event) {
	return func(ev sketch.Event) {
		if ev.Has(sketch.StrokeCommitted) {
			log.Printf("Stroke committed (%d on canvas)", len(a.Session().Paths()))
		}
		if ev.Has(sketch.ColorChanged) {
			log.Printf("Colour changed to %s", sketch.Hex(a.Session().Color()))
		}
		if ev.Has(sketch.Undone) {
			log.Printf("Undo (%d on canvas)", len(a.Session().Paths()))
		}
		if ev.Has(sketch.Cleared) {
			log.Println("Canvas cleared")
		}
	}
}

// runTray shows the tray menu until it is quit or ctx is cancelled.
func runTray(ctx context.Context, cancel context.CancelFunc, a *app.App, url string) {
	t := tray.New()
	t.SetColor(sketch.Hex(a.Session().Color()))
	t.SetCameraVisible(a.CameraVisible())

	t.OnToggle(a.SetEnabled)
	t.OnUndo(func() { a.Undo() })
	t.OnClear(a.Clear)
	t.OnCamera(a.SetCameraVisible)
	t.OnRecord(func() bool {
		recording, path, err := a.ToggleRecording()
		if err != nil {
			log.Printf("Recording failed: %v", err)
		} else if !recording {
			fmt.Printf("Recording saved to %s\n", path)
		}
		return recording
	})
	t.OnOpen(func() {
		if err := openBrowser(url); err != nil {
			log.Printf("Failed to open browser: %v", err)
		}
	})
	t.OnQuit(cancel)

	a.OnEvent(func(ev sketch.Event) {
		if ev.Has(sketch.ColorChanged) {
			t.SetColor(sketch.Hex(a.Session().Color()))
		}
	})

	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()
}

// runWindow shows the rendered canvas in a local window until it is closed,
// q or Esc is pressed, or ctx is cancelled.
func runWindow(ctx context.Context, a *app.App) {
	win := gocv.NewWindow("airdraw")
	defer win.Close()

	ticker := time.NewTicker(time.Second / 30)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if frame, err := a.Canvas().ReadFrame(); err == nil {
			win.IMShow(*frame)
			frame.Close()
		}

		switch win.WaitKey(1) {
		case 'q', 27:
			return
		case ' ':
			a.CycleColor()
		case 'u':
			a.Undo()
		case 'c':
			a.Clear()
		case 'b':
			a.SetCameraVisible(!a.CameraVisible())
		case 'r':
			if _, path, err := a.ToggleRecording(); err != nil {
				log.Printf("Recording failed: %v", err)
			} else if !a.Recording() {
				fmt.Printf("Recording saved to %s\n", path)
			}
		}

		if !win.IsOpen() {
			return
		}
	}
}

// canvasURL turns a listen address into a browsable URL.
func canvasURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr + "/"
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.airdraw/web.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	dir, err := dataDir()
	if err != nil {
		return ""
	}
	homeWeb := filepath.Join(dir, "web")
	if info, err := os.Stat(homeWeb); err == nil && info.IsDir() {
		return homeWeb
	}
	return ""
}
