package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"image/color"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"

	"github.com/ayusman/airdraw/internal/capture"
	"github.com/ayusman/airdraw/internal/detector"
	"github.com/ayusman/airdraw/internal/export"
	"github.com/ayusman/airdraw/internal/sketch"
	"github.com/ayusman/airdraw/internal/store"
)

type testStudio struct {
	session *sketch.Session
	mu      sync.Mutex
	camera  bool
	rec     bool
	notify  func(sketch.Event)
}

func newTestStudio() *testStudio {
	return &testStudio{session: sketch.NewSession(sketch.DefaultConfig()), camera: true}
}

func (s *testStudio) emit(ev sketch.Event) {
	if s.notify != nil && ev != 0 {
		s.notify(ev)
	}
}

func (s *testStudio) Undo() bool {
	undone := s.session.Undo()
	if undone {
		s.emit(sketch.Undone)
	}
	return undone
}

func (s *testStudio) Clear() { s.emit(s.session.Clear()) }

func (s *testStudio) CycleColor() color.RGBA {
	c := s.session.CycleColor()
	s.emit(sketch.ColorChanged)
	return c
}

func (s *testStudio) SetColorIndex(i int) color.RGBA {
	c := s.session.SetColorIndex(i)
	s.emit(sketch.ColorChanged)
	return c
}

func (s *testStudio) Session() *sketch.Session { return s.session }
func (s *testStudio) CanvasSize() (int, int)   { return 640, 480 }

func (s *testStudio) SetCameraVisible(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.camera = v
}

func (s *testStudio) CameraVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.camera
}

func (s *testStudio) ToggleRecording() (bool, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = !s.rec
	return s.rec, "airdraw_test.webm", nil
}

func (s *testStudio) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec
}

// pinch feeds one drawing tick at (x, y).
func pinch(s *sketch.Session, x, y float64) sketch.Event {
	p := detector.Point{X: x, Y: y}
	return s.Observe(&detector.Fingertips{
		Thumb:  p,
		Index:  p,
		Middle: detector.Point{X: x + 100, Y: y},
		Ring:   detector.Point{X: x + 200, Y: y},
		Pinky:  detector.Point{X: x + 300, Y: y},
	})
}

func TestAPI_DrawingWorkflow(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	studio := newTestStudio()
	srv := New(Config{Store: s, Studio: studio})
	defer srv.Close()
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// 1. Draw two strokes
	for _, y := range []float64{100, 200} {
		pinch(studio.session, 50, y)
		pinch(studio.session, 150, y)
		studio.session.Observe(nil)
	}

	// 2. Save the canvas
	resp, err := client.Post(ts.URL+"/api/drawings", "application/json", bytes.NewBufferString(`{"name": "lines"}`))
	if err != nil {
		t.Fatalf("POST /api/drawings error = %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	var created struct {
		ID      string `json:"id"`
		Strokes int    `json:"strokes"`
	}
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()

	if created.Strokes != 2 {
		t.Errorf("saved strokes = %d, want 2", created.Strokes)
	}

	// 3. Undo both and confirm the canvas is empty
	for i := 0; i < 2; i++ {
		resp, _ = client.Post(ts.URL+"/api/undo", "application/json", nil)
		resp.Body.Close()
	}
	if n := len(studio.session.Paths()); n != 0 {
		t.Fatalf("paths after undo = %d, want 0", n)
	}

	// 4. Load the saved drawing back
	resp, _ = client.Post(ts.URL+"/api/drawings/"+created.ID+"/load", "application/json", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("load status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	resp.Body.Close()

	// 5. Export matches what was drawn
	resp, _ = client.Get(ts.URL + "/api/export.svg")
	doc, err := export.ParseSVG(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("ParseSVG() error = %v", err)
	}
	if len(doc.Strokes) != 2 {
		t.Fatalf("exported strokes = %d, want 2", len(doc.Strokes))
	}
	if p := doc.Strokes[1].Points[1]; p.X != 150 || p.Y != 200 {
		t.Errorf("last point = (%v, %v), want (150, 200)", p.X, p.Y)
	}
}

func TestAPI_HealthCheck(t *testing.T) {
	srv := New(Config{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var health struct {
		Status string `json:"status"`
		Uptime string `json:"uptime"`
	}
	json.NewDecoder(resp.Body).Decode(&health)

	if health.Status != "ok" {
		t.Errorf("status = %s, want ok", health.Status)
	}
}

func TestEvents_Broadcast(t *testing.T) {
	studio := newTestStudio()
	srv := New(Config{Studio: studio})
	defer srv.Close()
	ts := httptest.NewServer(srv)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	defer conn.Close()

	// Wait for the handler to register the client before notifying.
	deadline := time.Now().Add(2 * time.Second)
	for srv.events.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	srv.Notify(pinch(studio.session, 320, 240))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read error = %v", err)
		}
		var msg EventMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("invalid message: %v", err)
		}
		if len(msg.Events) == 0 {
			continue
		}

		if msg.Events[0] != "stroke-started" {
			t.Errorf("events = %v, want [stroke-started]", msg.Events)
		}
		if !msg.State.Drawing {
			t.Error("state should report drawing")
		}
		if msg.State.Cursor == nil || msg.State.Cursor.X != 320 {
			t.Errorf("cursor = %v, want x=320", msg.State.Cursor)
		}
		return
	}
}

func TestEvents_ControlActions(t *testing.T) {
	studio := newTestStudio()
	srv := New(Config{Studio: studio})
	defer srv.Close()
	studio.notify = srv.Notify
	ts := httptest.NewServer(srv)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for srv.events.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	tests := []struct {
		path string
		want string
	}{
		{"/api/clear", "cleared"},
		{"/api/color", "color-changed"},
	}
	for _, tt := range tests {
		resp, err := ts.Client().Post(ts.URL+tt.path, "application/json", nil)
		if err != nil {
			t.Fatalf("POST %s error = %v", tt.path, err)
		}
		resp.Body.Close()

		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				t.Fatalf("POST %s: no %s event: %v", tt.path, tt.want, err)
			}
			var msg EventMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Fatalf("invalid message: %v", err)
			}
			if len(msg.Events) == 0 {
				continue
			}
			if len(msg.Events) != 1 || msg.Events[0] != tt.want {
				t.Errorf("POST %s: events = %v, want [%s]", tt.path, msg.Events, tt.want)
			}
			break
		}
	}
}

func TestStream_ServesJPEGFrames(t *testing.T) {
	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), 48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()

	canvas := capture.NewFrameBuffer()
	defer canvas.Close()
	canvas.Store(&frame)

	srv := New(Config{Canvas: canvas})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/stream", nil)
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("GET /api/stream error = %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Fatalf("Content-Type = %s", ct)
	}

	r := bufio.NewReader(resp.Body)
	boundary, _ := r.ReadString('\n')
	partType, _ := r.ReadString('\n')
	if strings.TrimSpace(boundary) != "--frame" {
		t.Errorf("boundary line = %q", boundary)
	}
	if strings.TrimSpace(partType) != "Content-Type: image/jpeg" {
		t.Errorf("part header = %q", partType)
	}
}
