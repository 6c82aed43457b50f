package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/airdraw/internal/server/api"
	"github.com/ayusman/airdraw/internal/sketch"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

const (
	broadcastInterval = 66 * time.Millisecond
	writeTimeout      = time.Second
)

// EventMessage is one event feed update.
type EventMessage struct {
	State     api.State `json:"state"`
	Events    []string  `json:"events,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// EventsHandler broadcasts the cursor, canvas state and engine events to
// WebSocket clients.
type EventsHandler struct {
	studio  api.Studio
	clients map[*websocket.Conn]bool
	pending sketch.Event
	mu      sync.Mutex

	stopCh    chan struct{}
	closeOnce sync.Once
}

// NewEventsHandler creates an EventsHandler and starts its broadcast loop.
func NewEventsHandler(st api.Studio) *EventsHandler {
	h := &EventsHandler{
		studio:  st,
		clients: make(map[*websocket.Conn]bool),
		stopCh:  make(chan struct{}),
	}
	go h.broadcast()
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Notify adds ev to the events sent with the next broadcast.
func (h *EventsHandler) Notify(ev sketch.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending |= ev
}

// Clients returns the number of connected clients.
func (h *EventsHandler) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close stops the broadcast loop.
func (h *EventsHandler) Close() {
	h.closeOnce.Do(func() { close(h.stopCh) })
}

func (h *EventsHandler) broadcast() {
	ticker := time.NewTicker(broadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
		}

		h.mu.Lock()
		if len(h.clients) == 0 {
			h.mu.Unlock()
			continue
		}
		events := h.pending
		h.pending = 0
		h.mu.Unlock()

		msg := EventMessage{
			State:     api.CurrentState(h.studio),
			Timestamp: time.Now().UnixMilli(),
		}
		if events != 0 {
			msg.Events = strings.Split(events.String(), "|")
		}

		data, err := json.Marshal(msg)
		if err != nil {
			log.Printf("encode event message: %v", err)
			continue
		}

		h.mu.Lock()
		for conn := range h.clients {
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				conn.Close()
				delete(h.clients, conn)
			}
		}
		h.mu.Unlock()
	}
}
