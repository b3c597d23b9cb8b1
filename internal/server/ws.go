package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/repcount/internal/exercise"
	"github.com/ayusman/repcount/internal/metrics"
	"github.com/ayusman/repcount/internal/pose"
	"github.com/ayusman/repcount/internal/session"
)

const (
	writeWait = 5 * time.Second
	// eventBuffer is the number of events queued per client before new
	// ones are dropped for that client.
	eventBuffer = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// sampleReply is the message sent back for every received sample.
type sampleReply struct {
	exercise.Outcome
	Skipped string `json:"skipped,omitempty"`
}

type errorReply struct {
	Error string `json:"error"`
}

// SamplesHandler ingests pose samples over WebSocket, one JSON sample per
// text message, and answers each with its outcome.
type SamplesHandler struct {
	session *session.Session
	metrics *metrics.Manager
	log     *log.Entry
}

// NewSamplesHandler creates a SamplesHandler feeding s.
func NewSamplesHandler(s *session.Session, m *metrics.Manager, entry *log.Entry) *SamplesHandler {
	return &SamplesHandler{session: s, metrics: m, log: entry}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *SamplesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	gauge := h.metrics.GaugeConnections.WithLabelValues("samples")
	gauge.Inc()
	defer gauge.Dec()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warnf("samples connection closed: %v", err)
			}
			return
		}

		var reply interface{}
		sample, err := pose.UnmarshalSample(data)
		if err != nil {
			h.metrics.CounterMessageErrors.Inc()
			reply = errorReply{Error: err.Error()}
		} else {
			out := h.session.Process(sample)
			rep := sampleReply{Outcome: out}
			if out.Skipped != nil {
				rep.Skipped = out.Skipped.Error()
			}
			reply = rep
		}

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(reply); err != nil {
			h.log.Warnf("samples write: %v", err)
			return
		}
	}
}

// EventsHandler pushes every session event to all connected clients.
type EventsHandler struct {
	metrics     *metrics.Manager
	log         *log.Entry
	unsubscribe func()

	mu      sync.RWMutex
	clients map[*websocket.Conn]chan []byte
	closed  bool
}

// NewEventsHandler creates an EventsHandler subscribed to s.
func NewEventsHandler(s *session.Session, m *metrics.Manager, entry *log.Entry) *EventsHandler {
	h := &EventsHandler{
		metrics: m,
		log:     entry,
		clients: make(map[*websocket.Conn]chan []byte),
	}
	h.unsubscribe = s.Subscribe(h.broadcast)
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorf("websocket upgrade error: %v", err)
		return
	}

	send := make(chan []byte, eventBuffer)
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[conn] = send
	h.mu.Unlock()

	gauge := h.metrics.GaugeConnections.WithLabelValues("events")
	gauge.Inc()
	defer gauge.Dec()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Keep connection alive by reading messages
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		h.remove(conn)
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-send:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// broadcast queues ev for every client. Slow clients miss events rather
// than stall the session.
func (h *EventsHandler) broadcast(ev session.Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		h.log.Errorf("marshal event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, send := range h.clients {
		select {
		case send <- msg:
		default:
			h.log.Warn("event client too slow, dropping event")
		}
	}
}

func (h *EventsHandler) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if send, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(send)
	}
}

// Clients returns the number of connected clients.
func (h *EventsHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close unsubscribes from the session and disconnects every client.
func (h *EventsHandler) Close() {
	h.unsubscribe()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for conn, send := range h.clients {
		delete(h.clients, conn)
		close(send)
	}
}
