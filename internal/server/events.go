package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/metrics"
)

const subscriberBuffer = 64

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// EventHub broadcasts gesture events to websocket subscribers as JSON text
// messages. A subscriber that falls behind loses events rather than slowing
// the dispatcher.
type EventHub struct {
	log     zerolog.Logger
	metrics *metrics.Metrics
	clients map[*subscriber]struct{}
	mu      sync.RWMutex
}

// NewEventHub creates an EventHub. m may be nil.
func NewEventHub(log zerolog.Logger, m *metrics.Metrics) *EventHub {
	return &EventHub{
		log:     log,
		metrics: m,
		clients: make(map[*subscriber]struct{}),
	}
}

// ServeHTTP upgrades a subscriber and streams events until it disconnects.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("event feed upgrade failed")
		return
	}

	sub := &subscriber{conn: conn, send: make(chan []byte, subscriberBuffer)}
	h.mu.Lock()
	h.clients[sub] = struct{}{}
	h.mu.Unlock()
	h.setGauge()

	done := make(chan struct{})
	go h.writePump(sub, done)

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, sub)
	close(sub.send)
	h.mu.Unlock()
	h.setGauge()
	<-done
	conn.Close()
}

func (h *EventHub) writePump(sub *subscriber, done chan<- struct{}) {
	defer close(done)
	for msg := range sub.send {
		_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := sub.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Debug().Err(err).Msg("event feed write failed")
			_ = sub.conn.Close()
			// Drain so the broadcaster never blocks on a dead subscriber.
			for range sub.send {
			}
			return
		}
	}
}

// HandleGesture implements gesture.Handler.
func (h *EventHub) HandleGesture(e gesture.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.clients) == 0 {
		return
	}

	msg, err := json.Marshal(e)
	if err != nil {
		h.log.Error().Err(err).Uint64("id", e.ID).Msg("failed to encode gesture event")
		return
	}

	for sub := range h.clients {
		select {
		case sub.send <- msg:
		default:
			h.log.Debug().Uint64("id", e.ID).Msg("event subscriber is behind, dropping event")
		}
	}
}

// Subscribers returns the number of connected subscribers.
func (h *EventHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *EventHub) setGauge() {
	if h.metrics != nil {
		h.metrics.Subscribers.Set(float64(h.Subscribers()))
	}
}

// CloseAll disconnects every subscriber.
func (h *EventHub) CloseAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.clients {
		_ = sub.conn.Close()
	}
}
