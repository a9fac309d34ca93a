package server

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/transcode"
	"github.com/ayusman/mudra/internal/wire"
)

const (
	writeWait      = 5 * time.Second
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// FrameRecorder stores raw link messages.
type FrameRecorder interface {
	RecordFrame(payload string, depth float64)
}

// LinkConfig configures a LinkHandler. Recorder and Metrics are optional.
type LinkConfig struct {
	Transcoder *transcode.Transcoder
	Sink       FrameSink
	Recorder   FrameRecorder
	Metrics    *metrics.Metrics
	Log        zerolog.Logger
}

// LinkHandler is the receiver end of the peer link. Every text message from a
// sender is one wire payload; it is decoded, mapped to world space and
// offered to the sink.
type LinkHandler struct {
	config LinkConfig
	peers  map[*websocket.Conn]string
	mu     sync.RWMutex
}

// NewLinkHandler creates a new LinkHandler.
func NewLinkHandler(config LinkConfig) *LinkHandler {
	if config.Transcoder == nil {
		config.Transcoder = transcode.New(transcode.DefaultConfig())
	}
	return &LinkHandler{
		config: config,
		peers:  make(map[*websocket.Conn]string),
	}
}

// ServeHTTP handles WebSocket upgrade requests from senders.
func (h *LinkHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.config.Log.Warn().Err(err).Msg("link upgrade failed")
		return
	}
	defer conn.Close()

	peer := r.RemoteAddr
	log := h.config.Log.With().Str("peer", peer).Logger()

	h.mu.Lock()
	h.peers[conn] = peer
	h.mu.Unlock()
	h.setPeerGauge()
	log.Info().Msg("sender connected")

	defer func() {
		h.mu.Lock()
		delete(h.peers, conn)
		h.mu.Unlock()
		h.setPeerGauge()
		log.Info().Msg("sender disconnected")
	}()

	conn.SetReadLimit(maxMessageSize)
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Msg("link read failed")
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		h.Receive(data)
	}
}

// Receive handles one wire message. Anything that does not decode becomes an
// empty frame so that classifiers see the loss.
func (h *LinkHandler) Receive(data []byte) {
	m := h.config.Metrics
	if m != nil {
		m.FramesReceived.Inc()
	}

	f2d, depth, err := wire.Unmarshal(data)
	if err != nil && !errors.Is(err, wire.ErrNoData) {
		if m != nil {
			m.DecodeFailures.Inc()
		}
		h.config.Log.Debug().Err(err).Int("bytes", len(data)).Msg("dropping undecodable frame")
	}

	if h.config.Recorder != nil {
		h.config.Recorder.RecordFrame(string(data), depth)
	}
	if h.config.Sink != nil {
		h.config.Sink.Offer(h.config.Transcoder.ToWorld(f2d, depth))
	}
}

// Peers returns the number of connected senders.
func (h *LinkHandler) Peers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

func (h *LinkHandler) setPeerGauge() {
	if h.config.Metrics != nil {
		h.config.Metrics.Peers.Set(float64(h.Peers()))
	}
}

// CloseAll disconnects every sender.
func (h *LinkHandler) CloseAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.peers {
		closeConn(conn)
	}
}

func closeConn(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = conn.Close()
}
