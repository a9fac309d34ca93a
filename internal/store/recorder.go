package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/gesture"
)

// Recorder writes one live session: every wire message and every gesture
// event. Write failures are logged and do not stop the session.
type Recorder struct {
	store   *Store
	session *Session
	log     zerolog.Logger

	mu  sync.Mutex
	seq int
}

// NewRecorder starts a new session.
func NewRecorder(s *Store, role Role, peer string, log zerolog.Logger) (*Recorder, error) {
	sess := &Session{
		ID:   uuid.New().String(),
		Role: role,
		Peer: peer,
	}
	if err := s.Sessions().Create(sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &Recorder{
		store:   s,
		session: sess,
		log:     log.With().Str("session", sess.ID).Logger(),
	}, nil
}

// SessionID returns the recorded session's ID.
func (r *Recorder) SessionID() string {
	return r.session.ID
}

// RecordFrame appends a raw wire message.
func (r *Recorder) RecordFrame(payload string, depth float64) {
	r.mu.Lock()
	r.seq++
	seq := r.seq
	r.mu.Unlock()

	f := &Frame{SessionID: r.session.ID, Seq: seq, Payload: payload, ZDepth: depth}
	if err := r.store.Frames().Append(f); err != nil {
		r.log.Warn().Err(err).Int("seq", seq).Msg("failed to record frame")
	}
}

// HandleGesture appends a gesture event.
func (r *Recorder) HandleGesture(e gesture.Event) {
	rec, err := NewEvent(r.session.ID, e)
	if err == nil {
		err = r.store.Events().Append(rec)
	}
	if err != nil {
		r.log.Warn().Err(err).Uint64("event", e.ID).Msg("failed to record gesture event")
	}
}

// Close marks the session ended.
func (r *Recorder) Close() error {
	return r.store.Sessions().End(r.session.ID, time.Now())
}
