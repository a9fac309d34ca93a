package detector

import (
	"context"
	"fmt"
	"sync"

	"github.com/ayusman/mudra/internal/hand"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/wire"
)

// ReplayDetector plays back the wire frames of a recorded session. Hands are
// reported right then left; a lone hand takes the configured default side.
type ReplayDetector struct {
	mu     sync.Mutex
	frames []store.Frame
	pos    int
	loop   bool
}

// NewReplayDetector loads every frame of a session.
func NewReplayDetector(s *store.Store, sessionID string, loop bool) (*ReplayDetector, error) {
	if _, err := s.Sessions().GetByID(sessionID); err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	frames, err := s.Frames().ListBySession(sessionID, 0)
	if err != nil {
		return nil, fmt.Errorf("load frames: %w", err)
	}
	return &ReplayDetector{frames: frames, loop: loop}, nil
}

// Len returns the number of recorded frames.
func (r *ReplayDetector) Len() int {
	return len(r.frames)
}

// Detect decodes the next recorded frame.
func (r *ReplayDetector) Detect(ctx context.Context) (Detection, error) {
	if err := ctx.Err(); err != nil {
		return Detection{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pos >= len(r.frames) {
		if !r.loop || len(r.frames) == 0 {
			return Detection{}, ErrExhausted
		}
		r.pos = 0
	}
	rec := r.frames[r.pos]
	r.pos++

	frame, depth := wire.Decode(rec.Payload)
	d := Detection{Depth: depth}
	for s := hand.Right; int(s) < hand.NumSides; s++ {
		if h := frame.Hand(s); h != nil {
			d.Hands = append(d.Hands, h)
		}
	}
	return d, nil
}

// Close is a no-op.
func (r *ReplayDetector) Close() error {
	return nil
}
