package server

import (
	"sync"

	"github.com/ayusman/mudra/internal/hand"
)

// FrameSink receives decoded world-space frames from the link.
type FrameSink interface {
	Offer(f hand.Frame)
}

// FrameQueue hands frames to a single consumer. It holds at most one pending
// frame: a newer frame replaces one the consumer has not taken yet.
type FrameQueue struct {
	mu     sync.Mutex
	ch     chan hand.Frame
	onDrop func()
}

// NewFrameQueue creates an empty queue. onDrop, if not nil, is called for
// every frame that is replaced before being consumed.
func NewFrameQueue(onDrop func()) *FrameQueue {
	return &FrameQueue{ch: make(chan hand.Frame, 1), onDrop: onDrop}
}

// Offer enqueues f without blocking.
func (q *FrameQueue) Offer(f hand.Frame) {
	q.mu.Lock()
	defer q.mu.Unlock()

	select {
	case q.ch <- f:
		return
	default:
	}

	select {
	case <-q.ch:
		if q.onDrop != nil {
			q.onDrop()
		}
	default:
	}

	select {
	case q.ch <- f:
	default:
	}
}

// Frames is the consumer side of the queue.
func (q *FrameQueue) Frames() <-chan hand.Frame {
	return q.ch
}

// Latest keeps only the most recent frame for a polling consumer.
type Latest struct {
	mu    sync.RWMutex
	frame hand.Frame
	seq   uint64
}

// Offer replaces the held frame.
func (l *Latest) Offer(f hand.Frame) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frame = f
	l.seq++
}

// Load returns the held frame and how many frames have been offered so far.
// Before the first frame it returns an empty frame and zero.
func (l *Latest) Load() (hand.Frame, uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.frame, l.seq
}
