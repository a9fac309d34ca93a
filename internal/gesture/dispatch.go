package gesture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/hand"
)

// Counter receives a tally of emitted events.
type Counter interface {
	CountGesture(k Kind, t EventType)
}

// Timer receives the duration of each Dispatch.
type Timer interface {
	ObserveClassify(d time.Duration)
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the dispatcher's logger.
func WithLogger(l zerolog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.log = l }
}

// WithCounter sets the event counter.
func WithCounter(c Counter) DispatcherOption {
	return func(d *Dispatcher) { d.counter = c }
}

// WithTimer sets the dispatch timer.
func WithTimer(t Timer) DispatcherOption {
	return func(d *Dispatcher) { d.timer = t }
}

// Dispatcher feeds frames to its classifiers in registration order and
// forwards their events to a handler. All classifiers share one id sequence.
// Handlers must not call back into the dispatcher.
type Dispatcher struct {
	mu          sync.Mutex
	classifiers []Classifier
	handler     Handler
	seq         *Sequence
	log         zerolog.Logger
	counter     Counter
	timer       Timer
}

// NewDispatcher creates a Dispatcher delivering events to h.
func NewDispatcher(h Handler, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		handler: h,
		seq:     &Sequence{},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register appends classifiers and binds them to the dispatcher.
func (d *Dispatcher) Register(cs ...Classifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range cs {
		if c == nil {
			continue
		}
		c.bind(d, d.seq)
		d.classifiers = append(d.classifiers, c)
	}
}

// Classifiers returns the registered classifiers in order.
func (d *Dispatcher) Classifiers() []Classifier {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Classifier, len(d.classifiers))
	copy(out, d.classifiers)
	return out
}

// HandleGesture logs, counts and forwards a classifier's event.
func (d *Dispatcher) HandleGesture(e Event) {
	d.log.Debug().
		Uint64("id", e.ID).
		Str("gesture", string(e.Gesture)).
		Stringer("type", e.Type).
		Int("trigger", e.Trigger).
		Msg("gesture event")
	if d.counter != nil {
		d.counter.CountGesture(e.Gesture, e.Type)
	}
	if d.handler != nil {
		d.handler.HandleGesture(e)
	}
}

// Dispatch runs every classifier on the frame, one after another.
func (d *Dispatcher) Dispatch(f hand.Frame) {
	d.mu.Lock()
	defer d.mu.Unlock()
	start := time.Now()
	for _, c := range d.classifiers {
		c.CheckGesture(f)
	}
	if d.timer != nil {
		d.timer.ObserveClassify(time.Since(start))
	}
}

// Reset resets every classifier.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range d.classifiers {
		c.Reset()
	}
}

// Run dispatches frames until ctx is done or frames is closed.
func (d *Dispatcher) Run(ctx context.Context, frames <-chan hand.Frame) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f, ok := <-frames:
			if !ok {
				return nil
			}
			d.Dispatch(f)
		}
	}
}

// NewClassifier builds the classifier for kind. nearThreshold applies to Draw.
func NewClassifier(kind Kind, nearThreshold float64, opts ...Option) (Classifier, error) {
	switch kind {
	case KindShaka:
		return NewShaka(opts...), nil
	case KindCursor:
		return NewCursor(opts...), nil
	case KindDraw:
		return NewDraw(nearThreshold, opts...), nil
	default:
		return nil, fmt.Errorf("unknown gesture kind %q", kind)
	}
}
