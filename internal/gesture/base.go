// Package gesture recognizes hand gestures from tracking frames with rule
// based classifiers and reports them as events.
package gesture

import (
	"math"
	"time"

	"github.com/golang/geo/r3"

	"github.com/ayusman/mudra/internal/hand"
)

// DefaultDirectionRatio is how many times larger the dominant axis of a
// pointing vector must be than the other axis.
const DefaultDirectionRatio = 5.0

// Classifier is a stateful gesture recognizer. CheckGesture consumes one
// frame and may emit events to the bound handler. Every classifier embeds
// Base, which supplies the rest of the interface; a custom gesture built
// outside this package embeds a Base from NewBase and calls Observe,
// SetState and Emit from its CheckGesture.
type Classifier interface {
	Kind() Kind
	CheckGesture(f hand.Frame)
	State() State
	Reset()

	bind(h Handler, seq *Sequence)
}

// Option configures a classifier.
type Option func(*Base)

// WithHandler sets the event handler.
func WithHandler(h Handler) Option {
	return func(b *Base) { b.handler = h }
}

// WithSide sets the hand the classifier watches when a frame holds both hands.
func WithSide(side hand.Side) Option {
	return func(b *Base) { b.side = side }
}

// WithDirectionRatio overrides DefaultDirectionRatio.
func WithDirectionRatio(r float64) Option {
	return func(b *Base) {
		if r > 0 {
			b.ratio = r
		}
	}
}

// WithStateHook registers fn to be called on every state transition.
func WithStateHook(fn func(k Kind, from, to State)) Option {
	return func(b *Base) { b.onState = fn }
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(b *Base) {
		if now != nil {
			b.now = now
		}
	}
}

// Base holds the state shared by every classifier: the current frame, a
// saved snapshot of an earlier frame, the state machine and event emission.
type Base struct {
	kind    Kind
	state   State
	frame   hand.Frame
	last    hand.Frame
	side    hand.Side
	ratio   float64
	handler Handler
	seq     *Sequence
	onState func(k Kind, from, to State)
	now     func() time.Time
}

// NewBase returns a Base for a classifier of the given kind, watching the
// right hand.
func NewBase(kind Kind, opts ...Option) Base {
	b := Base{
		kind:  kind,
		side:  hand.Right,
		ratio: DefaultDirectionRatio,
		seq:   &Sequence{},
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *Base) bind(h Handler, seq *Sequence) {
	b.handler = h
	if seq != nil {
		b.seq = seq
	}
}

// Kind returns the classifier tag.
func (b *Base) Kind() Kind { return b.kind }

// State returns the current state.
func (b *Base) State() State { return b.state }

// Side returns the watched hand.
func (b *Base) Side() hand.Side { return b.side }

// Reset returns to StateUnknown and drops the current and saved frames.
func (b *Base) Reset() {
	b.SetState(StateUnknown)
	b.frame = hand.Frame{}
	b.last = hand.Frame{}
}

// SetState moves the state machine to s and reports the transition to the
// state hook. Setting the current state is a no-op.
func (b *Base) SetState(s State) {
	if s == b.state {
		return
	}
	from := b.state
	b.state = s
	if b.onState != nil {
		b.onState(b.kind, from, s)
	}
}

// Observe makes f the frame the predicates and Point read from. Call it
// first in CheckGesture.
func (b *Base) Observe(f hand.Frame) {
	b.frame = f
}

// Frame returns the frame being classified.
func (b *Base) Frame() hand.Frame { return b.frame }

// SaveFrame keeps a copy of the current frame for later comparison.
func (b *Base) SaveFrame() {
	b.last = b.frame.Clone()
}

// ClearSaved drops the saved frame.
func (b *Base) ClearSaved() {
	b.last = hand.Frame{}
}

func lookup(f hand.Frame, side hand.Side, fg hand.Finger, j hand.Joint) *r3.Vector {
	h := f.Hand(side)
	if only, _, ok := f.Only(); ok {
		h = only
	}
	v, ok := h.Get(fg, j)
	if !ok {
		return nil
	}
	return &v
}

// Point returns a copy of the joint in the current frame, or nil when absent.
// A frame holding a single hand answers for either side.
func (b *Base) Point(side hand.Side, fg hand.Finger, j hand.Joint) *r3.Vector {
	return lookup(b.frame, side, fg, j)
}

// Joint is Point in comma-ok form.
func (b *Base) Joint(side hand.Side, fg hand.Finger, j hand.Joint) (r3.Vector, bool) {
	p := b.Point(side, fg, j)
	if p == nil {
		return r3.Vector{}, false
	}
	return *p, true
}

// LastPoint returns the joint from the saved frame, or nil.
func (b *Base) LastPoint(side hand.Side, fg hand.Finger, j hand.Joint) *r3.Vector {
	return lookup(b.last, side, fg, j)
}

func (b *Base) fingerSpan(side hand.Side, fg hand.Finger) (pip, tip float64, ok bool) {
	w := b.Point(side, hand.Wrist, hand.Tip)
	p := b.Point(side, fg, hand.PIP)
	t := b.Point(side, fg, hand.Tip)
	if w == nil || p == nil || t == nil {
		return 0, 0, false
	}
	return distance2D(*w, *p), distance2D(*w, *t), true
}

// IsStraight reports whether the fingertip is farther from the wrist than
// the pip joint, measured on the XY plane.
func (b *Base) IsStraight(side hand.Side, fg hand.Finger) bool {
	pip, tip, ok := b.fingerSpan(side, fg)
	return ok && pip < tip
}

// IsBend reports whether the fingertip is closer to the wrist than the pip joint.
func (b *Base) IsBend(side hand.Side, fg hand.Finger) bool {
	pip, tip, ok := b.fingerSpan(side, fg)
	return ok && pip > tip
}

// PointingVector returns tip − mcp on the XY plane, or zero when either is absent.
func (b *Base) PointingVector(side hand.Side, fg hand.Finger) (dx, dy float64) {
	t := b.Point(side, fg, hand.Tip)
	m := b.Point(side, fg, hand.MCP)
	if t == nil || m == nil {
		return 0, 0
	}
	return t.X - m.X, t.Y - m.Y
}

// IsPointingUp reports whether the finger points up by a clear margin.
func (b *Base) IsPointingUp(side hand.Side, fg hand.Finger) bool {
	dx, dy := b.PointingVector(side, fg)
	return dy > 0 && math.Abs(dy) > math.Abs(dx)*b.ratio
}

// IsPointingDown reports whether the finger points down by a clear margin.
func (b *Base) IsPointingDown(side hand.Side, fg hand.Finger) bool {
	dx, dy := b.PointingVector(side, fg)
	return dy < 0 && math.Abs(dy) > math.Abs(dx)*b.ratio
}

// IsPointingRight reports whether the finger points right by a clear margin.
func (b *Base) IsPointingRight(side hand.Side, fg hand.Finger) bool {
	dx, dy := b.PointingVector(side, fg)
	return dx > 0 && math.Abs(dx) > math.Abs(dy)*b.ratio
}

// IsPointingLeft reports whether the finger points left by a clear margin.
func (b *Base) IsPointingLeft(side hand.Side, fg hand.Finger) bool {
	dx, dy := b.PointingVector(side, fg)
	return dx < 0 && math.Abs(dx) > math.Abs(dy)*b.ratio
}

// Emit sends an event to the bound handler. Without a handler it does
// nothing.
func (b *Base) Emit(t EventType, trigger int, loc Location) {
	if b.handler == nil {
		return
	}
	if b.seq == nil {
		b.seq = &Sequence{}
	}
	now := time.Now
	if b.now != nil {
		now = b.now
	}
	b.handler.HandleGesture(Event{
		ID:       b.seq.Next(),
		Time:     now(),
		Gesture:  b.kind,
		Type:     t,
		Trigger:  trigger,
		Location: loc,
	})
}

// lost reports whether the frame carries no hand at all.
func (b *Base) lost() bool {
	return b.frame.Empty()
}

// cancel emits Canceled and resets.
func (b *Base) cancel() {
	b.Emit(Canceled, NoTrigger, nil)
	b.Reset()
}
