package gesture_test

import (
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/hand"
)

const kindPinch gesture.Kind = "pinch"

// pinch begins when the thumb and index tips touch and ends when they part.
type pinch struct {
	gesture.Base
}

func newPinch(opts ...gesture.Option) *pinch {
	return &pinch{Base: gesture.NewBase(kindPinch, opts...)}
}

func (p *pinch) CheckGesture(f hand.Frame) {
	p.Observe(f)

	side := p.Side()
	touching := gesture.IsNear2D(
		p.Point(side, hand.Thumb, hand.Tip),
		p.Point(side, hand.Index, hand.Tip),
		0.05,
	)
	switch p.State() {
	case gesture.StateUnknown:
		if touching {
			p.Emit(gesture.Began, gesture.NoTrigger, nil)
			p.SetState(gesture.StateWaitForRelease)
		}
	case gesture.StateWaitForRelease:
		if !touching {
			p.Emit(gesture.Ended, gesture.NoTrigger, nil)
			p.SetState(gesture.StateUnknown)
		}
	}
}

func pinchFrame(gap float64) hand.Frame {
	h := &hand.Hand{}
	h.Set(hand.Wrist, hand.Tip, r3.Vector{X: 0.5, Y: 0.2})
	h.Set(hand.Index, hand.Tip, r3.Vector{X: 0.5, Y: 0.5})
	h.Set(hand.Thumb, hand.Tip, r3.Vector{X: 0.5 - gap, Y: 0.5})

	var f hand.Frame
	f.Hands[hand.Right] = h
	return f
}

type collector struct {
	events []gesture.Event
}

func (c *collector) HandleGesture(e gesture.Event) { c.events = append(c.events, e) }

func TestCustomClassifier(t *testing.T) {
	t.Run("registered with a dispatcher", func(t *testing.T) {
		var transitions []gesture.State
		p := newPinch(gesture.WithStateHook(func(k gesture.Kind, _, to gesture.State) {
			assert.Equal(t, kindPinch, k)
			transitions = append(transitions, to)
		}))

		out := &collector{}
		d := gesture.NewDispatcher(out)
		d.Register(gesture.NewShaka(), p)

		for _, gap := range []float64{0.2, 0.01, 0.02, 0.2, 0.2} {
			d.Dispatch(pinchFrame(gap))
		}

		require.Len(t, out.events, 2)
		assert.Equal(t, kindPinch, out.events[0].Gesture)
		assert.Equal(t, gesture.Began, out.events[0].Type)
		assert.Equal(t, gesture.Ended, out.events[1].Type)
		assert.Equal(t, uint64(1), out.events[0].ID)
		assert.Equal(t, uint64(2), out.events[1].ID)
		assert.False(t, out.events[0].Time.IsZero())
		assert.Equal(t, []gesture.State{gesture.StateWaitForRelease, gesture.StateUnknown}, transitions)
		assert.Equal(t, gesture.StateUnknown, p.State())
	})

	t.Run("own handler and clock", func(t *testing.T) {
		at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		out := &collector{}
		p := newPinch(gesture.WithHandler(out), gesture.WithClock(func() time.Time { return at }))

		p.CheckGesture(pinchFrame(0))
		require.Len(t, out.events, 1)
		assert.Equal(t, at, out.events[0].Time)
		assert.Equal(t, kindPinch, p.Kind())
	})

	t.Run("zero value base", func(t *testing.T) {
		type bare struct {
			pinch
		}
		out := &collector{}
		d := gesture.NewDispatcher(out)
		b := &bare{}
		d.Register(b)

		require.NotPanics(t, func() {
			d.Dispatch(pinchFrame(0))
		})
		require.Len(t, out.events, 1)
		assert.Equal(t, gesture.Began, out.events[0].Type)
		assert.Equal(t, uint64(1), out.events[0].ID)
		assert.False(t, out.events[0].Time.IsZero())
	})

	t.Run("emit without handler", func(t *testing.T) {
		var b gesture.Base
		require.NotPanics(t, func() {
			b.Emit(gesture.Fired, 1, nil)
		})
	})
}
