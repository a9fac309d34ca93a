package gesture

import "github.com/ayusman/mudra/internal/hand"

const (
	// FakeNearThreshold is the pinch distance for relayed tracking data.
	FakeNearThreshold = 0.1
	// TrackedNearThreshold is the pinch distance for metric hand tracking.
	TrackedNearThreshold = FakeNearThreshold * 0.2
)

// DrawTrigger values are the Trigger of Draw's Fired events.
const (
	CanvasClear = 0
)

// Draw turns a pinch between the thumb tip and the index pip, with the index
// extended, into a pencil stroke that follows the index tip. An open hand
// clears the canvas.
type Draw struct {
	Base
	threshold float64
}

// NewDraw creates a Draw classifier. A non-positive threshold selects FakeNearThreshold.
func NewDraw(threshold float64, opts ...Option) *Draw {
	if threshold <= 0 {
		threshold = FakeNearThreshold
	}
	return &Draw{Base: NewBase(KindDraw, opts...), threshold: threshold}
}

// Threshold returns the pinch distance.
func (d *Draw) Threshold() float64 { return d.threshold }

func (d *Draw) isPencil() bool {
	return d.IsStraight(d.side, hand.Index) &&
		IsNear(d.Point(d.side, hand.Thumb, hand.Tip), d.Point(d.side, hand.Index, hand.PIP), d.threshold)
}

func (d *Draw) isClear() bool {
	return d.IsStraight(d.side, hand.Index) &&
		d.IsStraight(d.side, hand.Middle) &&
		d.IsStraight(d.side, hand.Ring) &&
		d.IsStraight(d.side, hand.Little)
}

// CheckGesture advances the state machine by one frame.
func (d *Draw) CheckGesture(f hand.Frame) {
	d.Observe(f)

	switch d.state {
	case StateUnknown:
		if d.isClear() {
			d.Emit(Fired, CanvasClear, nil)
			d.Reset()
			return
		}
		if d.isPencil() {
			d.Emit(Began, NoTrigger, nil)
			d.SetState(StateWaitForRelease)
		}

	case StateWaitForRelease:
		if d.lost() {
			d.cancel()
			return
		}
		d.Emit(Moved3D, NoTrigger, Points3D{d.Point(d.side, hand.Index, hand.Tip)})
		if !d.isPencil() {
			d.Emit(Ended, NoTrigger, nil)
			d.Reset()
		}
	}
}
