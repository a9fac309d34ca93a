package gesture

import (
	"github.com/golang/geo/r3"

	"github.com/ayusman/mudra/internal/hand"
)

// World-space test poses with y pointing up and the wrist at (0.5, 0.2).

var wristPos = r3.Vector{X: 0.5, Y: 0.2}

// digit is tip, dip, pip, mcp.
type digit [hand.NumJoints]r3.Vector

func straightUp(x float64) digit {
	return digit{{X: x, Y: 0.58}, {X: x, Y: 0.52}, {X: x, Y: 0.45}, {X: x, Y: 0.35}}
}

func curled(x float64) digit {
	return digit{{X: x, Y: 0.30}, {X: x, Y: 0.38}, {X: x, Y: 0.42}, {X: x, Y: 0.35}}
}

func thumbOut() digit {
	return digit{{X: 0.28, Y: 0.37}, {X: 0.32, Y: 0.35}, {X: 0.36, Y: 0.33}, {X: 0.42, Y: 0.30}}
}

func thumbIn() digit {
	return digit{{X: 0.46, Y: 0.24}, {X: 0.44, Y: 0.28}, {X: 0.40, Y: 0.32}, {X: 0.42, Y: 0.30}}
}

func buildHand(thumb, index, middle, ring, little digit) *hand.Hand {
	h := &hand.Hand{}
	for f, d := range []digit{thumb, index, middle, ring, little} {
		for j, p := range d {
			h.Set(hand.Finger(f), hand.Joint(j), p)
		}
	}
	h.Set(hand.Wrist, hand.Tip, wristPos)
	return h
}

func rightFrame(h *hand.Hand) hand.Frame {
	var f hand.Frame
	f.Hands[hand.Right] = h
	return f
}

func shakaHand() *hand.Hand {
	return buildHand(thumbOut(), curled(0.52), curled(0.56), curled(0.60), straightUp(0.62))
}

func fistHand() *hand.Hand {
	return buildHand(thumbIn(), curled(0.52), curled(0.56), curled(0.60), curled(0.62))
}

func openHand() *hand.Hand {
	return buildHand(thumbOut(), straightUp(0.52), straightUp(0.56), straightUp(0.60), straightUp(0.64))
}

func pointingHand(tip r3.Vector) *hand.Hand {
	index := digit{tip, {X: 0.5, Y: 0.5}, {X: 0.5, Y: 0.45}, {X: 0.5, Y: 0.35}}
	return buildHand(thumbIn(), index, curled(0.56), curled(0.60), curled(0.62))
}

func pencilHand() *hand.Hand {
	thumb := digit{{X: 0.52, Y: 0.46}, {X: 0.48, Y: 0.40}, {X: 0.44, Y: 0.34}, {X: 0.42, Y: 0.30}}
	return buildHand(thumb, straightUp(0.5), curled(0.56), curled(0.60), curled(0.62))
}

func liftedPencilHand() *hand.Hand {
	return buildHand(thumbOut(), straightUp(0.5), curled(0.56), curled(0.60), curled(0.62))
}

// recorder collects emitted events.
type recorder struct {
	events []Event
}

func (r *recorder) HandleGesture(e Event) { r.events = append(r.events, e) }

func (r *recorder) types() []EventType {
	out := make([]EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func (r *recorder) reset() { r.events = nil }
