package hand

import "github.com/golang/geo/r3"

// Pair holds up to one skeleton per side. A nil entry means that hand was
// not observed in the frame.
type Pair[T any] struct {
	Hands [NumSides]*Skeleton[T]
}

// Frame is one tracking sample in world space.
type Frame = Pair[r3.Vector]

// Frame2D is one tracking sample in image space.
type Frame2D = Pair[Observation]

// Hand returns the skeleton for side, or nil.
func (p Pair[T]) Hand(side Side) *Skeleton[T] {
	if side < 0 || int(side) >= NumSides {
		return nil
	}
	return p.Hands[side]
}

// Count returns the number of observed hands.
func (p Pair[T]) Count() int {
	n := 0
	for _, h := range p.Hands {
		if h != nil {
			n++
		}
	}
	return n
}

// Empty reports whether no hand was observed.
func (p Pair[T]) Empty() bool {
	return p.Count() == 0
}

// Only returns the single observed hand when exactly one is present.
func (p Pair[T]) Only() (*Skeleton[T], Side, bool) {
	if p.Count() != 1 {
		return nil, Right, false
	}
	for i, h := range p.Hands {
		if h != nil {
			return h, Side(i), true
		}
	}
	return nil, Right, false
}

// Clone returns a deep copy.
func (p Pair[T]) Clone() Pair[T] {
	var c Pair[T]
	for i, h := range p.Hands {
		c.Hands[i] = h.Clone()
	}
	return c
}

// AssignSides turns the unordered hands reported by a tracking source into a
// frame. A single hand goes to defaultSide. With two hands the one whose thumb
// tip has the smaller x becomes Right, following the mirrored front-camera
// convention; if either thumb tip is missing or below minConfidence the
// frame is empty. Hands beyond the second are ignored.
func AssignSides(observed []*Hand2D, defaultSide Side, minConfidence float64) Frame2D {
	var frame Frame2D

	hands := make([]*Hand2D, 0, NumSides)
	for _, h := range observed {
		if h != nil {
			hands = append(hands, h)
		}
		if len(hands) == NumSides {
			break
		}
	}

	switch len(hands) {
	case 0:
		return frame
	case 1:
		if defaultSide != Left {
			defaultSide = Right
		}
		frame.Hands[defaultSide] = hands[0]
		return frame
	}

	a := hands[0].At(Thumb, Tip)
	b := hands[1].At(Thumb, Tip)
	if a == nil || b == nil || a.Confidence < minConfidence || b.Confidence < minConfidence {
		return frame
	}
	if a.X <= b.X {
		frame.Hands[Right], frame.Hands[Left] = hands[0], hands[1]
	} else {
		frame.Hands[Right], frame.Hands[Left] = hands[1], hands[0]
	}
	return frame
}
