// Package hand provides the two-hand skeletal joint model shared by the
// tracking sources, the wire codec and the gesture classifiers.
//
// A hand is 21 joints grouped as six finger slots: five digits of four joints
// (tip, dip, pip, mcp) and a wrist of one joint. Any joint may be absent.
package hand

import (
	"fmt"
	"strings"

	"github.com/golang/geo/r3"
)

// Side identifies which hand a skeleton belongs to.
type Side int

const (
	Right Side = iota
	Left
)

// NumSides is the number of hand slots in a frame.
const NumSides = 2

// Finger identifies a finger slot. Wrist is a pseudo-finger with one joint.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Little
	Wrist
)

const (
	// NumFingers counts every finger slot including the wrist.
	NumFingers = 6
	// NumDigits counts the finger slots that have four joints.
	NumDigits = 5
)

// Joint identifies a joint along a digit, from fingertip to knuckle.
type Joint int

const (
	Tip Joint = iota
	DIP
	PIP
	MCP
)

// NumJoints is the number of joints on each digit.
const NumJoints = 4

var (
	sideNames   = [NumSides]string{"right", "left"}
	fingerNames = [NumFingers]string{"thumb", "index", "middle", "ring", "little", "wrist"}
	jointNames  = [NumJoints]string{"tip", "dip", "pip", "mcp"}
)

func (s Side) String() string {
	if s < 0 || int(s) >= NumSides {
		return fmt.Sprintf("side(%d)", int(s))
	}
	return sideNames[s]
}

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == Right {
		return Left
	}
	return Right
}

// ParseSide parses "right" or "left", case-insensitively.
func ParseSide(s string) (Side, error) {
	for i, name := range sideNames {
		if strings.EqualFold(s, name) {
			return Side(i), nil
		}
	}
	return Right, fmt.Errorf("unknown hand side %q", s)
}

func (f Finger) String() string {
	if f < 0 || int(f) >= NumFingers {
		return fmt.Sprintf("finger(%d)", int(f))
	}
	return fingerNames[f]
}

// ParseFinger parses a finger slot name such as "index" or "wrist".
func ParseFinger(s string) (Finger, error) {
	for i, name := range fingerNames {
		if strings.EqualFold(s, name) {
			return Finger(i), nil
		}
	}
	return Thumb, fmt.Errorf("unknown finger %q", s)
}

func (j Joint) String() string {
	if j < 0 || int(j) >= NumJoints {
		return fmt.Sprintf("joint(%d)", int(j))
	}
	return jointNames[j]
}

// JointCount returns how many joints the finger slot holds: 4 for digits, 1 for the wrist.
func JointCount(f Finger) int {
	if f == Wrist {
		return 1
	}
	return NumJoints
}

// Identifier returns the stable label for a joint, e.g. "index_tip" or "wrist".
func Identifier(f Finger, j Joint) string {
	if f == Wrist {
		return fingerNames[Wrist]
	}
	return f.String() + "_" + j.String()
}

// Location is an image-space 2D position.
type Location struct {
	X float64
	Y float64
}

// Observation is a single 2D joint as reported by a tracking source.
// X and Y are normalized image coordinates in [0,1] with y growing downward;
// Location keeps the source's original point.
type Observation struct {
	Identifier string
	Confidence float64
	X          float64
	Y          float64
	Location   Location
}

// Skeleton holds the joints of one hand. Digits is indexed by Finger (Thumb
// through Little) and Joint; the wrist has its own single slot, so the
// {4,4,4,4,4,1} shape cannot be violated. A nil entry is an absent joint.
type Skeleton[T any] struct {
	Digits [NumDigits][NumJoints]*T
	Wrist  *T
}

// Hand is a skeleton in world space.
type Hand = Skeleton[r3.Vector]

// Hand2D is a skeleton of image-space observations.
type Hand2D = Skeleton[Observation]

func validSlot(f Finger, j Joint) bool {
	if f == Wrist {
		return true
	}
	return f >= Thumb && f < Wrist && j >= Tip && int(j) < NumJoints
}

// At returns the joint pointer, or nil when absent. For Wrist the joint argument is ignored.
func (s *Skeleton[T]) At(f Finger, j Joint) *T {
	if s == nil || !validSlot(f, j) {
		return nil
	}
	if f == Wrist {
		return s.Wrist
	}
	return s.Digits[f][j]
}

// Get returns a copy of the joint and whether it is present.
func (s *Skeleton[T]) Get(f Finger, j Joint) (T, bool) {
	var zero T
	p := s.At(f, j)
	if p == nil {
		return zero, false
	}
	return *p, true
}

// Set stores a copy of v at the slot. Out of range slots are ignored.
func (s *Skeleton[T]) Set(f Finger, j Joint, v T) {
	s.put(f, j, &v)
}

// Clear marks the slot absent.
func (s *Skeleton[T]) Clear(f Finger, j Joint) {
	s.put(f, j, nil)
}

func (s *Skeleton[T]) put(f Finger, j Joint, p *T) {
	if s == nil || !validSlot(f, j) {
		return
	}
	if f == Wrist {
		s.Wrist = p
		return
	}
	s.Digits[f][j] = p
}

// Each calls fn for every slot in finger-major order, present or not.
func (s *Skeleton[T]) Each(fn func(f Finger, j Joint, p *T)) {
	for f := Thumb; f < Wrist; f++ {
		for j := Tip; int(j) < NumJoints; j++ {
			fn(f, j, s.At(f, j))
		}
	}
	fn(Wrist, Tip, s.At(Wrist, Tip))
}

// Count returns the number of present joints.
func (s *Skeleton[T]) Count() int {
	n := 0
	s.Each(func(_ Finger, _ Joint, p *T) {
		if p != nil {
			n++
		}
	})
	return n
}

// Present reports whether any joint is present.
func (s *Skeleton[T]) Present() bool {
	return s != nil && s.Count() > 0
}

// Clone returns a deep copy.
func (s *Skeleton[T]) Clone() *Skeleton[T] {
	if s == nil {
		return nil
	}
	c := &Skeleton[T]{}
	s.Each(func(f Finger, j Joint, p *T) {
		if p != nil {
			c.Set(f, j, *p)
		}
	})
	return c
}
