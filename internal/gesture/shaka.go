package gesture

import (
	"github.com/golang/geo/r3"

	"github.com/ayusman/mudra/internal/hand"
)

// Shaka recognizes the shaka pose: thumb and little finger extended, the
// other three fingers curled. While held it streams the thumb, little and
// wrist positions, the triangle center and the triangle frame.
type Shaka struct {
	Base
}

// NewShaka creates a Shaka classifier.
func NewShaka(opts ...Option) *Shaka {
	return &Shaka{Base: NewBase(KindShaka, opts...)}
}

func (s *Shaka) isPose() bool {
	side := s.side
	return s.IsStraight(side, hand.Thumb) &&
		s.IsBend(side, hand.Index) &&
		s.IsBend(side, hand.Middle) &&
		s.IsBend(side, hand.Ring) &&
		s.IsStraight(side, hand.Little)
}

// CheckGesture advances the state machine by one frame.
func (s *Shaka) CheckGesture(f hand.Frame) {
	s.Observe(f)

	switch s.state {
	case StateUnknown:
		if s.isPose() {
			s.Emit(Began, NoTrigger, nil)
			s.SaveFrame()
			s.SetState(StateWaitForRelease)
		}

	case StateWaitForRelease:
		if s.lost() {
			s.cancel()
			return
		}

		thumb := s.Point(s.side, hand.Thumb, hand.Tip)
		little := s.Point(s.side, hand.Little, hand.Tip)
		wrist := s.Point(s.side, hand.Wrist, hand.Tip)

		s.Emit(Moved3D, NoTrigger, Points3D{thumb, little, wrist})
		if center, ok := TriangleCenter(thumb, little, wrist); ok {
			s.Emit(Fired, NoTrigger, Point3D(center))
		}
		if axis, ok := TriangleCenterWithAxis(thumb, little, wrist); ok {
			s.Emit(Moved4D, NoTrigger, axis)
		}

		if !s.isPose() {
			s.Emit(Ended, NoTrigger, nil)
			s.Reset()
			return
		}
		s.SaveFrame()
	}
}

// Center returns the triangle center of the last classified frame.
func (s *Shaka) Center() (r3.Vector, bool) {
	return TriangleCenter(
		s.Point(s.side, hand.Thumb, hand.Tip),
		s.Point(s.side, hand.Little, hand.Tip),
		s.Point(s.side, hand.Wrist, hand.Tip),
	)
}
