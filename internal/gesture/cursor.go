package gesture

import (
	"fmt"

	"github.com/ayusman/mudra/internal/hand"
)

// CursorPose is the direction pad reading of the index finger. Its value is
// the Trigger of the Fired event.
type CursorPose int

const (
	CursorUnknown CursorPose = iota
	CursorUp
	CursorDown
	CursorRight
	CursorLeft
	CursorFire
)

var cursorNames = [...]string{"unknown", "up", "down", "right", "left", "fire"}

func (p CursorPose) String() string {
	if p < 0 || int(p) >= len(cursorNames) {
		return fmt.Sprintf("cursor(%d)", int(p))
	}
	return cursorNames[p]
}

// Cursor emits one Fired event each time the index finger changes between
// pointing up, down, right, left, a closed fist (fire) and none of these.
type Cursor struct {
	Base
	lastPose CursorPose
}

// NewCursor creates a Cursor classifier.
func NewCursor(opts ...Option) *Cursor {
	return &Cursor{Base: NewBase(KindCursor, opts...)}
}

// Pose classifies the current frame. Later checks take precedence.
func (c *Cursor) Pose() CursorPose {
	side := c.side
	pose := CursorUnknown
	if c.IsPointingUp(side, hand.Index) {
		pose = CursorUp
	}
	if c.IsPointingDown(side, hand.Index) {
		pose = CursorDown
	}
	if c.IsPointingRight(side, hand.Index) {
		pose = CursorRight
	}
	if c.IsPointingLeft(side, hand.Index) {
		pose = CursorLeft
	}
	if c.IsBend(side, hand.Index) &&
		c.IsBend(side, hand.Middle) &&
		c.IsBend(side, hand.Ring) &&
		c.IsBend(side, hand.Little) {
		pose = CursorFire
	}
	return pose
}

// LastPose returns the pose reported by the most recent Fired event.
func (c *Cursor) LastPose() CursorPose { return c.lastPose }

// CheckGesture classifies the frame and fires on pose changes.
func (c *Cursor) CheckGesture(f hand.Frame) {
	c.Observe(f)

	pose := c.Pose()
	if pose == c.lastPose {
		return
	}
	c.lastPose = pose
	if pose == CursorUnknown {
		c.SetState(StateUnknown)
	} else {
		c.SetState(StateDetected)
	}
	c.Emit(Fired, int(pose), nil)
}

// Reset forgets the last pose.
func (c *Cursor) Reset() {
	c.Base.Reset()
	c.lastPose = CursorUnknown
}
