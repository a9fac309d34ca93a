package gesture

import "fmt"

// State is a classifier's position in its recognition state machine.
type State int

const (
	StateUnknown State = iota
	StatePossible
	StateDetected
	StateWaitForNextPose
	StateWaitForRelease
)

var stateNames = [...]string{"unknown", "possible", "detected", "wait_for_next_pose", "wait_for_release"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}
