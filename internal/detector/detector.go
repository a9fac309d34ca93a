// Package detector provides the tracking sources that feed the sender:
// scripted and mock skeleton generators and replay of recorded sessions.
package detector

import (
	"context"
	"errors"

	"github.com/ayusman/mudra/internal/hand"
)

// ErrExhausted is returned by finite sources after their last frame.
var ErrExhausted = errors.New("detector: no more frames")

// Detection is one sample from a tracking source.
type Detection struct {
	// Hands holds the observed skeletons in no particular order.
	Hands []*hand.Hand2D

	// Depth is the frame's distance from the camera.
	Depth float64
}

// Detector defines the interface for hand tracking sources.
type Detector interface {
	// Detect returns the next sample. A sample without hands is not an error.
	Detect(ctx context.Context) (Detection, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to report (default: 2).
	MaxHands int

	// MinConfidence is the minimum joint confidence used for side assignment (0.0-1.0).
	MinConfidence float64

	// DefaultSide is the side given to a lone hand.
	DefaultSide hand.Side
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:      2,
		MinConfidence: 0.6,
		DefaultSide:   hand.Right,
	}
}

// Frame assigns sides to a detection's hands.
func (c Config) Frame(d Detection) hand.Frame2D {
	hands := d.Hands
	if c.MaxHands > 0 && len(hands) > c.MaxHands {
		hands = hands[:c.MaxHands]
	}
	return hand.AssignSides(hands, c.DefaultSide, c.MinConfidence)
}
