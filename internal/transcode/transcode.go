// Package transcode maps image-space joint observations into the receiver's
// world space and back.
package transcode

import (
	"github.com/golang/geo/r3"

	"github.com/ayusman/mudra/internal/hand"
)

// Config holds the world-space mapping parameters.
type Config struct {
	// Offset is added after the flip and mirror steps. Offset.Z is added to the depth.
	Offset r3.Vector

	// Mirror negates x and y for front-facing capture.
	Mirror bool

	// MinConfidence drops observations below this confidence.
	MinConfidence float64
}

// DefaultConfig returns the mapping used by the receiver when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Offset:        r3.Vector{X: 0.5, Y: 0, Z: 0},
		MinConfidence: 0.6,
	}
}

// Transcoder converts frames between image space and world space.
type Transcoder struct {
	cfg Config
}

// New creates a Transcoder.
func New(cfg Config) *Transcoder {
	return &Transcoder{cfg: cfg}
}

// Config returns the transcoder's configuration.
func (t *Transcoder) Config() Config {
	return t.cfg
}

// Point maps one observation. The y axis is flipped to put the origin at the
// top, mirrored if configured, then offset; z is the frame depth.
func (t *Transcoder) Point(o *hand.Observation, depth float64) (r3.Vector, bool) {
	if o == nil || o.Confidence < t.cfg.MinConfidence {
		return r3.Vector{}, false
	}

	x := o.X
	y := 1 - o.Y
	if t.cfg.Mirror {
		x, y = -x, -y
	}

	return r3.Vector{
		X: x + t.cfg.Offset.X,
		Y: y + t.cfg.Offset.Y,
		Z: depth + t.cfg.Offset.Z,
	}, true
}

// Hand maps a skeleton, returning nil when no joint survives.
func (t *Transcoder) Hand(h *hand.Hand2D, depth float64) *hand.Hand {
	if h == nil {
		return nil
	}
	out := &hand.Hand{}
	h.Each(func(f hand.Finger, j hand.Joint, o *hand.Observation) {
		if p, ok := t.Point(o, depth); ok {
			out.Set(f, j, p)
		}
	})
	if !out.Present() {
		return nil
	}
	return out
}

// ToWorld maps a frame into world space. Absent joints stay absent.
func (t *Transcoder) ToWorld(f hand.Frame2D, depth float64) hand.Frame {
	var out hand.Frame
	for i, h := range f.Hands {
		out.Hands[i] = t.Hand(h, depth)
	}
	return out
}

// ToImage is the inverse of ToWorld for frames produced by a world-space
// tracker. Every joint is reported with full confidence; depth is taken from
// the first present joint.
func (t *Transcoder) ToImage(f hand.Frame) (hand.Frame2D, float64) {
	var (
		out      hand.Frame2D
		depth    float64
		hasDepth bool
	)
	for i, h := range f.Hands {
		if !h.Present() {
			continue
		}
		img := &hand.Hand2D{}
		h.Each(func(fg hand.Finger, j hand.Joint, p *r3.Vector) {
			if p == nil {
				return
			}
			if !hasDepth {
				depth = p.Z - t.cfg.Offset.Z
				hasDepth = true
			}
			x := p.X - t.cfg.Offset.X
			y := p.Y - t.cfg.Offset.Y
			if t.cfg.Mirror {
				x, y = -x, -y
			}
			y = 1 - y
			img.Set(fg, j, hand.Observation{
				Identifier: hand.Identifier(fg, j),
				Confidence: 1,
				X:          x,
				Y:          y,
				Location:   hand.Location{X: x, Y: y},
			})
		})
		out.Hands[i] = img
	}
	return out, depth
}
