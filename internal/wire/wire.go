// Package wire encodes tracking frames as the JSON text messages exchanged
// between a sender and a receiver.
//
// A message is either the NoData sentinel or an object with exactly two
// fields: "points", a 2×6×{4|1} array of joints (null when absent) indexed
// by side, finger and joint, and "zDepth", the frame depth.
package wire

import (
	"errors"
	"fmt"
	"math"

	"github.com/goccy/go-json"

	"github.com/ayusman/mudra/internal/hand"
)

// NoData is sent in place of a payload when no hand is observed.
const NoData = "__NoData__"

var (
	// ErrNoData is returned by Unmarshal for the NoData sentinel.
	ErrNoData = errors.New("wire: no data")

	// ErrMalformed is returned when the message is not valid JSON for a payload.
	ErrMalformed = errors.New("wire: malformed payload")

	// ErrShape is returned when the points array does not have the 2×6×{4|1} shape.
	ErrShape = errors.New("wire: invalid points shape")
)

// Point is the wire form of one joint observation. Location is encoded as [x, y].
type Point struct {
	Identifier string     `json:"identifier"`
	Confidence float64    `json:"confidence"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Location   [2]float64 `json:"location"`
}

// Payload is the wire form of one frame.
type Payload struct {
	Points [][][]*Point `json:"points"`
	ZDepth float64      `json:"zDepth"`
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// toPoint returns nil for absent observations and for those with a
// non-finite coordinate or confidence.
func toPoint(o *hand.Observation) *Point {
	if o == nil || !finite(o.Confidence, o.X, o.Y, o.Location.X, o.Location.Y) {
		return nil
	}
	return &Point{
		Identifier: o.Identifier,
		Confidence: o.Confidence,
		X:          o.X,
		Y:          o.Y,
		Location:   [2]float64{o.Location.X, o.Location.Y},
	}
}

func (p *Point) observation() hand.Observation {
	return hand.Observation{
		Identifier: p.Identifier,
		Confidence: p.Confidence,
		X:          p.X,
		Y:          p.Y,
		Location:   hand.Location{X: p.Location[0], Y: p.Location[1]},
	}
}

// NewPayload builds the fixed-shape payload for a frame. Absent hands are
// written as slots full of nulls, as are joints with non-finite values. A
// non-finite depth is written as 0.
func NewPayload(f hand.Frame2D, depth float64) Payload {
	if !finite(depth) {
		depth = 0
	}
	p := Payload{
		Points: make([][][]*Point, hand.NumSides),
		ZDepth: depth,
	}
	for s := 0; s < hand.NumSides; s++ {
		h := f.Hands[s]
		fingers := make([][]*Point, hand.NumFingers)
		for fg := hand.Thumb; int(fg) < hand.NumFingers; fg++ {
			joints := make([]*Point, hand.JointCount(fg))
			for j := range joints {
				joints[j] = toPoint(h.At(fg, hand.Joint(j)))
			}
			fingers[fg] = joints
		}
		p.Points[s] = fingers
	}
	return p
}

func (p Payload) empty() bool {
	for _, fingers := range p.Points {
		for _, joints := range fingers {
			for _, pt := range joints {
				if pt != nil {
					return false
				}
			}
		}
	}
	return true
}

// Frame converts the payload back into a frame, validating its shape.
// A null or all-null hand slot decodes to an absent hand.
func (p Payload) Frame() (hand.Frame2D, error) {
	var f hand.Frame2D
	if len(p.Points) != hand.NumSides {
		return f, fmt.Errorf("%w: %d hands", ErrShape, len(p.Points))
	}
	for s, fingers := range p.Points {
		if fingers == nil {
			continue
		}
		if len(fingers) != hand.NumFingers {
			return hand.Frame2D{}, fmt.Errorf("%w: hand %d has %d fingers", ErrShape, s, len(fingers))
		}
		h := &hand.Hand2D{}
		for fg, joints := range fingers {
			finger := hand.Finger(fg)
			if len(joints) != hand.JointCount(finger) {
				return hand.Frame2D{}, fmt.Errorf("%w: %s has %d joints", ErrShape, finger, len(joints))
			}
			for j, pt := range joints {
				if pt != nil {
					h.Set(finger, hand.Joint(j), pt.observation())
				}
			}
		}
		if h.Present() {
			f.Hands[s] = h
		}
	}
	return f, nil
}

// Marshal encodes a frame. A frame with no usable joint encodes as the
// NoData sentinel.
func Marshal(f hand.Frame2D, depth float64) ([]byte, error) {
	if f.Empty() {
		return []byte(NoData), nil
	}
	p := NewPayload(f, depth)
	if p.empty() {
		return []byte(NoData), nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return data, nil
}

// Encode is Marshal returning a text message.
func Encode(f hand.Frame2D, depth float64) (string, error) {
	data, err := Marshal(f, depth)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Unmarshal strictly decodes a message.
func Unmarshal(data []byte) (hand.Frame2D, float64, error) {
	if string(data) == NoData {
		return hand.Frame2D{}, 0, ErrNoData
	}

	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return hand.Frame2D{}, 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	f, err := p.Frame()
	if err != nil {
		return hand.Frame2D{}, 0, err
	}
	return f, p.ZDepth, nil
}

// Decode is the receiver's lenient decoder: the sentinel, malformed JSON and
// a wrong shape all yield an empty frame and zero depth.
func Decode(msg string) (hand.Frame2D, float64) {
	f, depth, err := Unmarshal([]byte(msg))
	if err != nil {
		return hand.Frame2D{}, 0
	}
	return f, depth
}
