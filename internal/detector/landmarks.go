package detector

import (
	"fmt"
	"sort"

	"github.com/ayusman/mudra/internal/hand"
)

// Preset poses are built in normalized image coordinates with y growing
// downward: the wrist sits near the bottom of the frame and extended fingers
// reach toward smaller y.

const presetConfidence = 0.95

// imgDigit holds tip, dip, pip and mcp as (x, y) pairs.
type imgDigit [hand.NumJoints][2]float64

func extended(x float64) imgDigit {
	return imgDigit{{x, 0.42}, {x, 0.48}, {x, 0.55}, {x, 0.65}}
}

func folded(x float64) imgDigit {
	return imgDigit{{x, 0.70}, {x, 0.62}, {x, 0.58}, {x, 0.65}}
}

func thumbSpread() imgDigit {
	return imgDigit{{0.28, 0.63}, {0.32, 0.65}, {0.36, 0.67}, {0.42, 0.70}}
}

func thumbTucked() imgDigit {
	return imgDigit{{0.46, 0.76}, {0.44, 0.72}, {0.40, 0.68}, {0.42, 0.70}}
}

func buildHand(digits [hand.NumDigits]imgDigit) *hand.Hand2D {
	h := &hand.Hand2D{}
	for f, d := range digits {
		for j, p := range d {
			finger, joint := hand.Finger(f), hand.Joint(j)
			h.Set(finger, joint, observation(finger, joint, p[0], p[1]))
		}
	}
	h.Set(hand.Wrist, hand.Tip, observation(hand.Wrist, hand.Tip, 0.5, 0.8))
	return h
}

func observation(f hand.Finger, j hand.Joint, x, y float64) hand.Observation {
	return hand.Observation{
		Identifier: hand.Identifier(f, j),
		Confidence: presetConfidence,
		X:          x,
		Y:          y,
		Location:   hand.Location{X: x, Y: y},
	}
}

// ShakaHand returns a hand with the thumb and little finger extended and the
// other fingers curled.
func ShakaHand() *hand.Hand2D {
	return buildHand([hand.NumDigits]imgDigit{thumbSpread(), folded(0.52), folded(0.56), folded(0.60), extended(0.62)})
}

// FistHand returns a closed fist.
func FistHand() *hand.Hand2D {
	return buildHand([hand.NumDigits]imgDigit{thumbTucked(), folded(0.52), folded(0.56), folded(0.60), folded(0.62)})
}

// OpenHand returns a hand with every finger extended.
func OpenHand() *hand.Hand2D {
	return buildHand([hand.NumDigits]imgDigit{thumbSpread(), extended(0.52), extended(0.56), extended(0.60), extended(0.64)})
}

// PencilHand returns the pinch pose: index extended with the thumb tip
// resting on the index pip.
func PencilHand() *hand.Hand2D {
	thumb := imgDigit{{0.52, 0.54}, {0.48, 0.60}, {0.44, 0.66}, {0.42, 0.70}}
	return buildHand([hand.NumDigits]imgDigit{thumb, extended(0.5), folded(0.56), folded(0.60), folded(0.62)})
}

// PointingHand returns a hand whose index tip sits at (x, y) in image space
// with the other fingers curled.
func PointingHand(x, y float64) *hand.Hand2D {
	index := imgDigit{{x, y}, {0.5, 0.50}, {0.5, 0.55}, {0.5, 0.65}}
	return buildHand([hand.NumDigits]imgDigit{thumbTucked(), index, folded(0.56), folded(0.60), folded(0.62)})
}

var presets = map[string]func() *hand.Hand2D{
	"shaka":  ShakaHand,
	"fist":   FistHand,
	"open":   OpenHand,
	"pencil": PencilHand,
	"up":     func() *hand.Hand2D { return PointingHand(0.5, 0.40) },
	"down":   func() *hand.Hand2D { return PointingHand(0.5, 1.20) },
	"right":  func() *hand.Hand2D { return PointingHand(0.85, 0.64) },
	"left":   func() *hand.Hand2D { return PointingHand(0.15, 0.64) },
	"none":   func() *hand.Hand2D { return nil },
}

// Preset returns the named preset pose. "none" is an empty detection.
func Preset(name string) (*hand.Hand2D, error) {
	fn, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown pose %q", name)
	}
	return fn(), nil
}

// PresetNames lists the known pose names.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
