package detector

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ayusman/mudra/internal/hand"
)

// ScriptDetector plays a fixed sequence of preset poses, holding each for a
// number of frames. It loops unless Once is set.
type ScriptDetector struct {
	mu    sync.Mutex
	steps []*hand.Hand2D
	hold  int
	depth float64
	once  bool
	pos   int
}

// ParseScript builds a ScriptDetector from a comma separated list of preset
// names, e.g. "shaka,shaka,fist".
func ParseScript(script string, hold int, depth float64) (*ScriptDetector, error) {
	var steps []*hand.Hand2D
	for _, name := range strings.Split(script, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		h, err := Preset(name)
		if err != nil {
			return nil, fmt.Errorf("parse script: %w", err)
		}
		steps = append(steps, h)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("parse script: no poses in %q", script)
	}
	return NewScriptDetector(steps, hold, depth), nil
}

// NewScriptDetector creates a looping ScriptDetector. A nil step is an empty detection.
func NewScriptDetector(steps []*hand.Hand2D, hold int, depth float64) *ScriptDetector {
	if hold < 1 {
		hold = 1
	}
	return &ScriptDetector{steps: steps, hold: hold, depth: depth}
}

// Once stops the script after a single pass.
func (s *ScriptDetector) Once() *ScriptDetector {
	s.once = true
	return s
}

// Len returns the number of frames in one pass.
func (s *ScriptDetector) Len() int {
	return len(s.steps) * s.hold
}

// Detect returns the next scripted pose.
func (s *ScriptDetector) Detect(ctx context.Context) (Detection, error) {
	if err := ctx.Err(); err != nil {
		return Detection{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Len() == 0 || (s.once && s.pos >= s.Len()) {
		return Detection{}, ErrExhausted
	}

	step := s.steps[(s.pos/s.hold)%len(s.steps)]
	s.pos++

	d := Detection{Depth: s.depth}
	if step != nil {
		d.Hands = []*hand.Hand2D{step.Clone()}
	}
	return d, nil
}

// Close is a no-op.
func (s *ScriptDetector) Close() error {
	return nil
}
