package detector

import (
	"context"
	"sync"

	"github.com/ayusman/mudra/internal/hand"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []*hand.Hand2D
	depth float64
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands ...*hand.Hand2D) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetDepth sets the depth that will be returned by Detect.
func (m *MockDetector) SetDepth(depth float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.depth = depth
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(ctx context.Context) (Detection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return Detection{}, m.err
	}
	return Detection{Hands: m.hands, Depth: m.depth}, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}
