package gesture

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang/geo/r3"

	"github.com/ayusman/mudra/internal/hand"
)

// Kind identifies a classifier.
type Kind string

const (
	// KindShaka is the two-finger shaka (aloha) pose.
	KindShaka Kind = "shaka"
	// KindCursor is the index-finger direction pad.
	KindCursor Kind = "cursor"
	// KindDraw is the pinch-to-draw pencil.
	KindDraw Kind = "draw"
)

// EventType is the phase of a gesture event.
type EventType int

const (
	Unknown EventType = iota
	Began
	Moved2D
	Moved3D
	Moved4D
	Ended
	Canceled
	Fired
)

var eventTypeNames = [...]string{"unknown", "began", "moved2d", "moved3d", "moved4d", "ended", "canceled", "fired"}

func (t EventType) String() string {
	if t < 0 || int(t) >= len(eventTypeNames) {
		return fmt.Sprintf("eventtype(%d)", int(t))
	}
	return eventTypeNames[t]
}

// MarshalText encodes the type by name.
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a type name.
func (t *EventType) UnmarshalText(b []byte) error {
	v, err := ParseEventType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseEventType parses an event type name such as "fired".
func ParseEventType(s string) (EventType, error) {
	for i, name := range eventTypeNames {
		if strings.EqualFold(s, name) {
			return EventType(i), nil
		}
	}
	return Unknown, fmt.Errorf("unknown event type %q", s)
}

// NoTrigger is the Trigger value of events that are not discrete triggers.
const NoTrigger = -1

// Location is the payload of an event. Its concrete type follows the event
// type: Points2D for Moved2D, Points3D for Moved3D, Transform for Moved4D and
// Point3D for Fired.
type Location interface {
	locationJSON() any
}

// Points2D is a list of image-space points.
type Points2D []hand.Location

// Points3D is a list of world-space points. Entries may be nil when the
// joint was absent.
type Points3D []*r3.Vector

// Point3D is a single world-space point.
type Point3D r3.Vector

// Transform is a rigid frame: three orthonormal axes and an origin.
type Transform struct {
	X      r3.Vector
	Y      r3.Vector
	Z      r3.Vector
	Origin r3.Vector
}

// Matrix returns the homogeneous 4×4 matrix indexed [row][col] whose columns
// are X, Y, Z and Origin.
func (t Transform) Matrix() [4][4]float64 {
	return [4][4]float64{
		{t.X.X, t.Y.X, t.Z.X, t.Origin.X},
		{t.X.Y, t.Y.Y, t.Z.Y, t.Origin.Y},
		{t.X.Z, t.Y.Z, t.Z.Z, t.Origin.Z},
		{0, 0, 0, 1},
	}
}

func vec(v r3.Vector) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

func (p Points2D) locationJSON() any {
	out := make([][2]float64, len(p))
	for i, l := range p {
		out[i] = [2]float64{l.X, l.Y}
	}
	return out
}

func (p Points3D) locationJSON() any {
	out := make([]*[3]float64, len(p))
	for i, v := range p {
		if v != nil {
			a := vec(*v)
			out[i] = &a
		}
	}
	return out
}

func (p Point3D) locationJSON() any { return vec(r3.Vector(p)) }

func (t Transform) locationJSON() any { return t.Matrix() }

// Event is emitted by a classifier.
type Event struct {
	ID       uint64
	Time     time.Time
	Gesture  Kind
	Type     EventType
	Trigger  int
	Location Location
}

type eventJSON struct {
	ID       uint64    `json:"id"`
	Time     time.Time `json:"timestamp"`
	Gesture  Kind      `json:"gesture"`
	Type     EventType `json:"type"`
	Trigger  int       `json:"trigger"`
	Location any       `json:"location,omitempty"`
}

// MarshalJSON encodes the event with its location flattened to arrays.
func (e Event) MarshalJSON() ([]byte, error) {
	var loc any
	if e.Location != nil {
		loc = e.Location.locationJSON()
	}
	return json.Marshal(eventJSON{
		ID:       e.ID,
		Time:     e.Time,
		Gesture:  e.Gesture,
		Type:     e.Type,
		Trigger:  e.Trigger,
		Location: loc,
	})
}

// LocationJSON returns the encoded location, or nil when the event has none.
func (e Event) LocationJSON() ([]byte, error) {
	if e.Location == nil {
		return nil, nil
	}
	return json.Marshal(e.Location.locationJSON())
}

// Sequence hands out event ids. Ids start at 1 and increase.
type Sequence struct {
	n atomic.Uint64
}

// Next returns the next id.
func (s *Sequence) Next() uint64 {
	return s.n.Add(1)
}

// Handler consumes gesture events.
type Handler interface {
	HandleGesture(e Event)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(e Event)

// HandleGesture calls f(e).
func (f HandlerFunc) HandleGesture(e Event) { f(e) }

// Handlers fans an event out to each handler in order.
type Handlers []Handler

// HandleGesture delivers e to every non-nil handler.
func (hs Handlers) HandleGesture(e Event) {
	for _, h := range hs {
		if h != nil {
			h.HandleGesture(e)
		}
	}
}
