package plugin

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

const hookQueueSize = 32

// Binding runs a plugin action for matching gesture events. A nil Trigger
// matches any trigger.
type Binding struct {
	Gesture string
	Event   string
	Trigger *int
	Plugin  string
	Action  string
	Params  json.RawMessage
}

// Matches reports whether the binding applies to e.
func (b Binding) Matches(e gesture.Event) bool {
	if b.Gesture != string(e.Gesture) || b.Event != e.Type.String() {
		return false
	}
	return b.Trigger == nil || *b.Trigger == e.Trigger
}

// BindingSource looks up the bindings for an event.
type BindingSource interface {
	Match(e gesture.Event) ([]Binding, error)
}

// StaticBindings is a fixed binding list, typically from the config file.
type StaticBindings []Binding

// Match returns the bindings that apply to e, in order.
func (s StaticBindings) Match(e gesture.Event) ([]Binding, error) {
	var out []Binding
	for _, b := range s {
		if b.Matches(e) {
			out = append(out, b)
		}
	}
	return out, nil
}

// StoreBindings reads enabled bindings from the recording store.
type StoreBindings struct {
	Store *store.Store
}

// Match returns the store's enabled bindings for e.
func (s StoreBindings) Match(e gesture.Event) ([]Binding, error) {
	rows, err := s.Store.Bindings().Match(string(e.Gesture), e.Type.String(), e.Trigger)
	if err != nil {
		return nil, fmt.Errorf("failed to match bindings: %w", err)
	}
	out := make([]Binding, 0, len(rows))
	for _, r := range rows {
		out = append(out, Binding{
			Gesture: r.Gesture,
			Event:   r.EventType,
			Trigger: r.Trigger,
			Plugin:  r.PluginName,
			Action:  r.ActionName,
			Params:  r.Config,
		})
	}
	return out, nil
}

// RunCounter tallies plugin runs.
type RunCounter interface {
	CountPluginRun(plugin string, err error)
}

type job struct {
	binding Binding
	event   gesture.Event
}

// Hooks is a gesture.Handler that runs bound plugin actions. Matching happens
// on the caller's goroutine; plugins run one at a time on Serve's goroutine
// so that a slow plugin never stalls classification.
type Hooks struct {
	manager  *Manager
	executor *Executor
	sources  []BindingSource
	counter  RunCounter
	log      zerolog.Logger
	jobs     chan job
}

// NewHooks creates Hooks over the given binding sources. counter may be nil.
func NewHooks(m *Manager, e *Executor, log zerolog.Logger, counter RunCounter, sources ...BindingSource) *Hooks {
	return &Hooks{
		manager:  m,
		executor: e,
		sources:  sources,
		counter:  counter,
		log:      log,
		jobs:     make(chan job, hookQueueSize),
	}
}

// HandleGesture queues every bound action for e. When the queue is full the
// action is dropped.
func (h *Hooks) HandleGesture(e gesture.Event) {
	for _, src := range h.sources {
		bindings, err := src.Match(e)
		if err != nil {
			h.log.Warn().Err(err).Msg("binding lookup failed")
			continue
		}
		for _, b := range bindings {
			select {
			case h.jobs <- job{binding: b, event: e}:
			default:
				h.log.Warn().Str("plugin", b.Plugin).Str("action", b.Action).Msg("hook queue full, dropping action")
			}
		}
	}
}

// Serve runs queued actions until ctx is done.
func (h *Hooks) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case j := <-h.jobs:
			h.run(ctx, j)
		}
	}
}

// String names the service for the supervisor.
func (h *Hooks) String() string {
	return "plugin-hooks"
}

func (h *Hooks) run(ctx context.Context, j job) {
	b := j.binding
	log := h.log.With().Str("plugin", b.Plugin).Str("action", b.Action).Uint64("event", j.event.ID).Logger()

	resp, err := h.Run(ctx, b, j.event)
	if h.counter != nil {
		h.counter.CountPluginRun(b.Plugin, err)
	}
	if err != nil {
		log.Warn().Err(err).Msg("plugin action failed")
		return
	}
	log.Debug().RawJSON("data", nonEmpty(resp.Data)).Msg("plugin action done")
}

// Run executes one binding for e synchronously. A response with Success
// false is returned as an error.
func (h *Hooks) Run(ctx context.Context, b Binding, e gesture.Event) (*Response, error) {
	p, err := h.manager.Get(b.Plugin)
	if err != nil {
		return nil, err
	}
	if !p.Supports(b.Action) {
		return nil, fmt.Errorf("plugin %s has no action %q", b.Plugin, b.Action)
	}

	loc, err := e.LocationJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode location: %w", err)
	}
	params := b.Params
	if len(params) == 0 {
		params = json.RawMessage("{}")
	}

	resp, err := h.executor.Execute(ctx, p, &Request{
		Action:   b.Action,
		Gesture:  string(e.Gesture),
		Event:    e.Type.String(),
		Trigger:  e.Trigger,
		EventID:  e.ID,
		Location: loc,
		Params:   params,
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return resp, fmt.Errorf("plugin %s: %s", b.Plugin, resp.Error)
	}
	return resp, nil
}

func nonEmpty(data json.RawMessage) []byte {
	if len(data) == 0 {
		return []byte("null")
	}
	return data
}
