// Package app wires the mudra receiver and sender from configuration and
// runs them under a supervisor tree.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/goccy/go-json"
	"github.com/golang/geo/r3"
	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/transcode"
)

// Receiver accepts frames from senders, classifies them and fans gesture
// events out to the event feed, the recorder and the plugin hooks.
type Receiver struct {
	cfg     *config.Config
	log     zerolog.Logger
	metrics *metrics.Metrics

	store    *store.Store
	recorder *store.Recorder

	hub        *server.EventHub
	hooks      *plugin.Hooks
	dispatcher *gesture.Dispatcher
	link       *server.LinkHandler
	server     *server.Server

	queue  *server.FrameQueue
	latest *server.Latest
}

// NewReceiver builds a receiver. Call Close when done, even if Run was never called.
func NewReceiver(cfg *config.Config, log zerolog.Logger) (*Receiver, error) {
	r := &Receiver{
		cfg:     cfg,
		log:     log,
		metrics: metrics.New(),
	}

	if cfg.Store.Enabled {
		s, err := store.New(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		r.store = s

		rec, err := store.NewRecorder(s, store.RoleReceiver, cfg.Link.Listen, log.With().Str("component", "recorder").Logger())
		if err != nil {
			s.Close()
			return nil, err
		}
		r.recorder = rec
	}

	r.hub = server.NewEventHub(log.With().Str("component", "events").Logger(), r.metrics)

	hooks, err := r.newHooks()
	if err != nil {
		r.Close()
		return nil, err
	}
	r.hooks = hooks

	handlers := gesture.Handlers{r.hub, r.hooks}
	if r.recorder != nil {
		handlers = append(handlers, r.recorder)
	}
	r.dispatcher = gesture.NewDispatcher(handlers,
		gesture.WithLogger(log.With().Str("component", "dispatch").Logger()),
		gesture.WithCounter(r.metrics),
		gesture.WithTimer(r.metrics),
	)
	if err := r.registerClassifiers(); err != nil {
		r.Close()
		return nil, err
	}

	var sink server.FrameSink
	if cfg.Link.Mode == "poll" {
		r.latest = &server.Latest{}
		sink = r.latest
	} else {
		r.queue = server.NewFrameQueue(r.metrics.FramesDropped.Inc)
		sink = r.queue
	}

	linkCfg := server.LinkConfig{
		Transcoder: transcode.New(TranscodeConfig(cfg.Tracking)),
		Sink:       sink,
		Metrics:    r.metrics,
		Log:        log.With().Str("component", "link").Logger(),
	}
	if r.recorder != nil {
		linkCfg.Recorder = r.recorder
	}
	r.link = server.NewLinkHandler(linkCfg)

	r.server = server.New(server.Config{
		Addr:    cfg.Link.Listen,
		Link:    r.link,
		Events:  r.hub,
		Store:   r.store,
		Metrics: r.metrics,
		Log:     log.With().Str("component", "http").Logger(),
	})
	return r, nil
}

func (r *Receiver) newHooks() (*plugin.Hooks, error) {
	mgr := plugin.NewManager(r.cfg.Plugins.Dir, r.log.With().Str("component", "plugins").Logger())
	if err := mgr.Discover(); err != nil {
		return nil, fmt.Errorf("failed to discover plugins: %w", err)
	}

	static, err := StaticBindings(r.cfg.Plugins.Bindings)
	if err != nil {
		return nil, err
	}
	sources := []plugin.BindingSource{static}
	if r.store != nil {
		sources = append(sources, plugin.StoreBindings{Store: r.store})
	}

	return plugin.NewHooks(mgr, plugin.NewExecutor(r.cfg.Plugins.Timeout),
		r.log.With().Str("component", "hooks").Logger(), r.metrics, sources...), nil
}

func (r *Receiver) registerClassifiers() error {
	stateLog := r.log.With().Str("component", "classifier").Logger()
	for _, name := range r.cfg.Gesture.Enabled {
		c, err := gesture.NewClassifier(gesture.Kind(name), r.cfg.Gesture.NearThreshold,
			gesture.WithDirectionRatio(r.cfg.Gesture.DirectionRatio),
			gesture.WithStateHook(func(k gesture.Kind, from, to gesture.State) {
				stateLog.Trace().Str("gesture", string(k)).Stringer("from", from).Stringer("to", to).Msg("state")
			}),
		)
		if err != nil {
			return err
		}
		r.dispatcher.Register(c)
	}
	return nil
}

// Listen binds the HTTP address ahead of Run.
func (r *Receiver) Listen() (net.Addr, error) {
	return r.server.Listen()
}

// Metrics returns the receiver's metrics.
func (r *Receiver) Metrics() *metrics.Metrics {
	return r.metrics
}

// Dispatcher returns the receiver's gesture dispatcher.
func (r *Receiver) Dispatcher() *gesture.Dispatcher {
	return r.dispatcher
}

// SessionID returns the recorded session, or "" when recording is off.
func (r *Receiver) SessionID() string {
	if r.recorder == nil {
		return ""
	}
	return r.recorder.SessionID()
}

// Run serves until ctx is done.
func (r *Receiver) Run(ctx context.Context) error {
	sup := newSupervisor("receiver", r.log)
	sup.Add(r.server)
	if r.queue != nil {
		sup.Add(&pushPump{dispatcher: r.dispatcher, queue: r.queue})
	} else {
		sup.Add(&Poller{dispatcher: r.dispatcher, latest: r.latest, interval: r.cfg.Link.PollInterval})
	}
	sup.Add(r.hooks)

	r.log.Info().
		Str("listen", r.cfg.Link.Listen).
		Str("mode", r.cfg.Link.Mode).
		Strs("gestures", r.cfg.Gesture.Enabled).
		Msg("receiver starting")
	return finish(sup.Serve(ctx))
}

// Close ends the recorded session and closes the store.
func (r *Receiver) Close() error {
	var errs []error
	if r.recorder != nil {
		errs = append(errs, r.recorder.Close())
	}
	if r.store != nil {
		errs = append(errs, r.store.Close())
	}
	return errors.Join(errs...)
}

// TranscodeConfig maps the tracking section onto the world-space mapping.
func TranscodeConfig(t config.TrackingConfig) transcode.Config {
	return transcode.Config{
		Offset:        r3.Vector{X: t.OffsetX, Y: t.OffsetY, Z: t.OffsetZ},
		Mirror:        t.Mirror,
		MinConfidence: t.MinConfidence,
	}
}

// StaticBindings converts configured bindings for the plugin hooks.
func StaticBindings(bs []config.BindingConfig) (plugin.StaticBindings, error) {
	out := make(plugin.StaticBindings, 0, len(bs))
	for _, b := range bs {
		t, err := gesture.ParseEventType(b.Event)
		if err != nil {
			return nil, fmt.Errorf("binding %s/%s: %w", b.Gesture, b.Event, err)
		}
		var params json.RawMessage
		if len(b.Params) > 0 {
			if params, err = json.Marshal(b.Params); err != nil {
				return nil, fmt.Errorf("binding %s/%s params: %w", b.Gesture, b.Event, err)
			}
		}
		out = append(out, plugin.Binding{
			Gesture: b.Gesture,
			Event:   t.String(),
			Trigger: b.Trigger,
			Plugin:  b.Plugin,
			Action:  b.Action,
			Params:  params,
		})
	}
	return out, nil
}
