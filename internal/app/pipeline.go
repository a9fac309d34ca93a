package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/server"
)

// Supervisor failure parameters, matching suture's defaults except for a
// shorter backoff so that a lost peer is retried quickly.
const (
	failureThreshold = 5
	failureDecay     = 30
	failureBackoff   = 2 * time.Second
	stopTimeout      = 10 * time.Second
)

func newSupervisor(name string, log zerolog.Logger) *suture.Supervisor {
	return suture.New(name, suture.Spec{
		EventHook:        eventHook(log.With().Str("component", "supervisor").Logger()),
		FailureThreshold: failureThreshold,
		FailureDecay:     failureDecay,
		FailureBackoff:   failureBackoff,
		Timeout:          stopTimeout,
	})
}

// eventHook logs supervisor events through zerolog.
func eventHook(log zerolog.Logger) suture.EventHook {
	return func(e suture.Event) {
		ev := log.Warn()
		if e.Type() == suture.EventTypeResume {
			ev = log.Info()
		}
		ev.Fields(e.Map()).Msg(e.String())
	}
}

// finish maps a supervisor's exit to Run's result: cancellation and an
// orderly end of input are not errors.
func finish(err error) error {
	if err == nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, suture.ErrTerminateSupervisorTree) {
		return nil
	}
	return err
}

// pushPump classifies every queued frame as it arrives.
type pushPump struct {
	dispatcher *gesture.Dispatcher
	queue      *server.FrameQueue
}

func (p *pushPump) Serve(ctx context.Context) error {
	return p.dispatcher.Run(ctx, p.queue.Frames())
}

func (p *pushPump) String() string { return "pump:push" }

// Poller classifies the most recent frame on a fixed interval. Frames that
// arrive between ticks are skipped, and a tick without a new frame does nothing.
type Poller struct {
	dispatcher *gesture.Dispatcher
	latest     *server.Latest
	interval   time.Duration

	seen uint64
}

// NewPoller creates a Poller.
func NewPoller(d *gesture.Dispatcher, latest *server.Latest, interval time.Duration) *Poller {
	return &Poller{dispatcher: d, latest: latest, interval: interval}
}

// Poll dispatches the latest frame if it is new and reports whether it did.
func (p *Poller) Poll() bool {
	f, seq := p.latest.Load()
	if seq == p.seen {
		return false
	}
	p.seen = seq
	p.dispatcher.Dispatch(f)
	return true
}

// Serve polls until ctx is done.
func (p *Poller) Serve(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.Poll()
		}
	}
}

func (p *Poller) String() string { return "pump:poll" }
