package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/hand"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/wire"
)

// SenderOptions selects the sender's tracking source.
type SenderOptions struct {
	// Detector overrides the configured source.
	Detector detector.Detector

	// Once stops a scripted source after one pass.
	Once bool
}

// Sender reads a tracking source and streams its frames to the receiver.
type Sender struct {
	cfg      *config.Config
	log      zerolog.Logger
	detector detector.Detector
	frames   detector.Config
	client   *server.Client

	store    *store.Store
	recorder *store.Recorder

	sent   atomic.Uint64
	failed atomic.Uint64
}

// NewSender builds a sender. Call Close when done.
func NewSender(cfg *config.Config, opts SenderOptions, log zerolog.Logger) (*Sender, error) {
	side, err := hand.ParseSide(cfg.Tracking.DefaultSide)
	if err != nil {
		return nil, err
	}

	s := &Sender{
		cfg: cfg,
		log: log,
		frames: detector.Config{
			MaxHands:      cfg.Tracking.MaxHands,
			MinConfidence: cfg.Tracking.MinConfidence,
			DefaultSide:   side,
		},
	}

	if cfg.Store.Enabled || cfg.Tracking.Replay != "" {
		st, err := store.New(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		s.store = st
	}

	s.detector = opts.Detector
	if s.detector == nil {
		d, err := s.openDetector(opts.Once)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.detector = d
	}

	if cfg.Store.Enabled {
		rec, err := store.NewRecorder(s.store, store.RoleSender, cfg.Link.Peer, log.With().Str("component", "recorder").Logger())
		if err != nil {
			s.Close()
			return nil, err
		}
		s.recorder = rec
	}

	s.client = server.NewClient(cfg.Link.Peer, cfg.Link.WriteTimeout, log.With().Str("component", "link").Logger())
	return s, nil
}

func (s *Sender) openDetector(once bool) (detector.Detector, error) {
	t := s.cfg.Tracking
	if t.Replay != "" {
		rd, err := detector.NewReplayDetector(s.store, t.Replay, !once)
		if err != nil {
			return nil, err
		}
		return rd, nil
	}
	sd, err := detector.ParseScript(t.Script, t.Hold, t.ZDepth)
	if err != nil {
		return nil, err
	}
	if once {
		sd.Once()
	}
	return sd, nil
}

// Sent returns how many frames reached the receiver.
func (s *Sender) Sent() uint64 {
	return s.sent.Load()
}

// Step reads one sample and sends it. It returns detector.ErrExhausted when
// the source has ended.
func (s *Sender) Step(ctx context.Context) error {
	d, err := s.detector.Detect(ctx)
	if err != nil {
		return err
	}

	payload, err := wire.Encode(s.frames.Frame(d), d.Depth)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	if s.recorder != nil {
		s.recorder.RecordFrame(payload, d.Depth)
	}

	if err := s.client.Send(ctx, payload); err != nil {
		s.failed.Add(1)
		return err
	}
	s.sent.Add(1)
	return nil
}

// Serve sends one frame per SendInterval. Send failures wait ReconnectDelay
// before the next attempt; an exhausted source ends the supervisor tree.
func (s *Sender) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Link.SendInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		err := s.Step(ctx)
		switch {
		case err == nil:
		case errors.Is(err, detector.ErrExhausted):
			s.log.Info().Uint64("sent", s.sent.Load()).Msg("tracking source exhausted")
			return suture.ErrTerminateSupervisorTree
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			s.log.Warn().Err(err).Dur("retry_in", s.cfg.Link.ReconnectDelay).Msg("send failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.cfg.Link.ReconnectDelay):
			}
		}
	}
}

func (s *Sender) String() string { return "sender" }

// Run streams until ctx is done or the source is exhausted.
func (s *Sender) Run(ctx context.Context) error {
	sup := newSupervisor("sender", s.log)
	sup.Add(s)

	s.log.Info().
		Str("peer", s.cfg.Link.Peer).
		Dur("interval", s.cfg.Link.SendInterval).
		Msg("sender starting")
	err := finish(sup.Serve(ctx))
	s.log.Info().Uint64("sent", s.sent.Load()).Uint64("failed", s.failed.Load()).Msg("sender stopped")
	return err
}

// Close releases the link, the source and the store.
func (s *Sender) Close() error {
	var errs []error
	if s.client != nil {
		errs = append(errs, s.client.Close())
	}
	if s.detector != nil {
		errs = append(errs, s.detector.Close())
	}
	if s.recorder != nil {
		errs = append(errs, s.recorder.Close())
	}
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	return errors.Join(errs...)
}
