package detector

import (
	"context"

	"github.com/ayusman/mudra/internal/hand"
	"github.com/ayusman/mudra/internal/transcode"
)

// Tracker turns a Detector into a world-space frame source, for pipelines
// that classify locally without the wire link.
type Tracker struct {
	detector   Detector
	cfg        Config
	transcoder *transcode.Transcoder
}

// NewTracker wraps d. A nil transcoder uses transcode.DefaultConfig.
func NewTracker(d Detector, cfg Config, t *transcode.Transcoder) *Tracker {
	if t == nil {
		t = transcode.New(transcode.DefaultConfig())
	}
	return &Tracker{detector: d, cfg: cfg, transcoder: t}
}

// Track returns the next frame in world space.
func (t *Tracker) Track(ctx context.Context) (hand.Frame, error) {
	d, err := t.detector.Detect(ctx)
	if err != nil {
		return hand.Frame{}, err
	}
	return t.transcoder.ToWorld(t.cfg.Frame(d), d.Depth), nil
}

// Close closes the underlying detector.
func (t *Tracker) Close() error {
	return t.detector.Close()
}

// WorldSource produces frames that are already in world space.
type WorldSource interface {
	Track(ctx context.Context) (hand.Frame, error)
	Close() error
}

// WorldDetector exposes a world-space source as a Detector, so that its
// frames can be sent over the wire in image space.
type WorldDetector struct {
	source     WorldSource
	transcoder *transcode.Transcoder
}

// NewWorldDetector wraps src. t must match the receiver's mapping for
// positions to survive the trip; nil uses transcode.DefaultConfig.
func NewWorldDetector(src WorldSource, t *transcode.Transcoder) *WorldDetector {
	if t == nil {
		t = transcode.New(transcode.DefaultConfig())
	}
	return &WorldDetector{source: src, transcoder: t}
}

// Detect returns the source's next frame, right hand first.
func (w *WorldDetector) Detect(ctx context.Context) (Detection, error) {
	f, err := w.source.Track(ctx)
	if err != nil {
		return Detection{}, err
	}
	img, depth := w.transcoder.ToImage(f)
	d := Detection{Depth: depth}
	for _, h := range img.Hands {
		if h != nil {
			d.Hands = append(d.Hands, h)
		}
	}
	return d, nil
}

// Close closes the source.
func (w *WorldDetector) Close() error {
	return w.source.Close()
}
