package detector

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/hand"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/transcode"
	"github.com/ayusman/mudra/internal/wire"
)

func TestMockDetector(t *testing.T) {
	ctx := context.Background()

	t.Run("returns empty hands by default", func(t *testing.T) {
		mock := NewMockDetector()

		d, err := mock.Detect(ctx)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if d.Hands != nil {
			t.Errorf("expected nil hands, got %v", d.Hands)
		}
	})

	t.Run("returns configured hands", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands(ShakaHand(), OpenHand())
		mock.SetDepth(0.4)

		d, err := mock.Detect(ctx)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(d.Hands) != 2 {
			t.Errorf("expected 2 hands, got %d", len(d.Hands))
		}
		if d.Depth != 0.4 {
			t.Errorf("expected depth 0.4, got %f", d.Depth)
		}
		if mock.Calls() != 1 {
			t.Errorf("expected 1 call, got %d", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		d, err := mock.Detect(ctx)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if d.Hands != nil {
			t.Errorf("expected nil hands when error is set, got %v", d.Hands)
		}
	})

	t.Run("Close returns nil", func(t *testing.T) {
		if err := NewMockDetector().Close(); err != nil {
			t.Errorf("expected Close to return nil, got %v", err)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
		var _ Detector = (*ScriptDetector)(nil)
		var _ Detector = (*ReplayDetector)(nil)
	})
}

func TestConfigFrame(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultSide = hand.Left

	f := cfg.Frame(Detection{Hands: []*hand.Hand2D{ShakaHand()}})
	if f.Hand(hand.Left) == nil {
		t.Error("lone hand should take the default side")
	}

	cfg.MaxHands = 1
	f = cfg.Frame(Detection{Hands: []*hand.Hand2D{ShakaHand(), OpenHand()}})
	if f.Count() != 1 {
		t.Errorf("expected MaxHands to cap the frame at 1 hand, got %d", f.Count())
	}
}

// classify runs the preset through the receiver's path: transcode then one classifier frame.
func classify(h *hand.Hand2D, c gesture.Classifier) []gesture.Event {
	var events []gesture.Event
	d := gesture.NewDispatcher(gesture.HandlerFunc(func(e gesture.Event) { events = append(events, e) }))
	d.Register(c)

	var f hand.Frame2D
	f.Hands[hand.Right] = h
	d.Dispatch(transcode.New(transcode.DefaultConfig()).ToWorld(f, 0))
	return events
}

func TestPresets(t *testing.T) {
	t.Run("shaka begins shaka", func(t *testing.T) {
		events := classify(ShakaHand(), gesture.NewShaka())
		if len(events) != 1 || events[0].Type != gesture.Began {
			t.Errorf("expected one began event, got %v", events)
		}
	})

	t.Run("pencil begins draw", func(t *testing.T) {
		events := classify(PencilHand(), gesture.NewDraw(gesture.FakeNearThreshold))
		if len(events) != 1 || events[0].Type != gesture.Began {
			t.Errorf("expected one began event, got %v", events)
		}
	})

	t.Run("open hand clears canvas", func(t *testing.T) {
		events := classify(OpenHand(), gesture.NewDraw(gesture.FakeNearThreshold))
		if len(events) != 1 || events[0].Trigger != gesture.CanvasClear {
			t.Errorf("expected canvas clear, got %v", events)
		}
	})

	cursor := []struct {
		name string
		want gesture.CursorPose
	}{
		{"up", gesture.CursorUp},
		{"down", gesture.CursorDown},
		{"right", gesture.CursorRight},
		{"left", gesture.CursorLeft},
		{"fist", gesture.CursorFire},
	}
	for _, tt := range cursor {
		t.Run("cursor "+tt.name, func(t *testing.T) {
			h, err := Preset(tt.name)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			events := classify(h, gesture.NewCursor())
			if len(events) != 1 || events[0].Trigger != int(tt.want) {
				t.Errorf("expected trigger %d, got %v", tt.want, events)
			}
		})
	}

	t.Run("unknown preset", func(t *testing.T) {
		if _, err := Preset("wave"); err == nil {
			t.Error("expected error for unknown preset")
		}
		if len(PresetNames()) != 9 {
			t.Errorf("expected 9 presets, got %v", PresetNames())
		}
	})
}

func TestScriptDetector(t *testing.T) {
	ctx := context.Background()

	t.Run("holds and loops", func(t *testing.T) {
		s, err := ParseScript("shaka, none", 2, 0.3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []int{1, 1, 0, 0, 1}
		for i, n := range want {
			d, err := s.Detect(ctx)
			if err != nil {
				t.Fatalf("frame %d: unexpected error: %v", i, err)
			}
			if len(d.Hands) != n {
				t.Errorf("frame %d: expected %d hands, got %d", i, n, len(d.Hands))
			}
			if d.Depth != 0.3 {
				t.Errorf("frame %d: expected depth 0.3, got %f", i, d.Depth)
			}
		}
	})

	t.Run("once exhausts", func(t *testing.T) {
		s, err := ParseScript("fist", 1, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		s.Once()
		if _, err := s.Detect(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := s.Detect(ctx); !errors.Is(err, ErrExhausted) {
			t.Errorf("expected ErrExhausted, got %v", err)
		}
	})

	t.Run("returns copies", func(t *testing.T) {
		s := NewScriptDetector([]*hand.Hand2D{ShakaHand()}, 1, 0)
		d, _ := s.Detect(ctx)
		d.Hands[0].Clear(hand.Thumb, hand.Tip)
		d, _ = s.Detect(ctx)
		if d.Hands[0].At(hand.Thumb, hand.Tip) == nil {
			t.Error("script poses should not be shared with callers")
		}
	})

	t.Run("invalid scripts", func(t *testing.T) {
		if _, err := ParseScript("shaka,wave", 1, 0); err == nil {
			t.Error("expected error for unknown pose")
		}
		if _, err := ParseScript(" , ", 1, 0); err == nil {
			t.Error("expected error for empty script")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		s := NewScriptDetector([]*hand.Hand2D{nil}, 1, 0)
		if _, err := s.Detect(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestReplayDetector(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "replay.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	if err := s.Sessions().Create(&store.Session{ID: "rec", Role: store.RoleReceiver}); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	var both hand.Frame2D
	both.Hands[hand.Right] = PencilHand()
	both.Hands[hand.Left] = OpenHand()
	msg, err := wire.Encode(both, 0.25)
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}
	if err := s.Frames().AppendBatch("rec", 1, []string{msg, wire.NoData}); err != nil {
		t.Fatalf("failed to append frames: %v", err)
	}

	r, err := NewReplayDetector(s, "rec", false)
	if err != nil {
		t.Fatalf("failed to create replay: %v", err)
	}
	if r.Len() != 2 {
		t.Fatalf("expected 2 frames, got %d", r.Len())
	}

	ctx := context.Background()
	d, err := r.Detect(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.Hands) != 2 || d.Depth != 0.25 {
		t.Errorf("expected 2 hands at depth 0.25, got %d at %f", len(d.Hands), d.Depth)
	}

	d, err = r.Detect(ctx)
	if err != nil || len(d.Hands) != 0 {
		t.Errorf("expected empty detection, got %v, %v", d.Hands, err)
	}

	if _, err := r.Detect(ctx); !errors.Is(err, ErrExhausted) {
		t.Errorf("expected ErrExhausted, got %v", err)
	}

	if _, err := NewReplayDetector(s, "missing", false); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTracker(t *testing.T) {
	ctx := context.Background()

	s, err := ParseScript("shaka,none", 1, 0.25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tr := NewTracker(s.Once(), DefaultConfig(), nil)
	defer tr.Close()

	f, err := tr.Track(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	right := f.Hand(hand.Right)
	if right == nil {
		t.Fatal("expected the lone hand on the default side")
	}
	tip, ok := right.Get(hand.Little, hand.Tip)
	if !ok {
		t.Fatal("expected a little finger tip")
	}
	if tip.Z != 0.25 {
		t.Errorf("expected z 0.25, got %f", tip.Z)
	}
	src := ShakaHand().At(hand.Little, hand.Tip)
	if got, want := tip.Y, 1-src.Y; got != want {
		t.Errorf("expected flipped y %f, got %f", want, got)
	}

	f, err = tr.Track(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.Empty() {
		t.Error("expected an empty frame")
	}

	if _, err := tr.Track(ctx); !errors.Is(err, ErrExhausted) {
		t.Errorf("expected ErrExhausted, got %v", err)
	}
}

func TestWorldDetector(t *testing.T) {
	ctx := context.Background()

	s := NewScriptDetector([]*hand.Hand2D{PencilHand(), nil}, 1, 0.5).Once()
	w := NewWorldDetector(NewTracker(s, DefaultConfig(), nil), nil)
	defer w.Close()

	d, err := w.Detect(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.Hands) != 1 {
		t.Fatalf("expected 1 hand, got %d", len(d.Hands))
	}
	if d.Depth != 0.5 {
		t.Errorf("expected depth 0.5, got %f", d.Depth)
	}

	want := PencilHand()
	want.Each(func(f hand.Finger, j hand.Joint, o *hand.Observation) {
		got := d.Hands[0].At(f, j)
		if o == nil || got == nil {
			if (o == nil) != (got == nil) {
				t.Errorf("%s: presence mismatch", hand.Identifier(f, j))
			}
			return
		}
		if math.Abs(got.X-o.X) > 1e-9 || math.Abs(got.Y-o.Y) > 1e-9 {
			t.Errorf("%s: got (%f, %f), want (%f, %f)", hand.Identifier(f, j), got.X, got.Y, o.X, o.Y)
		}
	})

	d, err = w.Detect(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.Hands) != 0 {
		t.Errorf("expected no hands, got %d", len(d.Hands))
	}

	if _, err := w.Detect(ctx); !errors.Is(err, ErrExhausted) {
		t.Errorf("expected ErrExhausted, got %v", err)
	}
}
