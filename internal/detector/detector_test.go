package detector

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "default", modify: func(c *Config) {}},
		{name: "single hand", modify: func(c *Config) { c.MaxHands = 1 }},
		{name: "lite model", modify: func(c *Config) { c.ModelComplexity = 0 }},
		{name: "zero hands", modify: func(c *Config) { c.MaxHands = 0 }, wantErr: true},
		{name: "three hands", modify: func(c *Config) { c.MaxHands = 3 }, wantErr: true},
		{name: "complexity 2", modify: func(c *Config) { c.ModelComplexity = 2 }, wantErr: true},
		{name: "negative confidence", modify: func(c *Config) { c.MinConfidence = -0.1 }, wantErr: true},
		{name: "tracking above one", modify: func(c *Config) { c.MinTrackingConf = 1.5 }, wantErr: true},
		{name: "confidence bounds inclusive", modify: func(c *Config) {
			c.MinConfidence = 0
			c.MinTrackingConf = 1
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestPresetConfigs(t *testing.T) {
	counter := DefaultConfig()
	if counter.MaxHands != 2 || counter.MinConfidence != 0.5 || counter.MinTrackingConf != 0.5 {
		t.Errorf("unexpected counter config: %+v", counter)
	}

	game := GameConfig()
	if game.MaxHands != 1 || game.MinConfidence != 0.7 || game.MinTrackingConf != 0.7 {
		t.Errorf("unexpected game config: %+v", game)
	}
	if counter.ModelComplexity != 1 || game.ModelComplexity != 1 {
		t.Error("expected full model for both presets")
	}
}

func TestParseResponse(t *testing.T) {
	twoHands := `{"hands":[` +
		`{"points":[{"x":0.1,"y":0.2,"z":0}],"handedness":"Left","score":0.9},` +
		`{"points":[{"x":0.5,"y":0.6,"z":0}],"handedness":"Right","score":0.8}]}`

	t.Run("no hands", func(t *testing.T) {
		hands, err := parseResponse([]byte(`{"hands":[]}`), 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 0 {
			t.Errorf("expected 0 hands, got %d", len(hands))
		}
	})

	t.Run("two hands", func(t *testing.T) {
		hands, err := parseResponse([]byte(twoHands), 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 2 {
			t.Fatalf("expected 2 hands, got %d", len(hands))
		}
		if hands[0].Handedness != "Left" || hands[0].Score != 0.9 {
			t.Errorf("unexpected first hand: %+v", hands[0])
		}
		if hands[1].Points[Wrist].X != 0.5 {
			t.Errorf("expected wrist x 0.5, got %f", hands[1].Points[Wrist].X)
		}
	})

	t.Run("capped at max hands", func(t *testing.T) {
		hands, err := parseResponse([]byte(twoHands), 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 1 {
			t.Errorf("expected 1 hand, got %d", len(hands))
		}
	})

	t.Run("hand without points skipped", func(t *testing.T) {
		hands, err := parseResponse([]byte(`{"hands":[{"points":[],"handedness":"Left"}]}`), 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 0 {
			t.Errorf("expected empty hand to be skipped, got %d", len(hands))
		}
	})

	t.Run("extra points truncated", func(t *testing.T) {
		var b strings.Builder
		b.WriteString(`{"hands":[{"points":[`)
		for i := 0; i < NumLandmarks+3; i++ {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(`{"x":0.5,"y":0.5,"z":0}`)
		}
		b.WriteString(`]}]}`)

		hands, err := parseResponse([]byte(b.String()), 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 1 {
			t.Fatalf("expected 1 hand, got %d", len(hands))
		}
	})

	t.Run("service error", func(t *testing.T) {
		_, err := parseResponse([]byte(`{"hands":[],"error":"model crashed"}`), 2)
		if err == nil || !strings.Contains(err.Error(), "model crashed") {
			t.Errorf("expected service error, got %v", err)
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		if _, err := parseResponse([]byte(`{not json`), 2); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestFrameResult_HasHands(t *testing.T) {
	if (FrameResult{}).HasHands() {
		t.Error("empty frame should report no hands")
	}
	if !(FrameResult{Hands: []HandLandmarks{OpenPalmLandmarks()}}).HasHands() {
		t.Error("frame with a hand should report hands")
	}
}

func TestLandmarkHelpers(t *testing.T) {
	t.Run("mirror swaps handedness and x", func(t *testing.T) {
		palm := OpenPalmLandmarks()
		mirrored := MirrorLandmarks(palm)
		if mirrored.Handedness != "Left" {
			t.Errorf("expected Left, got %s", mirrored.Handedness)
		}
		if got, want := mirrored.Points[ThumbTip].X, 1-palm.Points[ThumbTip].X; got != want {
			t.Errorf("expected mirrored thumb x %f, got %f", want, got)
		}
		if mirrored.Points[IndexTip].Y != palm.Points[IndexTip].Y {
			t.Error("mirror should not change y")
		}
	})

	t.Run("wrist translation", func(t *testing.T) {
		palm := OpenPalmLandmarks()
		moved := AtWristY(palm, 0.3)
		if moved.WristY() != 0.3 {
			t.Errorf("expected wrist at 0.3, got %f", moved.WristY())
		}
		gap := palm.Points[IndexPIP].Y - palm.Points[IndexTip].Y
		movedGap := moved.Points[IndexPIP].Y - moved.Points[IndexTip].Y
		if diff := gap - movedGap; diff > 1e-9 || diff < -1e-9 {
			t.Error("translation should preserve relative positions")
		}
	})
}

func TestMockDetector(t *testing.T) {
	m := NewMockDetector()
	m.SetHands([]HandLandmarks{FistLandmarks()})

	hands, err := m.Detect(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hands) != 1 {
		t.Errorf("expected 1 hand, got %d", len(hands))
	}

	m.SetError(errors.New("boom"))
	if _, err := m.Detect(nil); err == nil {
		t.Error("expected configured error")
	}
	if m.Calls() != 2 {
		t.Errorf("expected 2 calls, got %d", m.Calls())
	}

	m.Close()
	if !m.Closed() {
		t.Error("expected detector to be closed")
	}
}

func TestStubSession(t *testing.T) {
	t.Run("emit before start is dropped", func(t *testing.T) {
		s := NewStubSession()
		called := false
		s.OnResult(func(FrameResult) { called = true })
		if s.Emit(OpenPalmLandmarks()) {
			t.Error("expected emit to report not delivered")
		}
		if called {
			t.Error("callback should not run before Start")
		}
	})

	t.Run("emit delivers and caps hands", func(t *testing.T) {
		s := NewStubSession()
		if err := s.Configure(GameConfig()); err != nil {
			t.Fatalf("configure: %v", err)
		}

		var got FrameResult
		s.OnResult(func(r FrameResult) { got = r })
		if err := s.Start(context.Background()); err != nil {
			t.Fatalf("start: %v", err)
		}

		if !s.Emit(OpenPalmLandmarks(), FistLandmarks()) {
			t.Fatal("expected emit to deliver")
		}
		if len(got.Hands) != 1 {
			t.Errorf("expected hands capped at 1, got %d", len(got.Hands))
		}
		if got.Timestamp.IsZero() {
			t.Error("expected timestamp to be set")
		}
	})

	t.Run("configure while running", func(t *testing.T) {
		s := NewStubSession()
		s.Start(context.Background())
		if err := s.Configure(DefaultConfig()); !errors.Is(err, ErrSessionRunning) {
			t.Errorf("expected ErrSessionRunning, got %v", err)
		}
		s.Stop()
		if err := s.Configure(DefaultConfig()); err != nil {
			t.Errorf("configure after stop: %v", err)
		}
	})

	t.Run("invalid config rejected", func(t *testing.T) {
		s := NewStubSession()
		if err := s.Configure(Config{MaxHands: 5}); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("failed start", func(t *testing.T) {
		s := NewStubSession()
		s.FailStart(ErrDetectorUnavailable)
		err := s.Start(context.Background())
		if !errors.Is(err, ErrDetectorUnavailable) {
			t.Errorf("expected ErrDetectorUnavailable, got %v", err)
		}
		if s.Running() {
			t.Error("session should not be running after failed start")
		}
	})

	t.Run("stop halts delivery", func(t *testing.T) {
		s := NewStubSession()
		count := 0
		s.OnResult(func(FrameResult) { count++ })
		s.Start(context.Background())
		s.Emit()
		s.Stop()
		s.Emit()
		if count != 1 {
			t.Errorf("expected 1 delivery, got %d", count)
		}
	})
}
