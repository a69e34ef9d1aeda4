package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/ayusman/handplay/internal/capture"
	"github.com/ayusman/handplay/internal/detector"
	"github.com/ayusman/handplay/internal/game"
	"github.com/ayusman/handplay/internal/telemetry"
)

type fixedRand float64

func (r fixedRand) Float64() float64 { return float64(r) }

func newTestApp(t *testing.T, mode Mode, external bool) (*App, *detector.StubSession) {
	t.Helper()

	det := detector.DefaultConfig()
	if mode == ModeGame {
		det = detector.GameConfig()
	}

	session := detector.NewStubSession()
	a, err := New(Config{
		Mode:         mode,
		Detector:     det,
		Game:         game.DefaultConfig(),
		LoopHz:       200,
		ExternalLoop: external,
		Logger:       zerolog.Nop(),
		Rand:         fixedRand(0.5),
	}, session)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { a.Stop() })
	return a, session
}

func TestNew_Modes(t *testing.T) {
	tests := []struct {
		name    string
		mode    Mode
		want    Mode
		wantErr bool
	}{
		{"counter", ModeCounter, ModeCounter, false},
		{"game", ModeGame, ModeGame, false},
		{"empty defaults to counter", "", ModeCounter, false},
		{"unknown", "karaoke", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(Config{Mode: tt.mode, Game: game.DefaultConfig(), Logger: zerolog.Nop()}, detector.NewStubSession())
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownMode) {
					t.Errorf("expected ErrUnknownMode, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if a.Mode() != tt.want {
				t.Errorf("Mode() = %s, want %s", a.Mode(), tt.want)
			}
		})
	}
}

func TestNew_InvalidGameConfig(t *testing.T) {
	cfg := game.DefaultConfig()
	cfg.Speed = 0
	if _, err := New(Config{Game: cfg, Logger: zerolog.Nop()}, detector.NewStubSession()); err == nil {
		t.Error("expected error for invalid game config")
	}
}

func TestApp_Counter(t *testing.T) {
	a, session := newTestApp(t, ModeCounter, false)

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if session.Config() != detector.DefaultConfig() {
		t.Errorf("session configured with %+v, want counter defaults", session.Config())
	}

	three := detector.PoseLandmarks([5]bool{false, true, true, true, false})
	session.Emit(detector.OpenPalmLandmarks(), detector.MirrorLandmarks(three))

	state := a.CounterState()
	if state.Total != 8 || state.Label != "Two hands!" || state.Hands != 2 {
		t.Errorf("CounterState() = %+v, want 8 / Two hands! / 2", state)
	}

	session.Emit()
	state = a.CounterState()
	if state.Total != 0 || state.Label != "Show your hand!" {
		t.Errorf("CounterState() after empty frame = %+v", state)
	}

	if _, ok := a.LastFrame(); !ok {
		t.Error("expected last frame to be recorded")
	}

	// counter mode never ticks the game
	if a.GameState().Phase != game.NotStarted {
		t.Error("game should not run in counter mode")
	}

	if err := a.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if session.Running() {
		t.Error("session should be stopped")
	}
}

func TestApp_GameSteppedExternally(t *testing.T) {
	a, session := newTestApp(t, ModeGame, true)

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if session.Config().MaxHands != 1 {
		t.Errorf("game session MaxHands = %d, want 1", session.Config().MaxHands)
	}

	// no frames yet: the game waits
	if phase := a.StepGame(); phase != game.NotStarted {
		t.Fatalf("StepGame() = %s before any frame, want not_started", phase)
	}

	session.Emit(detector.AtWristY(detector.OpenPalmLandmarks(), 0.5))
	if phase := a.StepGame(); phase != game.Running {
		t.Fatalf("StepGame() = %s after hand, want running", phase)
	}
	a.StepGame()
	if y := a.GameState().AvatarY; y < 299.99 || y > 300.01 {
		t.Errorf("AvatarY = %f, want 300", y)
	}

	// hand leaves: avatar holds position
	session.Emit()
	a.StepGame()
	s := a.GameState()
	if s.HandDetected {
		t.Error("expected hand-detected flag to clear")
	}
	if s.AvatarY < 299.99 || s.AvatarY > 300.01 {
		t.Errorf("AvatarY = %f, want held at 300", s.AvatarY)
	}

	// steering into the ceiling ends the round
	session.Emit(detector.AtWristY(detector.OpenPalmLandmarks(), 0))
	if phase := a.StepGame(); phase != game.GameOver {
		t.Fatalf("StepGame() = %s, want game_over", phase)
	}

	// a visible hand does not restart a finished game
	session.Emit(detector.AtWristY(detector.OpenPalmLandmarks(), 0.5))
	if phase := a.StepGame(); phase != game.GameOver {
		t.Errorf("StepGame() = %s, want game_over to hold", phase)
	}

	a.Restart()
	if a.GameState().Phase != game.NotStarted {
		t.Fatal("Restart should return to not_started")
	}
	if phase := a.StepGame(); phase != game.Running {
		t.Errorf("StepGame() = %s after restart with hand, want running", phase)
	}
}

func TestApp_GameLoop(t *testing.T) {
	a, session := newTestApp(t, ModeGame, false)

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	session.Emit(detector.AtWristY(detector.OpenPalmLandmarks(), 0.5))

	deadline := time.Now().Add(2 * time.Second)
	for a.GameState().Ticks < 5 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if a.GameState().Ticks < 5 {
		t.Fatal("game loop did not advance")
	}

	if err := a.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	ticks := a.GameState().Ticks
	time.Sleep(30 * time.Millisecond)
	if a.GameState().Ticks != ticks {
		t.Error("game loop kept ticking after Stop")
	}
	if a.Running() {
		t.Error("Running() should be false after Stop")
	}
}

func TestApp_Disabled(t *testing.T) {
	a, session := newTestApp(t, ModeCounter, false)
	a.Start(context.Background())

	a.SetEnabled(false)
	if a.IsEnabled() {
		t.Fatal("expected app to be disabled")
	}
	session.Emit(detector.OpenPalmLandmarks())
	if a.CounterState().Total != 0 {
		t.Error("frames should be dropped while disabled")
	}

	a.SetEnabled(true)
	session.Emit(detector.OpenPalmLandmarks())
	if a.CounterState().Total != 5 {
		t.Errorf("Total = %d, want 5", a.CounterState().Total)
	}
}

func TestApp_PauseFreezesGame(t *testing.T) {
	a, session := newTestApp(t, ModeGame, true)
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// near the ceiling: left running, the round would end within a few hundred ticks
	session.Emit(detector.AtWristY(detector.OpenPalmLandmarks(), 100.0/600))
	for i := 0; i < 10; i++ {
		a.StepGame()
	}
	before := a.GameState()
	if before.Phase != game.Running {
		t.Fatalf("phase = %s before pause, want running", before.Phase)
	}

	a.SetEnabled(false)
	for i := 0; i < 500; i++ {
		if phase := a.StepGame(); phase != game.Running {
			t.Fatalf("StepGame() = %s while paused, want running", phase)
		}
	}

	after := a.GameState()
	if after.Ticks != before.Ticks {
		t.Errorf("Ticks = %d after pause, want %d", after.Ticks, before.Ticks)
	}
	if len(after.Obstacles) != len(before.Obstacles) || after.Obstacles[0].X != before.Obstacles[0].X {
		t.Error("obstacles moved while paused")
	}

	// resuming without a fresh frame sees no hand
	a.SetEnabled(true)
	a.StepGame()
	if a.GameState().HandDetected {
		t.Error("held input should be cleared by pausing")
	}
	if a.GameState().Ticks != before.Ticks+1 {
		t.Errorf("Ticks = %d after resume, want %d", a.GameState().Ticks, before.Ticks+1)
	}
}

func TestApp_RoundFinishedMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())
	metrics, err := telemetry.NewWithProvider(mp)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}

	session := detector.NewStubSession()
	a, err := New(Config{
		Mode:         ModeGame,
		Detector:     detector.GameConfig(),
		Game:         game.DefaultConfig(),
		ExternalLoop: true,
		Logger:       zerolog.Nop(),
		Metrics:      metrics,
		Rand:         fixedRand(0.5),
	}, session)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Stop()
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	session.Emit(detector.AtWristY(detector.OpenPalmLandmarks(), 0.5))
	a.StepGame()
	session.Emit(detector.AtWristY(detector.OpenPalmLandmarks(), 0))
	if phase := a.StepGame(); phase != game.GameOver {
		t.Fatalf("StepGame() = %s, want game_over", phase)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	var rounds int64
	var scores uint64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				if m.Name == "handplay.game.rounds" {
					for _, dp := range data.DataPoints {
						rounds += dp.Value
					}
				}
			case metricdata.Histogram[int64]:
				if m.Name == "handplay.game.score" {
					for _, dp := range data.DataPoints {
						scores += dp.Count
					}
				}
			}
		}
	}
	if rounds != 1 {
		t.Errorf("rounds = %d, want 1", rounds)
	}
	if scores != 1 {
		t.Errorf("score observations = %d, want 1", scores)
	}
}

func TestApp_StartErrors(t *testing.T) {
	a, session := newTestApp(t, ModeGame, false)
	session.FailStart(capture.ErrCameraUnavailable)

	err := a.Start(context.Background())
	if !errors.Is(err, capture.ErrCameraUnavailable) {
		t.Fatalf("expected ErrCameraUnavailable, got %v", err)
	}
	if a.Running() {
		t.Error("app should not be running after a failed start")
	}
}

func TestApp_StartTwice(t *testing.T) {
	a, _ := newTestApp(t, ModeCounter, false)

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}
	if err := a.Start(context.Background()); err != nil {
		t.Errorf("second Start() error = %v", err)
	}
}

func TestApp_PreviewWithoutCamera(t *testing.T) {
	a, _ := newTestApp(t, ModeCounter, false)
	if _, ok := a.Preview(); ok {
		t.Error("stub session should not provide a preview")
	}
}

func TestInputFrom(t *testing.T) {
	if in := inputFrom(detector.FrameResult{}); in.Detected {
		t.Error("empty frame should not report a hand")
	}

	first := detector.AtWristY(detector.OpenPalmLandmarks(), 0.25)
	second := detector.AtWristY(detector.FistLandmarks(), 0.75)
	in := inputFrom(detector.FrameResult{Hands: []detector.HandLandmarks{first, second}})
	if !in.Detected || in.HandY != first.WristY() {
		t.Errorf("inputFrom() = %+v, want first hand at %f", in, first.WristY())
	}
}
