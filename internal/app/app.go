// Package app wires a landmark session to the finger counter or the reflex
// game and owns the lifecycle of the game loop driver.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ayusman/handplay/internal/detector"
	"github.com/ayusman/handplay/internal/game"
	"github.com/ayusman/handplay/internal/gesture"
	"github.com/ayusman/handplay/internal/latest"
	"github.com/ayusman/handplay/internal/telemetry"
)

// Mode selects which consumer receives the landmark stream.
type Mode string

const (
	ModeCounter Mode = "counter"
	ModeGame    Mode = "game"
)

// DefaultLoopHz is the headless game loop rate, matching a 60Hz display.
const DefaultLoopHz = 60

// ErrUnknownMode is returned by New for a mode other than counter or game.
var ErrUnknownMode = errors.New("unknown mode")

// Config holds configuration options for the application.
type Config struct {
	Mode     Mode
	Detector detector.Config
	Game     game.Config

	// LoopHz is the rate of the internal game loop. Ignored when ExternalLoop is set.
	LoopHz int

	// ExternalLoop leaves game ticking to the caller via StepGame, as the
	// window renderer does at its own frame rate.
	ExternalLoop bool

	Logger  zerolog.Logger
	Metrics *telemetry.Metrics
	Rand    game.Rand
}

// CounterState is the finger counter's display state.
type CounterState struct {
	Total int    `json:"total"`
	Label string `json:"label"`
	Hands int    `json:"hands"`
}

// App is the main application that routes landmark frames to the active
// consumer and drives the game loop.
type App struct {
	config  Config
	session detector.Session
	logger  zerolog.Logger
	metrics *telemetry.Metrics

	counter *gesture.Counter
	game    *game.Game

	input     latest.Cell[game.Input]
	lastFrame latest.Cell[detector.FrameResult]

	enabled  bool
	mu       sync.RWMutex
	stopCh   chan struct{}
	loopDone chan struct{}
}

// New creates an App for the given session. The session is configured and
// started by Start.
func New(config Config, session detector.Session) (*App, error) {
	switch config.Mode {
	case ModeCounter, ModeGame:
	case "":
		config.Mode = ModeCounter
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, config.Mode)
	}
	if config.LoopHz <= 0 {
		config.LoopHz = DefaultLoopHz
	}

	a := &App{
		config:  config,
		session: session,
		logger:  config.Logger.With().Str("component", "app").Str("mode", string(config.Mode)).Logger(),
		metrics: config.Metrics,
		counter: gesture.NewCounter(),
		enabled: true,
	}

	opts := []game.Option{game.WithGameOver(a.roundFinished)}
	if config.Rand != nil {
		opts = append(opts, game.WithRand(config.Rand))
	}
	g, err := game.New(config.Game, opts...)
	if err != nil {
		return nil, fmt.Errorf("game config: %w", err)
	}
	a.game = g

	a.counter.OnChange(func(total int) {
		a.logger.Debug().Int("total", total).Str("label", gesture.Label(total)).Msg("finger count changed")
	})

	return a, nil
}

// Mode returns the active mode.
func (a *App) Mode() Mode {
	return a.config.Mode
}

// SetEnabled pauses or resumes frame handling and the game. Frames that
// arrive while paused are dropped; the session keeps running. Pausing
// clears the held game input so a resumed round waits for a fresh frame.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	a.enabled = enabled
	a.mu.Unlock()

	if !enabled {
		a.input.Store(game.Input{})
	}
}

// IsEnabled returns whether frame handling is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Start configures and starts the session and, in game mode without an
// external driver, the game loop. Calling Start on a running App is a no-op.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.session.Configure(a.config.Detector); err != nil {
		return fmt.Errorf("configure session: %w", err)
	}
	a.session.OnResult(a.handleFrame)
	if err := a.session.Start(ctx); err != nil {
		return err
	}

	a.stopCh = make(chan struct{})
	if a.config.Mode == ModeGame && !a.config.ExternalLoop {
		a.loopDone = make(chan struct{})
		go a.runGameLoop(a.stopCh, a.loopDone)
	}

	a.logger.Info().
		Int("maxHands", a.config.Detector.MaxHands).
		Bool("externalLoop", a.config.ExternalLoop).
		Msg("app started")
	return nil
}

// Stop halts the game loop and the session. The camera is released before
// Stop returns.
func (a *App) Stop() error {
	a.mu.Lock()
	stopCh, loopDone := a.stopCh, a.loopDone
	a.stopCh, a.loopDone = nil, nil
	a.mu.Unlock()

	if stopCh == nil {
		return nil
	}

	close(stopCh)
	if loopDone != nil {
		<-loopDone
	}

	if err := a.session.Stop(); err != nil {
		a.logger.Error().Err(err).Msg("error stopping session")
		return err
	}

	a.logger.Info().Msg("app stopped")
	return nil
}

// Running reports whether Start has been called without a matching Stop.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stopCh != nil
}

// Restart resets the game to its start screen.
func (a *App) Restart() {
	a.game.Restart()
	a.logger.Info().Str("round", a.game.Snapshot().Round).Msg("game restarted")
}

// Game returns the game instance.
func (a *App) Game() *game.Game {
	return a.game
}

// Counter returns the finger counter.
func (a *App) Counter() *gesture.Counter {
	return a.counter
}

// GameState returns a snapshot of the game.
func (a *App) GameState() game.Snapshot {
	return a.game.Snapshot()
}

// CounterState returns the finger counter's display state.
func (a *App) CounterState() CounterState {
	total := a.counter.Total()
	return CounterState{
		Total: total,
		Label: gesture.Label(total),
		Hands: a.counter.Hands(),
	}
}

// LastFrame returns the most recent frame delivered by the session.
func (a *App) LastFrame() (detector.FrameResult, bool) {
	return a.lastFrame.Load()
}

// Preview returns the latest JPEG camera frame if the session keeps one.
func (a *App) Preview() ([]byte, bool) {
	p, ok := a.session.(interface{ Preview() ([]byte, bool) })
	if !ok {
		return nil, false
	}
	return p.Preview()
}

func (a *App) roundFinished(s game.Snapshot) {
	a.metrics.RoundFinished(context.Background(), s.Score)
	a.logger.Info().
		Str("round", s.Round).
		Int("score", s.Score).
		Uint64("ticks", s.Ticks).
		Msg("game over")
}
