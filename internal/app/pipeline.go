package app

import (
	"time"

	"github.com/ayusman/handplay/internal/detector"
	"github.com/ayusman/handplay/internal/game"
)

// handleFrame receives every FrameResult from the session goroutine.
// Counter mode updates the display total directly; game mode only records
// the control input for the next loop tick.
func (a *App) handleFrame(frame detector.FrameResult) {
	if !a.IsEnabled() {
		return
	}

	a.lastFrame.Store(frame)

	switch a.config.Mode {
	case ModeCounter:
		a.counter.Observe(frame)
	case ModeGame:
		a.input.Store(inputFrom(frame))
	}
}

// inputFrom derives the game control signal from a frame. The first hand
// steers; with no hand the input reports nothing detected.
func inputFrom(frame detector.FrameResult) game.Input {
	if !frame.HasHands() {
		return game.Input{}
	}
	return game.Input{
		HandY:    frame.Hands[0].WristY(),
		Detected: true,
	}
}

// StepGame advances the game by one tick using the latest input.
// It never blocks on the detector: a tick before any frame has arrived
// sees no hand. While paused the game is frozen and the tick is skipped.
func (a *App) StepGame() game.Phase {
	if !a.IsEnabled() {
		return a.game.Phase()
	}
	return a.game.Tick(a.input.LoadOr(game.Input{}))
}

// runGameLoop ticks the game at the configured rate until stopCh closes.
func (a *App) runGameLoop(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	interval := time.Second / time.Duration(a.config.LoopHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.logger.Debug().Dur("interval", interval).Msg("game loop started")

	for {
		select {
		case <-stopCh:
			a.logger.Debug().Msg("game loop stopped")
			return
		case <-ticker.C:
			a.StepGame()
		}
	}
}
