// Package tray provides a system tray status item for handplay.
package tray

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"github.com/ayusman/handplay/internal/app"
	"github.com/ayusman/handplay/internal/game"
)

// Tray represents the system tray application.
type Tray struct {
	mode      app.Mode
	onToggle  func(enabled bool)
	onRestart func()
	onOpen    func()
	onQuit    func()
	enabled   bool
	status    string
	mu        sync.RWMutex

	// Menu items stored for later updates
	menuToggle  *systray.MenuItem
	menuStatus  *systray.MenuItem
	menuRestart *systray.MenuItem
}

// New creates a new Tray for mode with detection enabled.
func New(mode app.Mode) *Tray {
	return &Tray{
		mode:    mode,
		enabled: true,
		status:  "Starting...",
	}
}

// OnToggle sets the callback function to be called when detection is paused or resumed.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnRestart sets the callback for the Restart game menu item.
func (t *Tray) OnRestart(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onRestart = fn
}

// OnOpen sets the callback for the Open in browser menu item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called and must run on the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray, unblocking Run.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("handplay")
	systray.SetTooltip(fmt.Sprintf("handplay (%s)", t.mode))

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem("● Detecting", "Pause or resume hand detection")
	systray.AddSeparator()

	t.menuStatus = systray.AddMenuItem(t.status, "Current state")
	t.menuStatus.Disable()
	systray.AddSeparator()

	t.menuRestart = systray.AddMenuItem("Restart game", "Start a new round")
	if t.mode != app.ModeGame {
		t.menuRestart.Hide()
	}
	t.mu.Unlock()

	menuOpen := systray.AddMenuItem("Open in browser...", "Open the live view")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit handplay")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-t.menuRestart.ClickedCh:
				t.invoke(func() func() { return t.onRestart })
			case <-menuOpen.ClickedCh:
				t.invoke(func() func() { return t.onOpen })
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

// handleToggle flips the enabled state and notifies the toggle callback.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if t.menuToggle != nil {
		if enabled {
			t.menuToggle.SetTitle("● Detecting")
		} else {
			t.menuToggle.SetTitle("○ Paused")
		}
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// invoke reads a callback under the lock and calls it outside.
func (t *Tray) invoke(get func() func()) {
	t.mu.RLock()
	callback := get()
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.invoke(func() func() { return t.onQuit })
	systray.Quit()
}

// SetStatus updates the status line in the menu.
func (t *Tray) SetStatus(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status = text
	if t.menuStatus != nil {
		t.menuStatus.SetTitle(text)
	}
}

// Status returns the current status line.
func (t *Tray) Status() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// StateSource provides the state summarised in the tray.
type StateSource interface {
	Mode() app.Mode
	CounterState() app.CounterState
	GameState() game.Snapshot
}

// Watch refreshes the status line from src every interval until ctx is done.
func (t *Tray) Watch(ctx context.Context, src StateSource, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		t.SetStatus(StatusText(src))
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// StatusText summarises the application state in one line.
func StatusText(src StateSource) string {
	if src.Mode() == app.ModeGame {
		s := src.GameState()
		switch s.Phase {
		case game.NotStarted:
			return "Waiting for a hand"
		case game.GameOver:
			return fmt.Sprintf("Game over: %d", s.Score)
		default:
			return fmt.Sprintf("Score: %d", s.Score)
		}
	}

	c := src.CounterState()
	return fmt.Sprintf("%d · %s", c.Total, c.Label)
}
