// Package game implements the hand-steered side-scrolling reflex game.
// The simulation is frame-count based: one Tick advances every motion by a
// fixed amount, whatever the wall-clock interval between ticks.
package game

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
)

// Phase is the game's state machine position.
type Phase int

const (
	NotStarted Phase = iota
	Running
	GameOver
)

func (p Phase) String() string {
	switch p {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case GameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name written by MarshalText.
func (p *Phase) UnmarshalText(text []byte) error {
	for _, candidate := range []Phase{NotStarted, Running, GameOver} {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// Input is the control signal for one tick: the normalized wrist height of
// the latest detected hand, and whether any hand was detected at all.
type Input struct {
	HandY    float64 `json:"handY"`
	Detected bool    `json:"detected"`
}

// Rand is the random source used to place obstacle gaps.
type Rand interface {
	// Float64 returns a value in [0,1).
	Float64() float64
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// Game holds the full game state. It is safe for concurrent use, but is
// meant to be advanced by a single loop driver.
type Game struct {
	mu  sync.Mutex
	cfg Config
	rng Rand

	avatarY      float64
	obstacles    []Obstacle
	score        int
	phase        Phase
	round        uuid.UUID
	ticks        uint64
	handDetected bool

	onOver func(Snapshot)
}

// Option configures a Game.
type Option func(*Game)

// WithRand replaces the random source.
func WithRand(r Rand) Option {
	return func(g *Game) {
		g.rng = r
	}
}

// WithGameOver registers fn to be called once each time a round ends.
// It runs on the ticking goroutine after the state lock is released.
func WithGameOver(fn func(Snapshot)) Option {
	return func(g *Game) {
		g.onOver = fn
	}
}

// New creates a game in the NotStarted phase.
func New(cfg Config, opts ...Option) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g := &Game{cfg: cfg, rng: globalRand{}}
	for _, opt := range opts {
		opt(g)
	}
	g.reset()
	return g, nil
}

// Config returns the world configuration.
func (g *Game) Config() Config {
	return g.cfg
}

func (g *Game) reset() {
	g.avatarY = g.cfg.InitialY
	g.obstacles = nil
	g.score = 0
	g.phase = NotStarted
	g.round = uuid.New()
	g.ticks = 0
	g.handDetected = false
}

// Restart discards the current round and waits for a hand to start a new one.
// It may be called from any phase.
func (g *Game) Restart() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reset()
}

// Tick advances the simulation by one frame.
//
// A detected hand starts a NotStarted game; that tick does not simulate.
// While running, the avatar follows the hand (holding its position when no
// hand is seen), obstacles move and spawn, passed obstacles score, and any
// collision ends the round. A finished game ignores ticks until Restart.
func (g *Game) Tick(in Input) Phase {
	g.mu.Lock()

	g.handDetected = in.Detected

	switch g.phase {
	case NotStarted:
		if in.Detected {
			g.phase = Running
		}
		phase := g.phase
		g.mu.Unlock()
		return phase
	case GameOver:
		g.mu.Unlock()
		return GameOver
	}

	g.ticks++

	if in.Detected {
		g.avatarY = in.HandY * g.cfg.Height
	}

	g.advanceObstacles()
	g.maybeSpawn()
	g.updateScore()

	var over func(Snapshot)
	var snap Snapshot
	if collides(g.cfg, g.avatarY, g.obstacles) {
		g.phase = GameOver
		if g.onOver != nil {
			over = g.onOver
			snap = g.snapshotLocked()
		}
	}
	phase := g.phase
	g.mu.Unlock()

	if over != nil {
		over(snap)
	}
	return phase
}

// advanceObstacles moves every obstacle left and drops those whose right
// edge has left the world, preserving order.
func (g *Game) advanceObstacles() {
	kept := g.obstacles[:0]
	for _, o := range g.obstacles {
		o.X -= g.cfg.Speed
		if o.X+g.cfg.ObstacleWidth < 0 {
			continue
		}
		kept = append(kept, o)
	}
	g.obstacles = kept
}

// maybeSpawn adds an obstacle at the right edge once the newest one has
// travelled far enough, or when the field is empty.
func (g *Game) maybeSpawn() {
	if n := len(g.obstacles); n > 0 && g.obstacles[n-1].X >= g.cfg.Width-g.cfg.SpawnThreshold {
		return
	}
	lo, hi := g.cfg.gapBand()
	g.obstacles = append(g.obstacles, Obstacle{
		X:          g.cfg.Width,
		GapCenterY: lo + g.rng.Float64()*(hi-lo),
	})
}

// updateScore marks obstacles whose trailing edge has passed the avatar.
// Each obstacle scores at most once.
func (g *Game) updateScore() {
	for i := range g.obstacles {
		o := &g.obstacles[i]
		if !o.Scored && o.X+g.cfg.ObstacleWidth < g.cfg.AvatarX {
			o.Scored = true
			g.score++
		}
	}
}

// Snapshot is a point-in-time copy of the game state for presentation.
type Snapshot struct {
	Round        string     `json:"round"`
	Phase        Phase      `json:"phase"`
	Score        int        `json:"score"`
	GameOver     bool       `json:"gameOver"`
	HandDetected bool       `json:"handDetected"`
	AvatarY      float64    `json:"avatarY"`
	Obstacles    []Obstacle `json:"obstacles"`
	Ticks        uint64     `json:"ticks"`
}

// Snapshot returns a copy of the current state.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

func (g *Game) snapshotLocked() Snapshot {
	obstacles := make([]Obstacle, len(g.obstacles))
	copy(obstacles, g.obstacles)
	return Snapshot{
		Round:        g.round.String(),
		Phase:        g.phase,
		Score:        g.score,
		GameOver:     g.phase == GameOver,
		HandDetected: g.handDetected,
		AvatarY:      g.avatarY,
		Obstacles:    obstacles,
		Ticks:        g.ticks,
	}
}

// Score returns the current score.
func (g *Game) Score() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.score
}

// Phase returns the current phase.
func (g *Game) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}
