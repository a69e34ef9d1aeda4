package game

import (
	"errors"
	"fmt"
)

// Config holds the world geometry and obstacle tuning. All distances are in
// world pixels and speeds are per tick, so effective speed follows the tick rate.
type Config struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	AvatarX    float64 `json:"avatarX"`
	AvatarSize float64 `json:"avatarSize"`
	InitialY   float64 `json:"initialY"`

	ObstacleWidth  float64 `json:"obstacleWidth"`
	Gap            float64 `json:"gap"`
	Speed          float64 `json:"speed"`
	SpawnThreshold float64 `json:"spawnThreshold"`
	Margin         float64 `json:"margin"`
}

// DefaultConfig returns the 800x600 world the game was tuned for.
func DefaultConfig() Config {
	return Config{
		Width:          800,
		Height:         600,
		AvatarX:        100,
		AvatarSize:     40,
		InitialY:       250,
		ObstacleWidth:  80,
		Gap:            180,
		Speed:          3,
		SpawnThreshold: 300,
		Margin:         100,
	}
}

// Radius returns the avatar's collision radius.
func (c Config) Radius() float64 {
	return c.AvatarSize / 2
}

// gapBand returns the range gap centres are drawn from.
func (c Config) gapBand() (lo, hi float64) {
	return c.Margin + c.Gap/2, c.Height - c.Margin - c.Gap/2
}

// Validate checks that the geometry leaves room for a reachable gap with
// solid obstacle above and below it.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("world size must be positive, got %gx%g", c.Width, c.Height)
	}
	if c.AvatarSize <= 0 || c.ObstacleWidth <= 0 || c.Gap <= 0 {
		return errors.New("avatar size, obstacle width and gap must be positive")
	}
	if c.Speed <= 0 {
		return fmt.Errorf("speed must be positive, got %g", c.Speed)
	}
	if c.Margin <= 0 {
		return fmt.Errorf("margin must be positive, got %g", c.Margin)
	}
	if lo, hi := c.gapBand(); lo >= hi {
		return fmt.Errorf("gap %g with margin %g does not fit in height %g", c.Gap, c.Margin, c.Height)
	}
	if c.AvatarSize >= c.Gap {
		return fmt.Errorf("avatar size %g must be smaller than gap %g", c.AvatarSize, c.Gap)
	}
	if r := c.Radius(); c.InitialY-r <= 0 || c.InitialY+r >= c.Height {
		return fmt.Errorf("initial y %g places the avatar out of bounds", c.InitialY)
	}
	return nil
}
