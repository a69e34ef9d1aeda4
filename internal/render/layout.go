// Package render draws the game and the finger counter in a desktop window
// and provides the windowless loop used for headless runs.
package render

import (
	"fmt"

	"github.com/ayusman/handplay/internal/detector"
	"github.com/ayusman/handplay/internal/game"
)

// Rect is an axis-aligned rectangle in screen pixels.
type Rect struct {
	X, Y, W, H float64
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// obstacleRects returns the solid parts of an obstacle: above and below its gap.
func obstacleRects(cfg game.Config, o game.Obstacle) (top, bottom Rect) {
	gapTop := o.GapTop(cfg.Gap)
	gapBottom := o.GapBottom(cfg.Gap)
	top = Rect{X: o.X, Y: 0, W: cfg.ObstacleWidth, H: gapTop}
	bottom = Rect{X: o.X, Y: gapBottom, W: cfg.ObstacleWidth, H: cfg.Height - gapBottom}
	return top, bottom
}

// avatarCenter returns the screen centre of the avatar circle.
func avatarCenter(cfg game.Config, y float64) (cx, cy float64) {
	return cfg.AvatarX + cfg.Radius(), y
}

// previewPanelWidth is the width of the camera panel beside the game field.
const previewPanelWidth = 320

// previewPanel returns the 4:3 camera area in the side panel right of the
// game field.
func previewPanel(cfg game.Config) Rect {
	return Rect{X: cfg.Width, Y: 0, W: previewPanelWidth, H: previewPanelWidth * 3 / 4}
}

// landmarkIn maps a normalized landmark into the rectangle r.
func landmarkIn(p detector.Point3D, r Rect, mirror bool) (x, y float64) {
	x, y = landmarkPoint(p, r.W, r.H, mirror)
	return r.X + x, r.Y + y
}

// landmarkPoint maps a normalized landmark onto a w x h surface.
// With mirror set the x axis is flipped, matching a selfie-style preview.
func landmarkPoint(p detector.Point3D, w, h float64, mirror bool) (x, y float64) {
	nx := p.X
	if mirror {
		nx = 1 - nx
	}
	return nx * w, p.Y * h
}

// gameOverlay returns the centred message lines for the current phase.
func gameOverlay(s game.Snapshot) []string {
	switch s.Phase {
	case game.NotStarted:
		return []string{"Show your hand to start!", "Move it up and down to steer"}
	case game.GameOver:
		return []string{"Game over!", fmt.Sprintf("Score: %d", s.Score), "Press R or click to restart"}
	default:
		return nil
	}
}

// handStatus returns the hand indicator text.
func handStatus(detected bool) string {
	if detected {
		return "Hand detected"
	}
	return "No hand"
}
