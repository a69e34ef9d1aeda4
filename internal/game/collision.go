package game

// Obstacle is a vertical barrier with an opening centred on GapCenterY.
type Obstacle struct {
	X          float64 `json:"x"`
	GapCenterY float64 `json:"gapCenterY"`
	Scored     bool    `json:"scored"`
}

// GapTop returns the y of the upper edge of the opening.
func (o Obstacle) GapTop(gap float64) float64 {
	return o.GapCenterY - gap/2
}

// GapBottom returns the y of the lower edge of the opening.
func (o Obstacle) GapBottom(gap float64) float64 {
	return o.GapCenterY + gap/2
}

// outOfBounds reports whether an avatar centred at y touches the top or
// bottom of the world.
func outOfBounds(cfg Config, y float64) bool {
	r := cfg.Radius()
	return y-r <= 0 || y+r >= cfg.Height
}

// hitsObstacle reports whether an avatar centred at y overlaps the solid
// part of o. The avatar spans [AvatarX, AvatarX+AvatarSize] horizontally.
func hitsObstacle(cfg Config, y float64, o Obstacle) bool {
	overlapX := cfg.AvatarX+cfg.AvatarSize > o.X && cfg.AvatarX < o.X+cfg.ObstacleWidth
	if !overlapX {
		return false
	}
	r := cfg.Radius()
	return y-r < o.GapTop(cfg.Gap) || y+r > o.GapBottom(cfg.Gap)
}

// collides reports whether the avatar at y hits the world bounds or any obstacle.
func collides(cfg Config, y float64, obstacles []Obstacle) bool {
	if outOfBounds(cfg, y) {
		return true
	}
	for _, o := range obstacles {
		if hitsObstacle(cfg, y, o) {
			return true
		}
	}
	return false
}
