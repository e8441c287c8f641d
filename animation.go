package quads

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup eases a sprite's velocity toward a target. Within a tick the
// sprite still moves at constant velocity; the group only changes that
// velocity between ticks. If the sprite is released, the group stops
// immediately.
//
// Groups attached with Stage.AddTween are advanced before sprites update.
// Otherwise call Update(dt) yourself once per frame.
type TweenGroup struct {
	vx, vy *gween.Tween
	target *Sprite
	Done   bool
}

// TweenVelocity creates a TweenGroup that moves the sprite's velocity to
// (toVX, toVY) over duration seconds using the easing function.
func TweenVelocity(s *Sprite, toVX, toVY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	v := s.Velocity()
	return &TweenGroup{
		vx:     gween.New(float32(v.X), float32(toVX), duration, fn),
		vy:     gween.New(float32(v.Y), float32(toVY), duration, fn),
		target: s,
	}
}

// Update advances the tween by dt seconds and writes the eased velocity to
// the sprite.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	if g.target.Released() {
		g.Done = true
		return
	}
	x, doneX := g.vx.Update(dt)
	y, doneY := g.vy.Update(dt)
	g.target.SetVelocity(float64(x), float64(y))
	g.Done = doneX && doneY
}

// Target returns the animated sprite.
func (g *TweenGroup) Target() *Sprite { return g.target }
