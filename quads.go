package quads

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	"github.com/phanxgames/quads/gpu"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float64
}

// DefaultClearColor is the background every frame starts from.
var DefaultClearColor = Color{0.3, 0.3, 0.3, 1}

func (c Color) gpu() gpu.Color {
	return gpu.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}

// ParseColor accepts "#rrggbb", "#rrggbbaa" or an SVG color name such as
// "slategray". The empty string yields DefaultClearColor.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultClearColor, nil
	}
	if !strings.HasPrefix(s, "#") {
		rgba, ok := colornames.Map[strings.ToLower(s)]
		if !ok {
			return Color{}, fmt.Errorf("quads: unknown color name %q", s)
		}
		return Color{float64(rgba.R) / 255, float64(rgba.G) / 255, float64(rgba.B) / 255, float64(rgba.A) / 255}, nil
	}
	hex := s[1:]
	if len(hex) != 6 && len(hex) != 8 {
		return Color{}, fmt.Errorf("quads: color %q: want #rrggbb or #rrggbbaa", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("quads: color %q: %w", s, err)
	}
	return Color{
		R: float64(v>>24&0xff) / 255,
		G: float64(v>>16&0xff) / 255,
		B: float64(v>>8&0xff) / 255,
		A: float64(v&0xff) / 255,
	}, nil
}

// Vec2 is a 2D vector used for positions, sizes and velocities.
type Vec2 struct {
	X, Y float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Scale returns v * s.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }
