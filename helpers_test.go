package quads

import (
	"context"
	"encoding/binary"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/phanxgames/quads/gpu/headless"
)

func newTestContext(t *testing.T, w, h int) (*Context, *headless.Device, *headless.Surface) {
	t.Helper()
	dev := headless.NewDevice()
	surface := headless.NewSurface(dev, w, h)
	rc, err := NewContext(dev, surface, w, h)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	return rc, dev, surface
}

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	return img
}

func loadTestTexture(t *testing.T, rc *Context, w, h int) *Texture {
	t.Helper()
	src := ImageValue("test", solidImage(w, h, color.RGBA{R: 255, A: 255}))
	tex, err := LoadTexture(context.Background(), rc, nil, src, TextureOptions{})
	if err != nil {
		t.Fatalf("LoadTexture: %v", err)
	}
	return tex
}

func newTestSprite(t *testing.T, rc *Context, tex *Texture) *Sprite {
	t.Helper()
	s, err := NewSprite(tex, rc)
	if err != nil {
		t.Fatalf("NewSprite: %v", err)
	}
	return s
}

func approx(a, b, eps float64) bool {
	d := a - b
	return d < eps && d > -eps
}

func readFloat(b []byte, i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
}
