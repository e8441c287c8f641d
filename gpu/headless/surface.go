package headless

import (
	"fmt"

	"github.com/phanxgames/quads/gpu"
)

// Surface is an in-memory presentable target. Its texture is recreated on
// Resize, mirroring a swap chain reconfigure.
type Surface struct {
	dev    *Device
	format gpu.TextureFormat
	tex    *Texture
}

// NewSurface creates a surface of the given size owned by dev.
func NewSurface(dev *Device, width, height int) *Surface {
	s := &Surface{dev: dev, format: gpu.FormatBGRA8Unorm}
	s.Resize(width, height)
	return s
}

// Resize replaces the surface texture.
func (s *Surface) Resize(width, height int) {
	if s.tex != nil {
		delete(s.dev.queue.clears, s.tex)
	}
	s.tex = newTexture(s.dev.id(), gpu.TextureDescriptor{
		Label:  "surface",
		Width:  width,
		Height: height,
		Format: s.format,
		Usage:  gpu.TextureUsageRenderAttachment | gpu.TextureUsageCopySrc,
	})
}

// CurrentTexture implements gpu.Surface.
func (s *Surface) CurrentTexture() (gpu.Texture, error) {
	if err := s.dev.injected(OpCurrentTexture); err != nil {
		return nil, err
	}
	return s.tex, nil
}

// Format implements gpu.Surface.
func (s *Surface) Format() gpu.TextureFormat { return s.format }

// Size implements gpu.Surface.
func (s *Surface) Size() (int, int) { return s.tex.Width(), s.tex.Height() }

// ReadPixels implements gpu.PixelReader. Nothing is rasterized, so the frame
// reads back as the clear value of the most recent submitted pass that
// cleared this surface, premultiplied, or transparent black if there is none.
func (s *Surface) ReadPixels(dst []byte) error {
	n := 4 * s.tex.Width() * s.tex.Height()
	if len(dst) < n {
		return fmt.Errorf("%w: read %d bytes into %d", gpu.ErrInvalidUsage, n, len(dst))
	}
	px := [4]byte{}
	if c, ok := s.lastClear(); ok {
		a := clamp01(c.A)
		px = [4]byte{unorm(clamp01(c.R) * a), unorm(clamp01(c.G) * a), unorm(clamp01(c.B) * a), unorm(a)}
	}
	for i := 0; i < n; i += 4 {
		copy(dst[i:i+4], px[:])
	}
	return nil
}

func (s *Surface) lastClear() (gpu.Color, bool) {
	c, ok := s.dev.queue.clears[s.tex]
	return c, ok
}

func clamp01(v float64) float64 { return min(max(v, 0), 1) }

func unorm(v float64) byte { return byte(v*255 + 0.5) }
