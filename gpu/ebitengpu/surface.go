package ebitengpu

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/quads/gpu"
)

// Surface presents into the screen image Ebitengine passes to Draw. It only
// has a current texture while [Host.Draw] is running.
type Surface struct {
	tex    *Texture
	width  int
	height int
}

// NewSurface returns an unbound surface of the given logical size.
func NewSurface(width, height int) *Surface {
	return &Surface{width: width, height: height}
}

// bind attaches the screen for the current frame; nil detaches it.
func (s *Surface) bind(screen *ebiten.Image) {
	if screen == nil {
		if s.tex != nil {
			s.tex.image = nil
		}
		return
	}
	b := screen.Bounds()
	s.width, s.height = b.Dx(), b.Dy()
	if s.tex == nil || s.tex.desc.Width != s.width || s.tex.desc.Height != s.height {
		s.tex = newTexture(gpu.TextureDescriptor{
			Label:  "screen",
			Width:  s.width,
			Height: s.height,
			Format: gpu.FormatRGBA8Unorm,
			Usage:  gpu.TextureUsageRenderAttachment | gpu.TextureUsageCopySrc,
		}, screen)
		return
	}
	s.tex.image = screen
}

// CurrentTexture implements gpu.Surface.
func (s *Surface) CurrentTexture() (gpu.Texture, error) {
	if s.tex == nil || s.tex.image == nil {
		return nil, gpu.ErrNoSurface
	}
	return s.tex, nil
}

// Format implements gpu.Surface. Ebitengine screens are RGBA.
func (s *Surface) Format() gpu.TextureFormat { return gpu.FormatRGBA8Unorm }

// Size implements gpu.Surface.
func (s *Surface) Size() (int, int) { return s.width, s.height }

// ReadPixels implements gpu.PixelReader.
func (s *Surface) ReadPixels(dst []byte) error {
	if s.tex == nil || s.tex.image == nil {
		return gpu.ErrNoSurface
	}
	s.tex.image.ReadPixels(dst)
	return nil
}

// Resize asks for a new window size. The screen image follows on a later
// frame, once Ebitengine has laid the window out again.
func (s *Surface) Resize(width, height int) {
	ebiten.SetWindowSize(width, height)
}
