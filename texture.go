package quads

import (
	"context"
	"fmt"
	"image"

	"golang.org/x/sync/errgroup"

	"github.com/phanxgames/quads/gpu"
)

// textureUsage lets a texture be filled by copy, sampled, and rendered into.
const textureUsage = gpu.TextureUsageCopyDst | gpu.TextureUsageTextureBinding | gpu.TextureUsageRenderAttachment

// TextureOptions configures how a texture is allocated.
type TextureOptions struct {
	Label string
	// MatchSurfaceFormat stores texels in the surface's presentation format
	// instead of RGBA8.
	MatchSurfaceFormat bool
}

// Texture is a GPU-resident image shared by any number of sprites. It is
// created pending and becomes immutable once Load succeeds.
type Texture struct {
	src    ImageSource
	opts   TextureOptions
	tex    gpu.Texture
	view   gpu.TextureView
	width  int
	height int
	format gpu.TextureFormat

	released bool
}

// NewTexture returns a pending texture for src.
func NewTexture(src ImageSource, opts TextureOptions) *Texture {
	if opts.Label == "" {
		opts.Label = src.String()
	}
	return &Texture{src: src, opts: opts}
}

// LoadTexture creates and loads a texture in one step.
func LoadTexture(ctx context.Context, rc *Context, dec Decoder, src ImageSource, opts TextureOptions) (*Texture, error) {
	t := NewTexture(src, opts)
	if err := t.Load(ctx, rc, dec); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadTextures decodes every source concurrently, then uploads them in
// order on the calling goroutine. On any failure nothing stays allocated.
func LoadTextures(ctx context.Context, rc *Context, dec Decoder, srcs []ImageSource, opts TextureOptions) ([]*Texture, error) {
	texs := make([]*Texture, len(srcs))
	imgs := make([]image.Image, len(srcs))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range srcs {
		o := opts
		if opts.Label != "" {
			o.Label = fmt.Sprintf("%s[%d]", opts.Label, i)
		}
		texs[i] = NewTexture(src, o)
		g.Go(func() error {
			img, err := texs[i].decode(gctx, dec)
			imgs[i] = img
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, t := range texs {
		if err := t.upload(rc, imgs[i]); err != nil {
			for _, done := range texs[:i] {
				done.Release()
			}
			return nil, err
		}
	}
	return texs, nil
}

// Load decodes the source with dec and uploads it through rc. It fails with
// a *LoadError and leaves the texture pending; there is no retry.
func (t *Texture) Load(ctx context.Context, rc *Context, dec Decoder) error {
	if t.released {
		return fmt.Errorf("quads: load texture %s: %w", t.src.String(), ErrReleased)
	}
	if t.tex != nil {
		return ErrAlreadyLoaded
	}
	img, err := t.decode(ctx, dec)
	if err != nil {
		return err
	}
	return t.upload(rc, img)
}

func (t *Texture) decode(ctx context.Context, dec Decoder) (image.Image, error) {
	if dec == nil {
		dec = ImageDecoder{}
	}
	img, err := dec.Decode(ctx, t.src)
	if err != nil {
		return nil, &LoadError{Source: t.src.String(), Kind: LoadDecode, Err: err}
	}
	return img, nil
}

func (t *Texture) upload(rc *Context, img image.Image) error {
	exhausted := func(err error) error {
		return &LoadError{Source: t.src.String(), Kind: LoadDeviceResourceExhausted, Err: err}
	}
	b := img.Bounds()
	format := gpu.FormatRGBA8Unorm
	if t.opts.MatchSurfaceFormat {
		format = rc.surface.Format()
	}
	tex, err := rc.device.CreateTexture(gpu.TextureDescriptor{
		Label:  t.opts.Label,
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: format,
		Usage:  textureUsage,
	})
	if err != nil {
		return exhausted(err)
	}
	if err := rc.device.Queue().CopyImageToTexture(img, tex); err != nil {
		tex.Destroy()
		return exhausted(err)
	}
	view, err := tex.CreateView()
	if err != nil {
		tex.Destroy()
		return exhausted(err)
	}
	t.tex, t.view = tex, view
	t.width, t.height, t.format = b.Dx(), b.Dy(), format
	return nil
}

// Loaded reports whether Load has completed.
func (t *Texture) Loaded() bool { return t.tex != nil }

// Width returns the width in pixels, or ErrNotLoaded.
func (t *Texture) Width() (int, error) {
	if t.tex == nil {
		return 0, ErrNotLoaded
	}
	return t.width, nil
}

// Height returns the height in pixels, or ErrNotLoaded.
func (t *Texture) Height() (int, error) {
	if t.tex == nil {
		return 0, ErrNotLoaded
	}
	return t.height, nil
}

// Size returns the pixel dimensions, or ErrNotLoaded.
func (t *Texture) Size() (width, height int, err error) {
	if t.tex == nil {
		return 0, 0, ErrNotLoaded
	}
	return t.width, t.height, nil
}

// Format returns the storage format; FormatUndefined until loaded.
func (t *Texture) Format() gpu.TextureFormat { return t.format }

// Source returns the image source the texture was created from.
func (t *Texture) Source() ImageSource { return t.src }

// View returns the sampleable view, or nil before Load.
func (t *Texture) View() gpu.TextureView { return t.view }

// Release destroys the GPU texture and returns it to the not-loaded state.
// Sprites and renderers still referencing it fail their next frame. A
// released texture cannot be loaded again.
func (t *Texture) Release() {
	if t.tex != nil {
		t.tex.Destroy()
	}
	t.tex, t.view = nil, nil
	t.width, t.height, t.format = 0, 0, gpu.FormatUndefined
	t.released = true
}
