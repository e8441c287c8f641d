package ebitengpu

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/quads/gpu"
)

// Shader locations consumed by the projected vertex stage.
const (
	LocationPosition = 0
	LocationUV       = 1
)

// Buffer keeps its contents in CPU memory until replay.
type Buffer struct {
	desc      gpu.BufferDescriptor
	data      []byte
	destroyed bool
}

func (b *Buffer) Label() string          { return b.desc.Label }
func (b *Buffer) Size() uint64           { return b.desc.Size }
func (b *Buffer) Usage() gpu.BufferUsage { return b.desc.Usage }
func (b *Buffer) Destroyed() bool        { return b.destroyed }

// Destroy drops the contents.
func (b *Buffer) Destroy() {
	b.destroyed = true
	b.data = nil
}

// Texture wraps an *ebiten.Image.
type Texture struct {
	desc      gpu.TextureDescriptor
	image     *ebiten.Image
	view      *TextureView
	destroyed bool
}

func newTexture(desc gpu.TextureDescriptor, img *ebiten.Image) *Texture {
	t := &Texture{desc: desc, image: img}
	t.view = &TextureView{tex: t}
	return t
}

func (t *Texture) Label() string             { return t.desc.Label }
func (t *Texture) Width() int                { return t.desc.Width }
func (t *Texture) Height() int               { return t.desc.Height }
func (t *Texture) Format() gpu.TextureFormat { return t.desc.Format }
func (t *Texture) Usage() gpu.TextureUsage   { return t.desc.Usage }
func (t *Texture) Destroyed() bool           { return t.destroyed }

// Image returns the backing image.
func (t *Texture) Image() *ebiten.Image { return t.image }

// Destroy deallocates the backing image.
func (t *Texture) Destroy() {
	if t.destroyed {
		return
	}
	t.destroyed = true
	if t.image != nil {
		t.image.Deallocate()
	}
}

// CreateView returns the texture's single view.
func (t *Texture) CreateView() (gpu.TextureView, error) {
	if t.destroyed {
		return nil, fmt.Errorf("%w: view of texture %q", gpu.ErrDestroyed, t.desc.Label)
	}
	return t.view, nil
}

// TextureView is the view of a Texture.
type TextureView struct {
	tex *Texture
}

func (v *TextureView) Texture() gpu.Texture { return v.tex }

// ShaderModule is a compiled Kage program.
type ShaderModule struct {
	label  string
	shader *ebiten.Shader
}

func (s *ShaderModule) Label() string { return s.label }

// attrRef locates one vertex attribute.
type attrRef struct {
	slot   int
	offset uint64
	stride uint64
}

// Pipeline is an Ebitengine render pipeline: a Kage fragment program, the
// projected vertex stage and a blend equation.
type Pipeline struct {
	desc     gpu.RenderPipelineDescriptor
	fragment *ShaderModule
	blend    ebiten.Blend
	position attrRef
	uv       attrRef
	layout0  *BindGroupLayout
}

func newPipeline(desc gpu.RenderPipelineDescriptor) (*Pipeline, error) {
	if desc.Vertex.EntryPoint != VertexEntryProjected {
		return nil, fmt.Errorf("%w: pipeline %q: vertex entry %q unsupported, want %q",
			gpu.ErrInvalidDescriptor, desc.Label, desc.Vertex.EntryPoint, VertexEntryProjected)
	}
	if e := desc.Fragment.EntryPoint; e != FragmentEntry && e != "Fragment" {
		return nil, fmt.Errorf("%w: pipeline %q: fragment entry %q unsupported", gpu.ErrInvalidDescriptor, desc.Label, e)
	}
	frag, ok := desc.Fragment.Module.(*ShaderModule)
	if !ok {
		return nil, fmt.Errorf("%w: shader module %T", gpu.ErrForeignResource, desc.Fragment.Module)
	}
	p := &Pipeline{desc: desc, fragment: frag, blend: ebitenBlend(desc.Fragment.Targets[0].Blend)}
	var havePos, haveUV bool
	for slot, b := range desc.Vertex.Buffers {
		for _, a := range b.Attributes {
			ref := attrRef{slot: slot, offset: a.Offset, stride: b.ArrayStride}
			switch a.ShaderLocation {
			case LocationPosition:
				p.position, havePos = ref, a.Format == gpu.VertexFormatFloat32x2
			case LocationUV:
				p.uv, haveUV = ref, a.Format == gpu.VertexFormatFloat32x2
			}
		}
	}
	if !havePos || !haveUV {
		return nil, fmt.Errorf("%w: pipeline %q needs float32x2 attributes at locations 0 and 1",
			gpu.ErrInvalidDescriptor, desc.Label)
	}
	p.layout0 = &BindGroupLayout{group: 0}
	return p, nil
}

func (p *Pipeline) Label() string                           { return p.desc.Label }
func (p *Pipeline) VertexBuffers() []gpu.VertexBufferLayout { return p.desc.Vertex.Buffers }

// BindGroupLayout returns the layout of group 0, the only group the
// projected vertex stage reads.
func (p *Pipeline) BindGroupLayout(group uint32) (gpu.BindGroupLayout, error) {
	if group != 0 {
		return nil, fmt.Errorf("%w: pipeline %q has no bind group %d", gpu.ErrInvalidUsage, p.desc.Label, group)
	}
	return p.layout0, nil
}

// BindGroupLayout is the group 0 layout of a Pipeline.
type BindGroupLayout struct {
	group uint32
}

func (l *BindGroupLayout) Group() uint32 { return l.group }

// Sampler records its descriptor; sampling happens in the Kage program.
type Sampler struct {
	desc gpu.SamplerDescriptor
}

func (s *Sampler) Label() string                     { return s.desc.Label }
func (s *Sampler) Descriptor() gpu.SamplerDescriptor { return s.desc }

// BindGroup holds the resources a draw samples and projects with.
type BindGroup struct {
	label   string
	layout  gpu.BindGroupLayout
	entries []gpu.BindGroupEntry
}

func (g *BindGroup) Label() string                 { return g.label }
func (g *BindGroup) Layout() gpu.BindGroupLayout   { return g.layout }
func (g *BindGroup) Entries() []gpu.BindGroupEntry { return g.entries }

// resources picks the first sampler, texture view and buffer of the group.
func (g *BindGroup) resources() (*Sampler, *Texture, *Buffer, error) {
	var (
		s *Sampler
		t *Texture
		b *Buffer
	)
	for _, e := range g.entries {
		switch {
		case e.Sampler != nil && s == nil:
			s, _ = e.Sampler.(*Sampler)
		case e.TextureView != nil && t == nil:
			t, _ = e.TextureView.Texture().(*Texture)
		case e.Buffer != nil && b == nil:
			b, _ = e.Buffer.(*Buffer)
		}
	}
	if s == nil || t == nil || b == nil {
		return nil, nil, nil, fmt.Errorf("%w: bind group %q needs a sampler, a texture view and a uniform buffer",
			gpu.ErrInvalidUsage, g.label)
	}
	if t.destroyed || b.destroyed {
		return nil, nil, nil, fmt.Errorf("%w: bind group %q references a destroyed resource", gpu.ErrDestroyed, g.label)
	}
	return s, t, b, nil
}

func ebitenFactor(f gpu.BlendFactor) ebiten.BlendFactor {
	switch f {
	case gpu.BlendFactorZero:
		return ebiten.BlendFactorZero
	case gpu.BlendFactorOne:
		return ebiten.BlendFactorOne
	case gpu.BlendFactorSrcAlpha:
		return ebiten.BlendFactorSourceAlpha
	case gpu.BlendFactorOneMinusSrcAlpha:
		return ebiten.BlendFactorOneMinusSourceAlpha
	case gpu.BlendFactorDstAlpha:
		return ebiten.BlendFactorDestinationAlpha
	case gpu.BlendFactorOneMinusDstAlpha:
		return ebiten.BlendFactorOneMinusDestinationAlpha
	default:
		return ebiten.BlendFactorOne
	}
}

// ebitenBlend converts a blend state. A nil state replaces the destination.
func ebitenBlend(b *gpu.BlendState) ebiten.Blend {
	if b == nil {
		return ebiten.BlendCopy
	}
	return ebiten.Blend{
		BlendFactorSourceRGB:        ebitenFactor(b.Color.SrcFactor),
		BlendFactorSourceAlpha:      ebitenFactor(b.Alpha.SrcFactor),
		BlendFactorDestinationRGB:   ebitenFactor(b.Color.DstFactor),
		BlendFactorDestinationAlpha: ebitenFactor(b.Alpha.DstFactor),
		BlendOperationRGB:           ebiten.BlendOperationAdd,
		BlendOperationAlpha:         ebiten.BlendOperationAdd,
	}
}
