package headless

import (
	"fmt"
	"image"

	"github.com/phanxgames/quads/gpu"
)

// Buffer is an in-memory gpu.Buffer.
type Buffer struct {
	id        int
	desc      gpu.BufferDescriptor
	data      []byte
	destroyed bool
}

func (b *Buffer) Label() string          { return b.desc.Label }
func (b *Buffer) Size() uint64           { return b.desc.Size }
func (b *Buffer) Usage() gpu.BufferUsage { return b.desc.Usage }
func (b *Buffer) Destroy()               { b.destroyed = true }
func (b *Buffer) Destroyed() bool        { return b.destroyed }

// ID is the device-unique creation index.
func (b *Buffer) ID() int { return b.id }

// Bytes returns a copy of the buffer contents.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

// Texture is an in-memory gpu.Texture.
type Texture struct {
	id        int
	desc      gpu.TextureDescriptor
	pixels    *image.RGBA
	destroyed bool
	view      *TextureView
}

func newTexture(id int, desc gpu.TextureDescriptor) *Texture {
	t := &Texture{id: id, desc: desc}
	t.view = &TextureView{tex: t}
	return t
}

func (t *Texture) Label() string             { return t.desc.Label }
func (t *Texture) Width() int                { return t.desc.Width }
func (t *Texture) Height() int               { return t.desc.Height }
func (t *Texture) Format() gpu.TextureFormat { return t.desc.Format }
func (t *Texture) Usage() gpu.TextureUsage   { return t.desc.Usage }
func (t *Texture) Destroy()                  { t.destroyed = true }
func (t *Texture) Destroyed() bool           { return t.destroyed }

// CreateView returns the texture's single view. Repeated calls return the
// same view so bind group identity stays stable.
func (t *Texture) CreateView() (gpu.TextureView, error) {
	if t.destroyed {
		return nil, fmt.Errorf("%w: view of texture %q", gpu.ErrDestroyed, t.desc.Label)
	}
	return t.view, nil
}

// Pixels returns the last uploaded image, or nil.
func (t *Texture) Pixels() *image.RGBA { return t.pixels }

// TextureView is the view of a Texture.
type TextureView struct {
	tex *Texture
}

func (v *TextureView) Texture() gpu.Texture { return v.tex }

// ShaderModule stores shader source.
type ShaderModule struct {
	id   int
	Desc gpu.ShaderModuleDescriptor
}

func (s *ShaderModule) Label() string { return s.Desc.Label }

// Pipeline is an in-memory gpu.RenderPipeline.
type Pipeline struct {
	id     int
	Desc   gpu.RenderPipelineDescriptor
	groups uint32
	layout [gpu.MaxSlots]*BindGroupLayout
}

func (p *Pipeline) Label() string                           { return p.Desc.Label }
func (p *Pipeline) VertexBuffers() []gpu.VertexBufferLayout { return p.Desc.Vertex.Buffers }

// BindGroupLayout returns the layout for group, creating it on first use.
func (p *Pipeline) BindGroupLayout(group uint32) (gpu.BindGroupLayout, error) {
	if group >= p.groups || group >= gpu.MaxSlots {
		return nil, fmt.Errorf("%w: pipeline %q has no bind group %d", gpu.ErrInvalidUsage, p.Desc.Label, group)
	}
	if p.layout[group] == nil {
		p.layout[group] = &BindGroupLayout{group: group, pipeline: p}
	}
	return p.layout[group], nil
}

// BindGroupLayout belongs to one Pipeline.
type BindGroupLayout struct {
	group    uint32
	pipeline *Pipeline
}

func (l *BindGroupLayout) Group() uint32 { return l.group }

// Sampler is an in-memory gpu.Sampler.
type Sampler struct {
	id   int
	desc gpu.SamplerDescriptor
}

func (s *Sampler) Label() string                     { return s.desc.Label }
func (s *Sampler) Descriptor() gpu.SamplerDescriptor { return s.desc }

// BindGroup is an in-memory gpu.BindGroup.
type BindGroup struct {
	id      int
	label   string
	layout  gpu.BindGroupLayout
	entries []gpu.BindGroupEntry
}

func (g *BindGroup) Label() string                 { return g.label }
func (g *BindGroup) Layout() gpu.BindGroupLayout   { return g.layout }
func (g *BindGroup) Entries() []gpu.BindGroupEntry { return g.entries }
