package gpu

import "fmt"

// BufferDescriptor describes a buffer allocation.
type BufferDescriptor struct {
	Label string
	Size  uint64
	Usage BufferUsage
}

// Validate checks the descriptor against lim. Oversized buffers report
// ErrResourceExhausted, malformed ones ErrInvalidDescriptor.
func (d BufferDescriptor) Validate(lim Limits) error {
	if d.Size == 0 || d.Size%4 != 0 {
		return fmt.Errorf("%w: buffer %q size %d must be a positive multiple of 4", ErrInvalidDescriptor, d.Label, d.Size)
	}
	if d.Usage == 0 {
		return fmt.Errorf("%w: buffer %q has no usage", ErrInvalidDescriptor, d.Label)
	}
	if lim.MaxBufferSize > 0 && d.Size > lim.MaxBufferSize {
		return fmt.Errorf("%w: buffer %q size %d exceeds %d", ErrResourceExhausted, d.Label, d.Size, lim.MaxBufferSize)
	}
	return nil
}

// TextureDescriptor describes a 2D texture allocation.
type TextureDescriptor struct {
	Label  string
	Width  int
	Height int
	Format TextureFormat
	Usage  TextureUsage
}

// Validate checks the descriptor against lim.
func (d TextureDescriptor) Validate(lim Limits) error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: texture %q size %dx%d", ErrInvalidDescriptor, d.Label, d.Width, d.Height)
	}
	if d.Format == FormatUndefined {
		return fmt.Errorf("%w: texture %q has no format", ErrInvalidDescriptor, d.Label)
	}
	if d.Usage == 0 {
		return fmt.Errorf("%w: texture %q has no usage", ErrInvalidDescriptor, d.Label)
	}
	if m := lim.MaxTextureDimension2D; m > 0 && (d.Width > m || d.Height > m) {
		return fmt.Errorf("%w: texture %q size %dx%d exceeds %d", ErrResourceExhausted, d.Label, d.Width, d.Height, m)
	}
	return nil
}

// ShaderModuleDescriptor carries shader source text.
type ShaderModuleDescriptor struct {
	Label string
	Code  string
}

// VertexAttribute places one shader input inside a vertex buffer element.
type VertexAttribute struct {
	Format         VertexFormat
	Offset         uint64
	ShaderLocation uint32
}

// VertexBufferLayout describes the elements of one vertex buffer slot.
type VertexBufferLayout struct {
	ArrayStride uint64
	Attributes  []VertexAttribute
}

// VertexState is the vertex stage of a pipeline.
type VertexState struct {
	Module     ShaderModule
	EntryPoint string
	Buffers    []VertexBufferLayout
}

// ColorTargetState describes one fragment output.
type ColorTargetState struct {
	Format TextureFormat
	Blend  *BlendState // nil replaces the destination
}

// FragmentState is the fragment stage of a pipeline.
type FragmentState struct {
	Module     ShaderModule
	EntryPoint string
	Targets    []ColorTargetState
}

// RenderPipelineDescriptor describes a render pipeline.
type RenderPipelineDescriptor struct {
	Label    string
	Vertex   VertexState
	Fragment FragmentState
}

// Validate checks stage presence, vertex layouts and targets.
func (d RenderPipelineDescriptor) Validate(lim Limits) error {
	if d.Vertex.Module == nil || d.Vertex.EntryPoint == "" {
		return fmt.Errorf("%w: pipeline %q has no vertex stage", ErrInvalidDescriptor, d.Label)
	}
	if d.Fragment.Module == nil || d.Fragment.EntryPoint == "" {
		return fmt.Errorf("%w: pipeline %q has no fragment stage", ErrInvalidDescriptor, d.Label)
	}
	if len(d.Fragment.Targets) == 0 {
		return fmt.Errorf("%w: pipeline %q has no color targets", ErrInvalidDescriptor, d.Label)
	}
	if lim.MaxVertexBuffers > 0 && len(d.Vertex.Buffers) > lim.MaxVertexBuffers {
		return fmt.Errorf("%w: pipeline %q uses %d vertex buffers, limit %d", ErrInvalidDescriptor, d.Label, len(d.Vertex.Buffers), lim.MaxVertexBuffers)
	}
	seen := make(map[uint32]bool)
	for slot, b := range d.Vertex.Buffers {
		if b.ArrayStride == 0 {
			return fmt.Errorf("%w: pipeline %q slot %d has zero stride", ErrInvalidDescriptor, d.Label, slot)
		}
		for _, a := range b.Attributes {
			size := a.Format.Size()
			if size == 0 || a.Offset+size > b.ArrayStride {
				return fmt.Errorf("%w: pipeline %q slot %d attribute at location %d does not fit stride %d",
					ErrInvalidDescriptor, d.Label, slot, a.ShaderLocation, b.ArrayStride)
			}
			if seen[a.ShaderLocation] {
				return fmt.Errorf("%w: pipeline %q binds location %d twice", ErrInvalidDescriptor, d.Label, a.ShaderLocation)
			}
			seen[a.ShaderLocation] = true
		}
	}
	for i, t := range d.Fragment.Targets {
		if t.Format == FormatUndefined {
			return fmt.Errorf("%w: pipeline %q target %d has no format", ErrInvalidDescriptor, d.Label, i)
		}
	}
	return nil
}

// SamplerDescriptor describes texture sampling.
type SamplerDescriptor struct {
	Label        string
	AddressModeU AddressMode
	AddressModeV AddressMode
	MagFilter    FilterMode
	MinFilter    FilterMode
}

// BindGroupEntry binds exactly one resource at Binding.
type BindGroupEntry struct {
	Binding     uint32
	Sampler     Sampler
	TextureView TextureView
	Buffer      Buffer
}

func (e BindGroupEntry) resourceCount() int {
	n := 0
	if e.Sampler != nil {
		n++
	}
	if e.TextureView != nil {
		n++
	}
	if e.Buffer != nil {
		n++
	}
	return n
}

// BindGroupDescriptor describes a bind group.
type BindGroupDescriptor struct {
	Label   string
	Layout  BindGroupLayout
	Entries []BindGroupEntry
}

// Validate checks that every entry binds one resource at a unique slot and
// that bound buffers carry uniform usage.
func (d BindGroupDescriptor) Validate() error {
	if d.Layout == nil {
		return fmt.Errorf("%w: bind group %q has no layout", ErrInvalidDescriptor, d.Label)
	}
	seen := make(map[uint32]bool, len(d.Entries))
	for _, e := range d.Entries {
		if e.resourceCount() != 1 {
			return fmt.Errorf("%w: bind group %q binding %d must hold exactly one resource", ErrInvalidDescriptor, d.Label, e.Binding)
		}
		if seen[e.Binding] {
			return fmt.Errorf("%w: bind group %q repeats binding %d", ErrInvalidDescriptor, d.Label, e.Binding)
		}
		seen[e.Binding] = true
		if e.Buffer != nil && !e.Buffer.Usage().Has(BufferUsageUniform) {
			return fmt.Errorf("%w: bind group %q binding %d buffer lacks uniform usage", ErrInvalidUsage, d.Label, e.Binding)
		}
		if e.TextureView != nil && !e.TextureView.Texture().Usage().Has(TextureUsageTextureBinding) {
			return fmt.Errorf("%w: bind group %q binding %d texture lacks binding usage", ErrInvalidUsage, d.Label, e.Binding)
		}
	}
	return nil
}

// RenderPassColorAttachment is one color target of a render pass.
type RenderPassColorAttachment struct {
	View       TextureView
	LoadOp     LoadOp
	StoreOp    StoreOp
	ClearValue Color
}

// RenderPassDescriptor describes a render pass.
type RenderPassDescriptor struct {
	Label            string
	ColorAttachments []RenderPassColorAttachment
}

// Validate checks that the pass has at least one attachment that can be
// rendered to.
func (d RenderPassDescriptor) Validate() error {
	if len(d.ColorAttachments) == 0 {
		return fmt.Errorf("%w: render pass %q has no color attachments", ErrInvalidDescriptor, d.Label)
	}
	for i, a := range d.ColorAttachments {
		if a.View == nil {
			return fmt.Errorf("%w: render pass %q attachment %d has no view", ErrInvalidDescriptor, d.Label, i)
		}
		if !a.View.Texture().Usage().Has(TextureUsageRenderAttachment) {
			return fmt.Errorf("%w: render pass %q attachment %d is not renderable", ErrInvalidUsage, d.Label, i)
		}
	}
	return nil
}

// ValidateWrite checks a WriteBuffer call against the destination buffer.
func ValidateWrite(b Buffer, offset uint64, n int) error {
	if b == nil {
		return fmt.Errorf("%w: write to nil buffer", ErrInvalidUsage)
	}
	if b.Destroyed() {
		return fmt.Errorf("%w: write to buffer %q", ErrDestroyed, b.Label())
	}
	if !b.Usage().Has(BufferUsageCopyDst) {
		return fmt.Errorf("%w: buffer %q lacks copy-dst usage", ErrInvalidUsage, b.Label())
	}
	if offset%4 != 0 || n%4 != 0 {
		return fmt.Errorf("%w: write to buffer %q at %d len %d is not 4-byte aligned", ErrInvalidUsage, b.Label(), offset, n)
	}
	if offset+uint64(n) > b.Size() {
		return fmt.Errorf("%w: write of %d bytes at %d overflows buffer %q of %d bytes", ErrInvalidUsage, n, offset, b.Label(), b.Size())
	}
	return nil
}
