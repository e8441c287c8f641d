// Package ebitengpu implements the gpu interfaces on top of Ebitengine.
//
// Buffers live in CPU memory and are read when a command list is replayed.
// Textures are *ebiten.Image values. Shader modules are Kage programs; Kage
// has no programmable vertex stage, so the backend supplies the vertex entry
// point [VertexEntryProjected] itself:
//
//   - location 0 (float32x2) is the position, multiplied by the column-major
//     mat4 held in the uniform buffer of bind group 0;
//   - location 1 (float32x2) is the texture coordinate in [0, 1], scaled to
//     texels of the texture view in bind group 0.
//
// The sampler of bind group 0 is forwarded to the Kage program as the float
// uniforms SamplerNearest and SamplerClampToEdge (1 or 0).
//
// Render passes replay on Submit into DrawTrianglesShader32 against the
// attachment image. The surface texture is the screen image handed to
// [Host.Draw] by Ebitengine.
package ebitengpu

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/quads/gpu"
)

// Entry points understood by the backend.
const (
	VertexEntryProjected = "vertex"
	FragmentEntry        = "fragment"
)

// Device is an Ebitengine-backed gpu.Device.
type Device struct {
	limits gpu.Limits
	queue  *Queue
}

// NewDevice returns a device. Ebitengine acquires the graphics driver lazily
// when the game starts, so driver failures surface from [Host.Run].
func NewDevice() *Device {
	d := &Device{limits: gpu.DefaultLimits}
	d.queue = &Queue{}
	return d
}

// Limits implements gpu.Device.
func (d *Device) Limits() gpu.Limits { return d.limits }

// Queue implements gpu.Device.
func (d *Device) Queue() gpu.Queue { return d.queue }

// CreateBuffer implements gpu.Device.
func (d *Device) CreateBuffer(desc gpu.BufferDescriptor) (gpu.Buffer, error) {
	if err := desc.Validate(d.limits); err != nil {
		return nil, err
	}
	return &Buffer{desc: desc, data: make([]byte, desc.Size)}, nil
}

// CreateTexture implements gpu.Device. The format is recorded but texels are
// always stored as premultiplied RGBA, the only layout Ebitengine exposes.
func (d *Device) CreateTexture(desc gpu.TextureDescriptor) (gpu.Texture, error) {
	if err := desc.Validate(d.limits); err != nil {
		return nil, err
	}
	return newTexture(desc, ebiten.NewImage(desc.Width, desc.Height)), nil
}

// CreateShaderModule compiles desc.Code as a Kage program.
func (d *Device) CreateShaderModule(desc gpu.ShaderModuleDescriptor) (gpu.ShaderModule, error) {
	s, err := ebiten.NewShader([]byte(desc.Code))
	if err != nil {
		return nil, fmt.Errorf("%w: compile shader %q: %v", gpu.ErrInvalidDescriptor, desc.Label, err)
	}
	return &ShaderModule{label: desc.Label, shader: s}, nil
}

// CreateRenderPipeline implements gpu.Device.
func (d *Device) CreateRenderPipeline(desc gpu.RenderPipelineDescriptor) (gpu.RenderPipeline, error) {
	if err := desc.Validate(d.limits); err != nil {
		return nil, err
	}
	return newPipeline(desc)
}

// CreateSampler implements gpu.Device.
func (d *Device) CreateSampler(desc gpu.SamplerDescriptor) (gpu.Sampler, error) {
	return &Sampler{desc: desc}, nil
}

// CreateBindGroup implements gpu.Device.
func (d *Device) CreateBindGroup(desc gpu.BindGroupDescriptor) (gpu.BindGroup, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if _, ok := desc.Layout.(*BindGroupLayout); !ok {
		return nil, fmt.Errorf("%w: bind group layout %T", gpu.ErrForeignResource, desc.Layout)
	}
	entries := make([]gpu.BindGroupEntry, len(desc.Entries))
	copy(entries, desc.Entries)
	return &BindGroup{label: desc.Label, layout: desc.Layout, entries: entries}, nil
}

// CreateCommandEncoder implements gpu.Device.
func (d *Device) CreateCommandEncoder(label string) (gpu.CommandEncoder, error) {
	return gpu.NewRecorder(label), nil
}
