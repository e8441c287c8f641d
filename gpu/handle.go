package gpu

import "image"

// Buffer is a linear GPU allocation.
type Buffer interface {
	Label() string
	Size() uint64
	Usage() BufferUsage
	Destroy()
	Destroyed() bool
}

// Texture is a 2D GPU image.
type Texture interface {
	Label() string
	Width() int
	Height() int
	Format() TextureFormat
	Usage() TextureUsage
	CreateView() (TextureView, error)
	Destroy()
	Destroyed() bool
}

// TextureView is a bindable view of a texture.
type TextureView interface {
	Texture() Texture
}

// ShaderModule is compiled shader source.
type ShaderModule interface {
	Label() string
}

// RenderPipeline is an immutable pipeline state object.
type RenderPipeline interface {
	Label() string
	// VertexBuffers returns the vertex buffer layouts the pipeline was built
	// with. The slice must not be modified.
	VertexBuffers() []VertexBufferLayout
	BindGroupLayout(group uint32) (BindGroupLayout, error)
}

// BindGroupLayout is the layout of one bind group slot of a pipeline.
type BindGroupLayout interface {
	Group() uint32
}

// Sampler is an immutable sampling configuration.
type Sampler interface {
	Label() string
	Descriptor() SamplerDescriptor
}

// BindGroup is an immutable set of resource bindings.
type BindGroup interface {
	Label() string
	Layout() BindGroupLayout
	Entries() []BindGroupEntry
}

// RenderPassEncoder records draw state and draw calls for one pass. State
// setters never fail directly; the first error is reported by End.
type RenderPassEncoder interface {
	SetPipeline(p RenderPipeline)
	SetBindGroup(index uint32, g BindGroup)
	SetVertexBuffer(slot uint32, b Buffer)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	End() error
}

// CommandEncoder records render passes into a command buffer.
type CommandEncoder interface {
	BeginRenderPass(desc RenderPassDescriptor) (RenderPassEncoder, error)
	Finish() (CommandBuffer, error)
}

// CommandBuffer is a finished, submittable command recording.
type CommandBuffer interface {
	Label() string
}

// Queue executes uploads and command buffers in submission order.
type Queue interface {
	WriteBuffer(b Buffer, offset uint64, data []byte) error
	CopyImageToTexture(src image.Image, dst Texture) error
	Submit(cmds ...CommandBuffer) error
}

// Device allocates GPU resources.
type Device interface {
	CreateBuffer(desc BufferDescriptor) (Buffer, error)
	CreateTexture(desc TextureDescriptor) (Texture, error)
	CreateShaderModule(desc ShaderModuleDescriptor) (ShaderModule, error)
	CreateRenderPipeline(desc RenderPipelineDescriptor) (RenderPipeline, error)
	CreateSampler(desc SamplerDescriptor) (Sampler, error)
	CreateBindGroup(desc BindGroupDescriptor) (BindGroup, error)
	CreateCommandEncoder(label string) (CommandEncoder, error)
	Queue() Queue
	Limits() Limits
}

// Surface is the presentable target a frame is rendered into.
type Surface interface {
	// CurrentTexture returns the texture for the frame being rendered.
	CurrentTexture() (Texture, error)
	// Format is the preferred presentation format.
	Format() TextureFormat
	Size() (width, height int)
}

// PixelReader is implemented by surfaces that can read back the current
// frame as premultiplied RGBA bytes, 4 per pixel, row major.
type PixelReader interface {
	ReadPixels(dst []byte) error
}
