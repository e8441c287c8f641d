package quads

import (
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/phanxgames/quads/gpu"
)

//go:embed shaders/sprite.kage
var spriteShaderSrc string

// Bindings of the sprite bind group (group 0).
const (
	bindingSampler    = 0
	bindingTexture    = 1
	bindingProjection = 2
)

// Shader entry points of the sprite program.
const (
	vertexEntry   = "vertex"
	fragmentEntry = "fragment"
)

const quadStride = 8 // two float32 per vertex

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithClearColor sets the background each frame is cleared to.
func WithClearColor(c Color) RendererOption {
	return func(r *Renderer) { r.clear = c }
}

// WithLogger sets the logger for frame diagnostics. nil keeps the context's
// logger.
func WithLogger(l *slog.Logger) RendererOption {
	return func(r *Renderer) {
		if l != nil {
			r.log = l
		}
	}
}

// WithDebug enables per-frame stats logging at debug level and sprite sanity
// warnings.
func WithDebug(on bool) RendererOption {
	return func(r *Renderer) { r.debug = on }
}

// Renderer draws sprites with one shared pipeline, sampler, bind group and
// projection uniform. Each frame is one clear pass followed by one pass per
// sprite, submitted together.
type Renderer struct {
	rc    *Context
	log   *slog.Logger
	debug bool
	clear Color

	shader   gpu.ShaderModule
	pipeline gpu.RenderPipeline
	layout   gpu.BindGroupLayout
	sampler  gpu.Sampler
	uniform  gpu.Buffer
	tex      *Texture
	view     gpu.TextureView
	group    gpu.BindGroup

	projGen uint64
	frame   uint64
	stats   FrameStats

	warnedCount   bool
	warnedTexture bool
}

// NewRenderer builds the sprite pipeline for tex. Every failure is an
// *InitError naming the step that failed; nothing is retried.
func NewRenderer(rc *Context, tex *Texture, opts ...RendererOption) (*Renderer, error) {
	if rc == nil {
		return nil, &InitError{Op: "device", Err: gpu.ErrNoDevice}
	}
	if tex == nil {
		return nil, &InitError{Op: "texture", Err: ErrNilTexture}
	}
	if !tex.Loaded() {
		return nil, &InitError{Op: "texture", Err: ErrNotLoaded}
	}
	r := &Renderer{rc: rc, log: rc.Logger(), clear: DefaultClearColor}
	for _, o := range opts {
		o(r)
	}
	dev := rc.Device()

	var err error
	r.shader, err = dev.CreateShaderModule(gpu.ShaderModuleDescriptor{Label: "sprite", Code: spriteShaderSrc})
	if err != nil {
		return nil, &InitError{Op: "shader", Err: err}
	}
	r.pipeline, err = dev.CreateRenderPipeline(spritePipeline(r.shader, rc.Surface().Format()))
	if err != nil {
		return nil, &InitError{Op: "pipeline", Err: err}
	}
	r.layout, err = r.pipeline.BindGroupLayout(0)
	if err != nil {
		return nil, &InitError{Op: "bind group layout", Err: err}
	}
	r.sampler, err = dev.CreateSampler(gpu.SamplerDescriptor{
		Label:        "sprite",
		AddressModeU: gpu.AddressClampToEdge,
		AddressModeV: gpu.AddressClampToEdge,
		MagFilter:    gpu.FilterNearest,
		MinFilter:    gpu.FilterNearest,
	})
	if err != nil {
		return nil, &InitError{Op: "sampler", Err: err}
	}
	r.uniform, err = dev.CreateBuffer(gpu.BufferDescriptor{
		Label: "projection",
		Size:  64,
		Usage: gpu.BufferUsageUniform | gpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, &InitError{Op: "uniform buffer", Err: err}
	}
	if err := r.writeProjection(); err != nil {
		r.uniform.Destroy()
		return nil, &InitError{Op: "projection", Err: err}
	}
	if err := r.bind(tex); err != nil {
		r.uniform.Destroy()
		return nil, &InitError{Op: "bind group", Err: err}
	}
	return r, nil
}

func spritePipeline(shader gpu.ShaderModule, target gpu.TextureFormat) gpu.RenderPipelineDescriptor {
	blend := gpu.BlendPremultipliedAlpha
	return gpu.RenderPipelineDescriptor{
		Label: "sprite",
		Vertex: gpu.VertexState{
			Module:     shader,
			EntryPoint: vertexEntry,
			Buffers: []gpu.VertexBufferLayout{
				{ArrayStride: quadStride, Attributes: []gpu.VertexAttribute{
					{Format: gpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
				}},
				{ArrayStride: quadStride, Attributes: []gpu.VertexAttribute{
					{Format: gpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 1},
				}},
			},
		},
		Fragment: gpu.FragmentState{
			Module:     shader,
			EntryPoint: fragmentEntry,
			Targets:    []gpu.ColorTargetState{{Format: target, Blend: &blend}},
		},
	}
}

func (r *Renderer) writeProjection() error {
	vp := r.rc.Viewport()
	m := vp.Matrix()
	if err := r.rc.Device().Queue().WriteBuffer(r.uniform, 0, m.Bytes()); err != nil {
		return err
	}
	r.projGen = vp.Generation()
	return nil
}

// bind points the bind group at tex, rebuilding it only when the view
// changes identity.
func (r *Renderer) bind(tex *Texture) error {
	view := tex.View()
	if r.group != nil && view == r.view {
		r.tex = tex
		return nil
	}
	g, err := r.rc.Device().CreateBindGroup(gpu.BindGroupDescriptor{
		Label:  "sprite",
		Layout: r.layout,
		Entries: []gpu.BindGroupEntry{
			{Binding: bindingSampler, Sampler: r.sampler},
			{Binding: bindingTexture, TextureView: view},
			{Binding: bindingProjection, Buffer: r.uniform},
		},
	})
	if err != nil {
		return err
	}
	r.tex, r.view, r.group = tex, view, g
	return nil
}

// SetTexture switches the sampled texture. The bind group is rebuilt only
// if the texture's view differs from the bound one. On error the previous
// texture stays bound.
func (r *Renderer) SetTexture(tex *Texture) error {
	if tex == nil {
		return fmt.Errorf("quads: set texture: %w", ErrNilTexture)
	}
	if !tex.Loaded() {
		return fmt.Errorf("quads: set texture: %w", ErrNotLoaded)
	}
	if err := r.bind(tex); err != nil {
		return fmt.Errorf("quads: set texture: %w", err)
	}
	return nil
}

// Texture returns the bound texture.
func (r *Renderer) Texture() *Texture { return r.tex }

// SetClearColor changes the background for subsequent frames.
func (r *Renderer) SetClearColor(c Color) { r.clear = c }

// ClearColor returns the background color.
func (r *Renderer) ClearColor() Color { return r.clear }

// SetDebug toggles debug mode.
func (r *Renderer) SetDebug(on bool) { r.debug = on }

// Context returns the graphics context the renderer draws through.
func (r *Renderer) Context() *Context { return r.rc }

// Stats returns the stats of the last frame that was submitted.
func (r *Renderer) Stats() FrameStats { return r.stats }

// Frames returns the number of RenderFrame calls, failed ones included.
func (r *Renderer) Frames() uint64 { return r.frame }

// Release destroys the projection uniform buffer. The texture is owned by
// the caller and left alone.
func (r *Renderer) Release() {
	if r.uniform != nil {
		r.uniform.Destroy()
	}
}

// RenderFrame draws sprites in order: later sprites composite over earlier
// ones. A failure is returned as a *FrameError and nothing from the frame is
// submitted.
func (r *Renderer) RenderFrame(sprites []*Sprite) error {
	r.frame++
	stats := FrameStats{Frame: r.frame, Sprites: len(sprites)}
	fail := func(op string, err error) error {
		return &FrameError{Frame: r.frame, Op: op, Err: err}
	}
	if r.debug {
		r.debugCheckSprites(sprites)
	}

	start := time.Now()
	if r.rc.Viewport().Generation() != r.projGen {
		if err := r.writeProjection(); err != nil {
			return fail("projection", err)
		}
		stats.BytesUploaded += 64
	}
	target, err := r.rc.Surface().CurrentTexture()
	if err != nil {
		return fail("surface", err)
	}
	view, err := target.CreateView()
	if err != nil {
		return fail("surface", err)
	}
	enc, err := r.rc.Device().CreateCommandEncoder(fmt.Sprintf("frame %d", r.frame))
	if err != nil {
		return fail("encoder", err)
	}

	clearPass, err := enc.BeginRenderPass(gpu.RenderPassDescriptor{
		Label: "clear",
		ColorAttachments: []gpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gpu.LoadOpClear,
			StoreOp:    gpu.StoreOpStore,
			ClearValue: r.clear.gpu(),
		}},
	})
	if err != nil {
		return fail("clear pass", err)
	}
	if err := clearPass.End(); err != nil {
		return fail("clear pass", err)
	}
	stats.Passes++
	stats.ClearPasses++

	load := gpu.RenderPassDescriptor{
		Label: "sprite",
		ColorAttachments: []gpu.RenderPassColorAttachment{{
			View:    view,
			LoadOp:  gpu.LoadOpLoad,
			StoreOp: gpu.StoreOpStore,
		}},
	}
	var upload time.Duration
	for i, s := range sprites {
		t0 := time.Now()
		n, err := s.upload()
		stats.BytesUploaded += n
		upload += time.Since(t0)
		if err != nil {
			return fail(fmt.Sprintf("upload sprite %d", i), err)
		}
		pass, err := enc.BeginRenderPass(load)
		if err != nil {
			return fail(fmt.Sprintf("sprite pass %d", i), err)
		}
		pass.SetPipeline(r.pipeline)
		pass.SetBindGroup(0, r.group)
		pass.SetVertexBuffer(0, s.geomBuf)
		pass.SetVertexBuffer(1, s.uvBuf)
		pass.Draw(quadVertices, 1, 0, 0)
		if err := pass.End(); err != nil {
			return fail(fmt.Sprintf("sprite pass %d", i), err)
		}
		stats.Passes++
		stats.DrawCalls++
	}
	cmd, err := enc.Finish()
	if err != nil {
		return fail("finish", err)
	}
	stats.UploadTime = upload
	stats.EncodeTime = time.Since(start) - upload

	t0 := time.Now()
	if err := r.rc.Device().Queue().Submit(cmd); err != nil {
		return fail("submit", err)
	}
	stats.SubmitTime = time.Since(t0)

	r.stats = stats
	if r.debug {
		r.debugLog(stats)
	}
	return nil
}
