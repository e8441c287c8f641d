// Package headless implements the gpu interfaces entirely in memory.
//
// Nothing is rasterized. Buffers hold their bytes, textures hold their
// uploaded pixels, and every write and submitted command list is appended to
// a log that callers can inspect unless recording is turned off. It backs
// headless runs and the renderer's tests, and it can be told to fail a given
// operation to exercise error paths.
package headless

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/phanxgames/quads/gpu"
)

// Op names a device or queue operation for failure injection.
type Op string

const (
	OpCreateBuffer         Op = "CreateBuffer"
	OpCreateTexture        Op = "CreateTexture"
	OpCreateShaderModule   Op = "CreateShaderModule"
	OpCreateRenderPipeline Op = "CreateRenderPipeline"
	OpCreateSampler        Op = "CreateSampler"
	OpCreateBindGroup      Op = "CreateBindGroup"
	OpCreateCommandEncoder Op = "CreateCommandEncoder"
	OpWriteBuffer          Op = "WriteBuffer"
	OpCopyImage            Op = "CopyImageToTexture"
	OpSubmit               Op = "Submit"
	OpCurrentTexture       Op = "CurrentTexture"
)

// Device is an in-memory gpu.Device.
type Device struct {
	limits gpu.Limits
	queue  *Queue
	fail   map[Op][]error
	nextID int

	Buffers    []*Buffer
	Textures   []*Texture
	Shaders    []*ShaderModule
	Pipelines  []*Pipeline
	Samplers   []*Sampler
	BindGroups []*BindGroup
}

// NewDevice returns a device with gpu.DefaultLimits.
func NewDevice() *Device {
	d := &Device{limits: gpu.DefaultLimits, fail: make(map[Op][]error)}
	d.queue = &Queue{dev: d, recording: true, clears: make(map[*Texture]gpu.Color)}
	return d
}

// SetRecording turns the queue log on or off. It is on for a new device.
// Long runs turn it off so the log does not grow every frame; buffer and
// texture contents are still updated.
func (d *Device) SetRecording(on bool) { d.queue.recording = on }

// SetLimits replaces the device limits.
func (d *Device) SetLimits(lim gpu.Limits) { d.limits = lim }

// FailNext makes the next call of op return err. Calls queue up, so
// FailNext twice fails the next two calls.
func (d *Device) FailNext(op Op, err error) {
	d.fail[op] = append(d.fail[op], err)
}

// FailNth lets n-1 further calls of op succeed and makes the nth fail with
// err. It counts from the end of anything already queued for op.
func (d *Device) FailNth(op Op, n int, err error) {
	for range n - 1 {
		d.fail[op] = append(d.fail[op], nil)
	}
	d.fail[op] = append(d.fail[op], err)
}

func (d *Device) injected(op Op) error {
	q := d.fail[op]
	if len(q) == 0 {
		return nil
	}
	err := q[0]
	d.fail[op] = q[1:]
	if err == nil {
		return nil
	}
	return fmt.Errorf("headless: %s: %w", op, err)
}

func (d *Device) id() int {
	d.nextID++
	return d.nextID
}

// Limits implements gpu.Device.
func (d *Device) Limits() gpu.Limits { return d.limits }

// Queue implements gpu.Device.
func (d *Device) Queue() gpu.Queue { return d.queue }

// Log returns the queue log.
func (d *Device) Log() *Queue { return d.queue }

// CreateBuffer implements gpu.Device.
func (d *Device) CreateBuffer(desc gpu.BufferDescriptor) (gpu.Buffer, error) {
	if err := d.injected(OpCreateBuffer); err != nil {
		return nil, err
	}
	if err := desc.Validate(d.limits); err != nil {
		return nil, err
	}
	b := &Buffer{id: d.id(), desc: desc, data: make([]byte, desc.Size)}
	d.Buffers = append(d.Buffers, b)
	return b, nil
}

// CreateTexture implements gpu.Device.
func (d *Device) CreateTexture(desc gpu.TextureDescriptor) (gpu.Texture, error) {
	if err := d.injected(OpCreateTexture); err != nil {
		return nil, err
	}
	if err := desc.Validate(d.limits); err != nil {
		return nil, err
	}
	t := newTexture(d.id(), desc)
	d.Textures = append(d.Textures, t)
	return t, nil
}

// CreateShaderModule implements gpu.Device. The code is stored, not compiled.
func (d *Device) CreateShaderModule(desc gpu.ShaderModuleDescriptor) (gpu.ShaderModule, error) {
	if err := d.injected(OpCreateShaderModule); err != nil {
		return nil, err
	}
	if desc.Code == "" {
		return nil, fmt.Errorf("%w: shader %q has no code", gpu.ErrInvalidDescriptor, desc.Label)
	}
	s := &ShaderModule{id: d.id(), Desc: desc}
	d.Shaders = append(d.Shaders, s)
	return s, nil
}

// CreateRenderPipeline implements gpu.Device.
func (d *Device) CreateRenderPipeline(desc gpu.RenderPipelineDescriptor) (gpu.RenderPipeline, error) {
	if err := d.injected(OpCreateRenderPipeline); err != nil {
		return nil, err
	}
	if err := desc.Validate(d.limits); err != nil {
		return nil, err
	}
	p := &Pipeline{id: d.id(), Desc: desc, groups: uint32(d.limits.MaxBindGroups)}
	d.Pipelines = append(d.Pipelines, p)
	return p, nil
}

// CreateSampler implements gpu.Device.
func (d *Device) CreateSampler(desc gpu.SamplerDescriptor) (gpu.Sampler, error) {
	if err := d.injected(OpCreateSampler); err != nil {
		return nil, err
	}
	s := &Sampler{id: d.id(), desc: desc}
	d.Samplers = append(d.Samplers, s)
	return s, nil
}

// CreateBindGroup implements gpu.Device.
func (d *Device) CreateBindGroup(desc gpu.BindGroupDescriptor) (gpu.BindGroup, error) {
	if err := d.injected(OpCreateBindGroup); err != nil {
		return nil, err
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	entries := make([]gpu.BindGroupEntry, len(desc.Entries))
	copy(entries, desc.Entries)
	g := &BindGroup{id: d.id(), label: desc.Label, layout: desc.Layout, entries: entries}
	d.BindGroups = append(d.BindGroups, g)
	return g, nil
}

// CreateCommandEncoder implements gpu.Device.
func (d *Device) CreateCommandEncoder(label string) (gpu.CommandEncoder, error) {
	if err := d.injected(OpCreateCommandEncoder); err != nil {
		return nil, err
	}
	return gpu.NewRecorder(label), nil
}

// LiveBuffers counts buffers that have not been destroyed.
func (d *Device) LiveBuffers() int {
	n := 0
	for _, b := range d.Buffers {
		if !b.destroyed {
			n++
		}
	}
	return n
}

// toRGBA copies img into a fresh *image.RGBA anchored at the origin.
func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
