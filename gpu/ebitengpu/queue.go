package ebitengpu

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/quads/gpu"
)

// Queue uploads immediately and replays command lists on Submit.
type Queue struct {
	verts    []ebiten.Vertex
	indices  []uint32
	uniforms map[string]any
}

// WriteBuffer implements gpu.Queue.
func (q *Queue) WriteBuffer(b gpu.Buffer, offset uint64, data []byte) error {
	eb, ok := b.(*Buffer)
	if !ok {
		return fmt.Errorf("%w: buffer %T", gpu.ErrForeignResource, b)
	}
	if err := gpu.ValidateWrite(b, offset, len(data)); err != nil {
		return err
	}
	copy(eb.data[offset:], data)
	return nil
}

// CopyImageToTexture implements gpu.Queue.
func (q *Queue) CopyImageToTexture(src image.Image, dst gpu.Texture) error {
	t, ok := dst.(*Texture)
	if !ok {
		return fmt.Errorf("%w: texture %T", gpu.ErrForeignResource, dst)
	}
	if t.destroyed {
		return fmt.Errorf("%w: copy into texture %q", gpu.ErrDestroyed, t.Label())
	}
	if !t.Usage().Has(gpu.TextureUsageCopyDst) {
		return fmt.Errorf("%w: texture %q lacks copy-dst usage", gpu.ErrInvalidUsage, t.Label())
	}
	b := src.Bounds()
	if b.Dx() != t.Width() || b.Dy() != t.Height() {
		return fmt.Errorf("%w: copy %dx%d image into %dx%d texture %q",
			gpu.ErrInvalidUsage, b.Dx(), b.Dy(), t.Width(), t.Height(), t.Label())
	}
	rgba, ok := src.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) || rgba.Stride != 4*b.Dx() {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)
	}
	t.image.WritePixels(rgba.Pix)
	return nil
}

// Submit replays every pass of every command list in order.
func (q *Queue) Submit(cmds ...gpu.CommandBuffer) error {
	for _, c := range cmds {
		cl, ok := c.(*gpu.CommandList)
		if !ok {
			return fmt.Errorf("%w: command buffer %T", gpu.ErrForeignResource, c)
		}
		for i := range cl.Passes {
			if err := q.replayPass(&cl.Passes[i]); err != nil {
				return fmt.Errorf("ebitengpu: submit %q pass %d: %w", cl.Label(), i, err)
			}
		}
	}
	return nil
}

func (q *Queue) replayPass(p *gpu.PassRecord) error {
	att := p.ColorAttachments[0]
	target, ok := att.View.Texture().(*Texture)
	if !ok {
		return fmt.Errorf("%w: attachment %T", gpu.ErrForeignResource, att.View.Texture())
	}
	if target.image == nil {
		return gpu.ErrNoSurface
	}
	if att.LoadOp == gpu.LoadOpClear {
		target.image.Fill(premultiplied(att.ClearValue))
	}
	for i := range p.Draws {
		if err := q.draw(target, &p.Draws[i]); err != nil {
			return err
		}
	}
	return nil
}

func (q *Queue) draw(target *Texture, dc *gpu.DrawCall) error {
	pl, ok := dc.Pipeline.(*Pipeline)
	if !ok {
		return fmt.Errorf("%w: pipeline %T", gpu.ErrForeignResource, dc.Pipeline)
	}
	group, ok := dc.BindGroups[0].(*BindGroup)
	if !ok {
		return fmt.Errorf("%w: draw without an ebitengpu bind group 0", gpu.ErrInvalidUsage)
	}
	sampler, tex, uniform, err := group.resources()
	if err != nil {
		return err
	}
	proj, err := readMat4(uniform.data)
	if err != nil {
		return err
	}
	pos, ok := dc.VertexBuffers[pl.position.slot].(*Buffer)
	if !ok {
		return fmt.Errorf("%w: position buffer %T", gpu.ErrForeignResource, dc.VertexBuffers[pl.position.slot])
	}
	uv, ok := dc.VertexBuffers[pl.uv.slot].(*Buffer)
	if !ok {
		return fmt.Errorf("%w: uv buffer %T", gpu.ErrForeignResource, dc.VertexBuffers[pl.uv.slot])
	}

	tw, th := float32(target.Width()), float32(target.Height())
	sw, sh := float32(tex.Width()), float32(tex.Height())
	q.verts = q.verts[:0]
	q.indices = q.indices[:0]
	for i := dc.FirstVertex; i < dc.FirstVertex+dc.VertexCount; i++ {
		x, y := readVec2(pos.data, pl.position, i)
		u, v := readVec2(uv.data, pl.uv, i)
		cx, cy := project(proj, x, y)
		dx, dy := clipToPixel(cx, cy, tw, th)
		q.verts = append(q.verts, ebiten.Vertex{
			DstX: dx, DstY: dy,
			SrcX: u * sw, SrcY: v * sh,
			ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1,
		})
		q.indices = append(q.indices, i-dc.FirstVertex)
	}

	if q.uniforms == nil {
		q.uniforms = make(map[string]any, 2)
	}
	sd := sampler.Descriptor()
	q.uniforms["SamplerNearest"] = boolFloat(sd.MagFilter == gpu.FilterNearest)
	q.uniforms["SamplerClampToEdge"] = boolFloat(sd.AddressModeU == gpu.AddressClampToEdge)

	var op ebiten.DrawTrianglesShaderOptions
	op.Images[0] = tex.image
	op.Uniforms = q.uniforms
	op.Blend = pl.blend
	instances := max(dc.InstanceCount, 1)
	for range instances {
		target.image.DrawTrianglesShader32(q.verts, q.indices, pl.fragment.shader, &op)
	}
	return nil
}

func readMat4(b []byte) ([16]float32, error) {
	var m [16]float32
	if len(b) < 64 {
		return m, fmt.Errorf("%w: projection uniform holds %d bytes, want 64", gpu.ErrInvalidUsage, len(b))
	}
	for i := range m {
		m[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return m, nil
}

func readVec2(b []byte, ref attrRef, vertex uint32) (float32, float32) {
	off := uint64(vertex)*ref.stride + ref.offset
	x := math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
	y := math.Float32frombits(binary.LittleEndian.Uint32(b[off+4:]))
	return x, y
}

// project applies a column-major mat4 to (x, y, 0, 1).
func project(m [16]float32, x, y float32) (float32, float32) {
	return m[0]*x + m[4]*y + m[12], m[1]*x + m[5]*y + m[13]
}

// clipToPixel maps clip space (y up) to target pixels (y down).
func clipToPixel(cx, cy, width, height float32) (float32, float32) {
	return (cx + 1) / 2 * width, (1 - cy) / 2 * height
}

func boolFloat(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

func premultiplied(c gpu.Color) color.RGBA {
	a := clamp01(c.A)
	return color.RGBA{
		R: uint8(clamp01(c.R)*a*255 + 0.5),
		G: uint8(clamp01(c.G)*a*255 + 0.5),
		B: uint8(clamp01(c.B)*a*255 + 0.5),
		A: uint8(a*255 + 0.5),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
