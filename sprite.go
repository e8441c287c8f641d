package quads

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/phanxgames/quads/gpu"
)

// A quad is two triangles of six vertices, two float32 each.
const (
	quadVertices = 6
	quadFloats   = quadVertices * 2
	quadBytes    = quadFloats * 4
)

// unitUV maps the quad's vertices onto the whole texture. It follows the same
// winding as GenerateQuad.
var unitUV = [quadFloats]float32{
	0, 0,
	1, 0,
	0, 1,
	0, 1,
	1, 0,
	1, 1,
}

const spriteBufferUsage = gpu.BufferUsageVertex | gpu.BufferUsageCopyDst

// GenerateQuad returns the vertices of two triangles covering
// [x, x+w] x [y, y+h]: (x,y) (x+w,y) (x,y+h), then (x,y+h) (x+w,y) (x+w,y+h).
func GenerateQuad(x, y, w, h float32) [quadFloats]float32 {
	return [quadFloats]float32{
		x, y,
		x + w, y,
		x, y + h,
		x, y + h,
		x + w, y,
		x + w, y + h,
	}
}

// Sprite is one textured quad moving at constant velocity. It owns a geometry
// buffer and a UV buffer, each sized for exactly one quad and allocated once.
type Sprite struct {
	tex      *Texture
	queue    gpu.Queue
	pos      Vec2
	vel      Vec2
	width    float64
	height   float64
	geometry [quadFloats]float32
	geomBuf  gpu.Buffer
	uvBuf    gpu.Buffer
	scratch  []byte
	released bool
}

// NewSprite creates a sprite at the origin, at rest, sized to tex.
func NewSprite(tex *Texture, rc *Context) (*Sprite, error) {
	if tex == nil {
		return nil, ErrNilTexture
	}
	w, h, err := tex.Size()
	if err != nil {
		return nil, fmt.Errorf("quads: new sprite: %w", err)
	}
	dev := rc.Device()
	geom, err := dev.CreateBuffer(gpu.BufferDescriptor{Label: "sprite geometry", Size: quadBytes, Usage: spriteBufferUsage})
	if err != nil {
		return nil, fmt.Errorf("quads: new sprite: geometry buffer: %w", err)
	}
	uv, err := dev.CreateBuffer(gpu.BufferDescriptor{Label: "sprite uv", Size: quadBytes, Usage: spriteBufferUsage})
	if err != nil {
		geom.Destroy()
		return nil, fmt.Errorf("quads: new sprite: uv buffer: %w", err)
	}
	s := &Sprite{
		tex:     tex,
		queue:   dev.Queue(),
		width:   float64(w),
		height:  float64(h),
		geomBuf: geom,
		uvBuf:   uv,
		scratch: make([]byte, 0, quadBytes),
	}
	s.regenerate()
	return s, nil
}

// Update advances the position by velocity*dt seconds and regenerates the
// geometry. Negative dt counts as zero.
func (s *Sprite) Update(dt float64) {
	if dt > 0 {
		s.pos = s.pos.Add(s.vel.Scale(dt))
	}
	s.regenerate()
}

func (s *Sprite) regenerate() {
	s.geometry = GenerateQuad(float32(s.pos.X), float32(s.pos.Y), float32(s.width), float32(s.height))
}

// SetPosition moves the sprite and regenerates its geometry.
func (s *Sprite) SetPosition(x, y float64) {
	s.pos = Vec2{X: x, Y: y}
	s.regenerate()
}

// SetVelocity sets the velocity in pixels per second.
func (s *Sprite) SetVelocity(vx, vy float64) { s.vel = Vec2{X: vx, Y: vy} }

// Position returns the top-left corner in pixels.
func (s *Sprite) Position() Vec2 { return s.pos }

// Velocity returns the velocity in pixels per second.
func (s *Sprite) Velocity() Vec2 { return s.vel }

// Size returns the width and height in pixels.
func (s *Sprite) Size() (width, height float64) { return s.width, s.height }

// Geometry returns the current quad vertices.
func (s *Sprite) Geometry() [quadFloats]float32 { return s.geometry }

// UV returns the texture coordinates, always the unit quad.
func (s *Sprite) UV() [quadFloats]float32 { return unitUV }

// Texture returns the shared texture the sprite samples.
func (s *Sprite) Texture() *Texture { return s.tex }

// Released reports whether Release has been called.
func (s *Sprite) Released() bool { return s.released }

// Release destroys the sprite's buffers. It is safe to call more than once.
func (s *Sprite) Release() {
	if s.released {
		return
	}
	s.released = true
	s.geomBuf.Destroy()
	s.uvBuf.Destroy()
}

// upload writes the current geometry and UVs into the sprite's buffers and
// returns the number of bytes written.
func (s *Sprite) upload() (int, error) {
	if s.released {
		return 0, ErrReleased
	}
	s.scratch = appendFloats(s.scratch[:0], s.geometry[:])
	if err := s.queue.WriteBuffer(s.geomBuf, 0, s.scratch); err != nil {
		return 0, err
	}
	s.scratch = appendFloats(s.scratch[:0], unitUV[:])
	if err := s.queue.WriteBuffer(s.uvBuf, 0, s.scratch); err != nil {
		return quadBytes, err
	}
	return 2 * quadBytes, nil
}

func appendFloats(dst []byte, fs []float32) []byte {
	for _, f := range fs {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
	}
	return dst
}
