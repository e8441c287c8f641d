package quads

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Depth range of the pixel-space projection. Sprites are flat, so any range
// containing z=0 works.
const (
	ProjectionNear = -10
	ProjectionFar  = 10
)

// Mat4 is a 4x4 float32 matrix in column-major order: element (row r,
// column c) is m[c*4+r].
type Mat4 [16]float32

// Ortho returns an orthographic projection mapping the box
// [left, right] x [bottom, top] x [near, far] to clip space.
func Ortho(left, right, bottom, top, near, far float32) Mat4 {
	return Mat4{
		2 / (right - left), 0, 0, 0,
		0, 2 / (top - bottom), 0, 0,
		0, 0, 2 / (near - far), 0,
		(left + right) / (left - right),
		(bottom + top) / (bottom - top),
		(near + far) / (near - far),
		1,
	}
}

// Transform multiplies m by the point (x, y, z, 1). For an orthographic
// matrix w stays 1, so the result is already in normalized device
// coordinates.
func (m Mat4) Transform(x, y, z float32) (float32, float32, float32) {
	return m[0]*x + m[4]*y + m[8]*z + m[12],
		m[1]*x + m[5]*y + m[9]*z + m[13],
		m[2]*x + m[6]*y + m[10]*z + m[14]
}

// AppendBytes appends the 64-byte little-endian encoding of m.
func (m Mat4) AppendBytes(dst []byte) []byte {
	for _, v := range m {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
	}
	return dst
}

// Bytes returns the 64-byte little-endian encoding of m, the layout a mat4x4
// uniform expects.
func (m Mat4) Bytes() []byte {
	return m.AppendBytes(make([]byte, 0, 64))
}

// Viewport is the pixel-space drawing area, origin top-left with y down. It
// caches its projection and only recomputes it when the size changes.
type Viewport struct {
	width  int
	height int
	matrix Mat4
	gen    uint64
}

// NewViewport returns a viewport of the given size.
func NewViewport(width, height int) (Viewport, error) {
	var v Viewport
	if _, err := v.Resize(width, height); err != nil {
		return Viewport{}, err
	}
	return v, nil
}

// Resize sets the viewport size and reports whether it changed. The
// projection is recomputed only on change.
func (v *Viewport) Resize(width, height int) (bool, error) {
	if width <= 0 || height <= 0 {
		return false, fmt.Errorf("%w: %dx%d", ErrInvalidViewport, width, height)
	}
	if v.gen != 0 && width == v.width && height == v.height {
		return false, nil
	}
	v.width, v.height = width, height
	v.matrix = Ortho(0, float32(width), float32(height), 0, ProjectionNear, ProjectionFar)
	v.gen++
	return true, nil
}

// Width returns the width in pixels.
func (v Viewport) Width() int { return v.width }

// Height returns the height in pixels.
func (v Viewport) Height() int { return v.height }

// Matrix returns the pixel-to-clip projection.
func (v Viewport) Matrix() Mat4 { return v.matrix }

// Generation increments every time the size changes; zero means unset.
func (v Viewport) Generation() uint64 { return v.gen }
