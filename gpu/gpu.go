// Package gpu describes the graphics capability the sprite renderer consumes:
// buffers, textures, shader modules, render pipelines, samplers, bind groups,
// command encoding and a presentable surface.
//
// The shapes follow WebGPU closely so a backend can map them one to one. Two
// backends ship with the module: [github.com/phanxgames/quads/gpu/ebitengpu]
// renders through Ebitengine, and [github.com/phanxgames/quads/gpu/headless]
// keeps everything in memory and records the command stream.
package gpu

import "errors"

// Backend sentinel errors. Backends wrap these with operation context, so
// callers should test with errors.Is.
var (
	ErrNoDevice          = errors.New("gpu: no compatible device")
	ErrResourceExhausted = errors.New("gpu: device resources exhausted")
	ErrInvalidDescriptor = errors.New("gpu: invalid descriptor")
	ErrInvalidUsage      = errors.New("gpu: invalid usage")
	ErrDestroyed         = errors.New("gpu: resource destroyed")
	ErrNoSurface         = errors.New("gpu: no surface texture available")
	ErrEncoderFinished   = errors.New("gpu: command encoder already finished")
	ErrForeignResource   = errors.New("gpu: resource belongs to another backend")
)

// BufferUsage is a bitmask of the ways a buffer may be used.
type BufferUsage uint32

const (
	BufferUsageCopySrc BufferUsage = 1 << iota // source of a copy
	BufferUsageCopyDst                         // destination of WriteBuffer
	BufferUsageVertex                          // bound with SetVertexBuffer
	BufferUsageUniform                         // bound in a bind group as uniform data
)

// Has reports whether all bits in f are set.
func (u BufferUsage) Has(f BufferUsage) bool { return u&f == f }

// TextureUsage is a bitmask of the ways a texture may be used.
type TextureUsage uint32

const (
	TextureUsageCopySrc          TextureUsage = 1 << iota // source of a copy or readback
	TextureUsageCopyDst                                   // destination of CopyImageToTexture
	TextureUsageTextureBinding                            // sampled from a shader
	TextureUsageRenderAttachment                          // color attachment of a render pass
)

// Has reports whether all bits in f are set.
func (u TextureUsage) Has(f TextureUsage) bool { return u&f == f }

// TextureFormat identifies a texel layout.
type TextureFormat uint8

const (
	FormatUndefined  TextureFormat = iota
	FormatRGBA8Unorm               // 8-bit RGBA, the default sprite format
	FormatBGRA8Unorm               // 8-bit BGRA, common presentation format
)

func (f TextureFormat) String() string {
	switch f {
	case FormatRGBA8Unorm:
		return "rgba8unorm"
	case FormatBGRA8Unorm:
		return "bgra8unorm"
	default:
		return "undefined"
	}
}

// VertexFormat identifies the type of a single vertex attribute.
type VertexFormat uint8

const (
	VertexFormatFloat32x2 VertexFormat = iota + 1
	VertexFormatFloat32x4
)

// Size returns the attribute size in bytes.
func (f VertexFormat) Size() uint64 {
	switch f {
	case VertexFormatFloat32x2:
		return 8
	case VertexFormatFloat32x4:
		return 16
	default:
		return 0
	}
}

// LoadOp selects what a render pass does with the attachment's prior contents.
type LoadOp uint8

const (
	LoadOpClear LoadOp = iota // overwrite with ClearValue
	LoadOpLoad                // keep previous contents
)

// StoreOp selects what a render pass does with its results.
type StoreOp uint8

const (
	StoreOpStore StoreOp = iota
	StoreOpDiscard
)

// FilterMode selects texel filtering.
type FilterMode uint8

const (
	FilterNearest FilterMode = iota
	FilterLinear
)

// AddressMode selects how out-of-range texture coordinates are resolved.
type AddressMode uint8

const (
	AddressClampToEdge AddressMode = iota
	AddressRepeat
)

// BlendFactor is a blend equation multiplier.
type BlendFactor uint8

const (
	BlendFactorZero BlendFactor = iota
	BlendFactorOne
	BlendFactorSrcAlpha
	BlendFactorOneMinusSrcAlpha
	BlendFactorDstAlpha
	BlendFactorOneMinusDstAlpha
)

// BlendOperation combines the weighted source and destination.
type BlendOperation uint8

const (
	BlendOperationAdd BlendOperation = iota
)

// BlendComponent describes blending for either the color or alpha channel.
type BlendComponent struct {
	SrcFactor BlendFactor
	DstFactor BlendFactor
	Operation BlendOperation
}

// BlendState describes blending for one color target.
type BlendState struct {
	Color BlendComponent
	Alpha BlendComponent
}

// BlendPremultipliedAlpha composites premultiplied source over destination:
// one for the source and one-minus-source-alpha for the destination, on both
// color and alpha.
var BlendPremultipliedAlpha = BlendState{
	Color: BlendComponent{SrcFactor: BlendFactorOne, DstFactor: BlendFactorOneMinusSrcAlpha, Operation: BlendOperationAdd},
	Alpha: BlendComponent{SrcFactor: BlendFactorOne, DstFactor: BlendFactorOneMinusSrcAlpha, Operation: BlendOperationAdd},
}

// Color is a clear value with components in [0, 1].
type Color struct {
	R, G, B, A float64
}

// Limits bounds what a device can allocate.
type Limits struct {
	MaxTextureDimension2D int
	MaxBufferSize         uint64
	MaxBindGroups         int
	MaxVertexBuffers      int
}

// DefaultLimits are the limits both bundled backends report.
var DefaultLimits = Limits{
	MaxTextureDimension2D: 8192,
	MaxBufferSize:         256 << 20,
	MaxBindGroups:         4,
	MaxVertexBuffers:      8,
}
