package quads

import (
	"fmt"
	"log/slog"

	"github.com/phanxgames/quads/gpu"
)

// Context is the ready graphics context: a device, the surface frames are
// presented to, and the viewport that maps pixels to clip space. Build it
// once setup has acquired a device, then hand it to textures, sprites and
// the renderer.
type Context struct {
	device   gpu.Device
	surface  gpu.Surface
	viewport Viewport
	log      *slog.Logger
}

// NewContext binds a device and surface to a width x height viewport.
func NewContext(dev gpu.Device, surface gpu.Surface, width, height int) (*Context, error) {
	if dev == nil {
		return nil, &InitError{Op: "device", Err: gpu.ErrNoDevice}
	}
	if surface == nil {
		return nil, &InitError{Op: "surface", Err: gpu.ErrNoSurface}
	}
	vp, err := NewViewport(width, height)
	if err != nil {
		return nil, &InitError{Op: "viewport", Err: err}
	}
	return &Context{device: dev, surface: surface, viewport: vp, log: slog.Default()}, nil
}

// Device returns the graphics device.
func (c *Context) Device() gpu.Device { return c.device }

// Surface returns the presentation surface.
func (c *Context) Surface() gpu.Surface { return c.surface }

// Viewport returns a copy of the current viewport.
func (c *Context) Viewport() Viewport { return c.viewport }

// Logger returns the logger renderers and stages built on c default to.
func (c *Context) Logger() *slog.Logger { return c.log }

// SetLogger replaces the context logger. nil means slog.Default().
func (c *Context) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	c.log = l
}

// Resize changes the viewport and reports whether the projection changed.
// Renderers pick the new projection up on their next frame.
func (c *Context) Resize(width, height int) (bool, error) {
	changed, err := c.viewport.Resize(width, height)
	if err != nil {
		return false, fmt.Errorf("quads: resize: %w", err)
	}
	return changed, nil
}
