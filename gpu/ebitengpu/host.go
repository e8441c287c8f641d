package ebitengpu

import (
	"errors"
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/phanxgames/quads/gpu"
)

// HostConfig configures the window a Host opens.
type HostConfig struct {
	Title     string
	Width     int
	Height    int
	ShowFPS   bool
	Resizable bool
	// OnResize is called from Layout whenever the logical size changes.
	OnResize func(width, height int)
}

// Host is an ebiten.Game that turns Ebitengine's Draw callback into a
// display-refresh scheduler: the callback registered with ScheduleNextFrame
// runs inside Draw, with the surface bound to the screen image.
type Host struct {
	cfg     HostConfig
	surface *Surface
	pending func(now time.Time)
	width   int
	height  int
	frames  uint64
	stopped bool
	err     error
}

// NewHost returns a host presenting into surface.
func NewHost(surface *Surface, cfg HostConfig) *Host {
	return &Host{cfg: cfg, surface: surface, width: cfg.Width, height: cfg.Height}
}

// ScheduleNextFrame registers fn for the next Draw. Only the most recent
// registration is kept.
func (h *Host) ScheduleNextFrame(fn func(now time.Time)) {
	h.pending = fn
}

// Stop ends the game after the current frame.
func (h *Host) Stop() { h.stopped = true }

// Fail ends the game after the current frame and makes Run return err.
func (h *Host) Fail(err error) {
	if h.err == nil {
		h.err = err
	}
	h.stopped = true
}

// Frames returns the number of Draw calls so far.
func (h *Host) Frames() uint64 { return h.frames }

// SetWindowSize resizes the window; Layout reports the new size.
func (h *Host) SetWindowSize(width, height int) {
	ebiten.SetWindowSize(width, height)
}

// Update implements ebiten.Game.
func (h *Host) Update() error {
	if h.stopped {
		return ebiten.Termination
	}
	return nil
}

// Draw implements ebiten.Game.
func (h *Host) Draw(screen *ebiten.Image) {
	h.frames++
	h.surface.bind(screen)
	defer h.surface.bind(nil)

	if fn := h.pending; fn != nil {
		h.pending = nil
		fn(time.Now())
	}
	if h.cfg.ShowFPS {
		ebitenutil.DebugPrint(screen, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
	}
}

// Layout implements ebiten.Game. The logical screen follows the window.
func (h *Host) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != h.width || outsideHeight != h.height {
		h.width, h.height = outsideWidth, outsideHeight
		if h.cfg.OnResize != nil {
			h.cfg.OnResize(outsideWidth, outsideHeight)
		}
	}
	return h.width, h.height
}

// Run opens the window and blocks until the game stops. A failure before the
// first frame is reported as gpu.ErrNoDevice.
func (h *Host) Run() error {
	ebiten.SetWindowTitle(h.cfg.Title)
	ebiten.SetWindowSize(h.cfg.Width, h.cfg.Height)
	if h.cfg.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	ebiten.SetTPS(ebiten.SyncWithFPS)

	err := ebiten.RunGame(h)
	switch {
	case err == nil, errors.Is(err, ebiten.Termination):
		return h.err
	case h.frames == 0:
		return fmt.Errorf("%w: %v", gpu.ErrNoDevice, err)
	default:
		return err
	}
}
