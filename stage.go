package quads

import (
	"errors"
	"log/slog"
	"time"
)

// UpdateFunc runs once per tick before sprites move. dt is in seconds.
// Returning ErrTerminate ends the run cleanly; any other error ends it with
// that error.
type UpdateFunc func(dt float64) error

// resizer is implemented by surfaces whose size the application controls.
type resizer interface {
	Resize(width, height int)
}

// Stage runs the per-tick sequence: script step, update function, tweens,
// sprite kinematics, then one rendered frame. Frame failures are logged and
// dropped; the next tick renders normally.
type Stage struct {
	r       *Renderer
	src     SpriteSource
	log     *slog.Logger
	update  UpdateFunc
	tweens  []*TweenGroup
	script  *Script
	shots   []string
	shotDir string
	buf     []*Sprite
	quit    bool

	frameErrors uint64
	lastErr     error
}

// NewStage binds a renderer to a sprite source. The stage logs through the
// renderer's logger.
func NewStage(r *Renderer, src SpriteSource) *Stage {
	return &Stage{r: r, src: src, log: r.log, shotDir: DefaultScreenshotDir}
}

// SetLogger replaces the stage's logger. nil means slog.Default().
func (s *Stage) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	s.log = l
}

// SetUpdateFunc sets the function called at the start of every tick.
func (s *Stage) SetUpdateFunc(fn UpdateFunc) { s.update = fn }

// SetSource replaces the sprite source.
func (s *Stage) SetSource(src SpriteSource) { s.src = src }

// SetScript attaches a script. It steps once per tick; when it finishes
// the stage keeps running unless the script quits.
func (s *Stage) SetScript(sc *Script) { s.script = sc }

// AddTween attaches a tween group. Finished groups are dropped.
func (s *Stage) AddTween(g *TweenGroup) { s.tweens = append(s.tweens, g) }

// Tweens returns the number of running tween groups.
func (s *Stage) Tweens() int { return len(s.tweens) }

// Renderer returns the stage's renderer.
func (s *Stage) Renderer() *Renderer { return s.r }

// Resize changes the viewport and, when the surface supports it, the surface
// size. The projection is re-uploaded on the next frame.
func (s *Stage) Resize(width, height int) error {
	changed, err := s.r.Context().Resize(width, height)
	if err != nil || !changed {
		return err
	}
	if rs, ok := s.r.Context().Surface().(resizer); ok {
		rs.Resize(width, height)
	}
	s.log.Debug("viewport resized", "width", width, "height", height)
	return nil
}

// ApplyConfig applies the settings of cfg that can change while running:
// viewport size, clear color and debug mode.
func (s *Stage) ApplyConfig(cfg RunConfig) error {
	c, err := cfg.Clear()
	if err != nil {
		return err
	}
	if err := s.Resize(cfg.Width, cfg.Height); err != nil {
		return err
	}
	s.r.SetClearColor(c)
	s.r.SetDebug(cfg.Debug)
	if cfg.ScreenshotDir != "" {
		s.SetScreenshotDir(cfg.ScreenshotDir)
	}
	return nil
}

// Quit makes the current tick return ErrTerminate.
func (s *Stage) Quit() { s.quit = true }

// FrameErrors returns the number of dropped frames.
func (s *Stage) FrameErrors() uint64 { return s.frameErrors }

// LastFrameError returns the most recent frame failure, or nil.
func (s *Stage) LastFrameError() error { return s.lastErr }

// Tick runs one tick with the given delta. It returns ErrTerminate when the
// run should end cleanly and a non-nil error when it should end with one.
// Frame submission failures do not end the run.
func (s *Stage) Tick(delta time.Duration) error {
	dt := max(delta.Seconds(), 0)

	if s.script != nil {
		if err := s.script.step(s); err != nil {
			s.log.Warn("script step failed", "err", err)
		}
	}
	if s.update != nil {
		if err := s.update(dt); err != nil {
			if errors.Is(err, ErrTerminate) {
				return ErrTerminate
			}
			return err
		}
	}

	live := s.tweens[:0]
	for _, g := range s.tweens {
		g.Update(float32(dt))
		if !g.Done {
			live = append(live, g)
		}
	}
	clear(s.tweens[len(live):])
	s.tweens = live

	s.buf = s.src.AppendSprites(s.buf[:0])
	for _, sp := range s.buf {
		sp.Update(dt)
	}
	if err := s.r.RenderFrame(s.buf); err != nil {
		s.frameErrors++
		s.lastErr = err
		s.log.Warn("frame dropped", "err", err)
	} else {
		s.flushScreenshots()
	}
	clear(s.buf)

	if s.quit {
		return ErrTerminate
	}
	return nil
}
