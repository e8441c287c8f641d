package quads

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/phanxgames/quads/gpu"
	"github.com/phanxgames/quads/gpu/ebitengpu"
	"github.com/phanxgames/quads/gpu/headless"
)

// SetupFunc is the blocking setup phase: it runs once the graphics context
// is ready, loads textures, builds the renderer and returns the stage the
// frame loop drives. An error aborts the run before any frame is drawn.
type SetupFunc func(ctx context.Context, rc *Context) (*Stage, error)

// Run opens a window and drives the stage returned by setup at the display
// refresh rate until the stage terminates or the window closes. With
// cfg.Headless set it behaves like RunHeadless.
func Run(cfg RunConfig, setup SetupFunc) error {
	if cfg.Headless {
		return RunHeadless(context.Background(), cfg, setup)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := cfg.Logger(os.Stderr)

	surface := ebitengpu.NewSurface(cfg.Width, cfg.Height)
	rc, err := NewContext(ebitengpu.NewDevice(), surface, cfg.Width, cfg.Height)
	if err != nil {
		return err
	}
	rc.SetLogger(log)
	stage, err := prepare(context.Background(), cfg, rc, setup)
	if err != nil {
		return err
	}

	host := ebitengpu.NewHost(surface, ebitengpu.HostConfig{
		Title:     cfg.Title,
		Width:     cfg.Width,
		Height:    cfg.Height,
		ShowFPS:   cfg.ShowFPS,
		Resizable: cfg.Resizable,
		OnResize: func(w, h int) {
			if err := stage.Resize(w, h); err != nil {
				log.Warn("resize", "err", err)
			}
		},
	})
	loop := NewFrameLoop(host)
	var stageErr error
	loop.Run(func(delta time.Duration) {
		err := stage.Tick(delta)
		switch {
		case err == nil:
		case errors.Is(err, ErrTerminate):
			loop.Stop()
			host.Stop()
		default:
			stageErr = err
			loop.Stop()
			host.Fail(err)
		}
	})
	err = host.Run()
	switch {
	case stageErr != nil:
		return stageErr
	case errors.Is(err, gpu.ErrNoDevice):
		return &InitError{Op: "device", Err: err}
	default:
		return err
	}
}

// RunHeadless drives the stage against the in-memory backend for
// cfg.Frames ticks (forever when zero) at cfg.FrameRate, or until ctx is
// done or the stage terminates.
func RunHeadless(ctx context.Context, cfg RunConfig, setup SetupFunc) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	dev := headless.NewDevice()
	dev.SetRecording(false)
	surface := headless.NewSurface(dev, cfg.Width, cfg.Height)
	rc, err := NewContext(dev, surface, cfg.Width, cfg.Height)
	if err != nil {
		return err
	}
	rc.SetLogger(cfg.Logger(os.Stderr))
	return runHeadless(ctx, cfg, rc, setup)
}

func runHeadless(ctx context.Context, cfg RunConfig, rc *Context, setup SetupFunc) error {
	stage, err := prepare(ctx, cfg, rc, setup)
	if err != nil {
		return err
	}
	sched := NewTickerScheduler(cfg.Interval())
	loop := NewFrameLoop(sched)
	var runErr error
	loop.Run(func(delta time.Duration) {
		err := stage.Tick(delta)
		switch {
		case err == nil:
			if cfg.Frames > 0 && loop.Frames() >= uint64(cfg.Frames) {
				loop.Stop()
			}
		case errors.Is(err, ErrTerminate):
			loop.Stop()
		default:
			runErr = err
			loop.Stop()
		}
	})
	if err := sched.Run(ctx); err != nil {
		return err
	}
	stage.Renderer().Context().Logger().Info("headless run finished",
		slog.Uint64("frames", loop.Frames()),
		slog.Uint64("dropped", stage.FrameErrors()))
	return runErr
}

// prepare runs setup and applies the run-wide stage settings.
func prepare(ctx context.Context, cfg RunConfig, rc *Context, setup SetupFunc) (*Stage, error) {
	if setup == nil {
		return nil, errors.New("quads: run: nil setup")
	}
	stage, err := setup(ctx, rc)
	if err != nil {
		return nil, fmt.Errorf("quads: setup: %w", err)
	}
	if stage == nil {
		return nil, errors.New("quads: setup returned no stage")
	}
	stage.SetScreenshotDir(cfg.ScreenshotDir)
	if cfg.Debug {
		stage.Renderer().SetDebug(true)
	}
	if cfg.Script != "" {
		sc, err := LoadScript(cfg.Script)
		if err != nil {
			return nil, fmt.Errorf("quads: setup: %w", err)
		}
		stage.SetScript(sc)
	}
	return stage, nil
}
