// sprites spawns a configurable number of sprites that drift across the
// window at random constant velocities, all sharing one texture. Settings come
// from a YAML file that is watched while the demo runs: saving it changes the
// clear color, window size and debug mode live.
//
//	go run ./demos/sprites -config demos/sprites/config.yaml
//	go run ./demos/sprites -headless -frames 300
package main

import (
	"context"
	"flag"
	"image"
	"image/color"
	"log"
	"log/slog"
	"math/rand/v2"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/tanema/gween/ease"

	"github.com/phanxgames/quads"
)

const textureSize = 32

func main() {
	configPath := flag.String("config", "", "YAML run config")
	headless := flag.Bool("headless", false, "render against the in-memory backend")
	frames := flag.Int("frames", -1, "headless frame count (0 runs until interrupted)")
	sprites := flag.Int("sprites", -1, "sprite count")
	debug := flag.Bool("debug", false, "log per-frame stats")
	flag.Parse()

	cfg := quads.DefaultRunConfig()
	if *configPath != "" {
		var err error
		if cfg, err = quads.LoadRunConfig(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	if *headless {
		cfg.Headless = true
	}
	if *frames >= 0 {
		cfg.Frames = *frames
	}
	if *sprites >= 0 {
		cfg.Sprites = *sprites
	}
	if *debug {
		cfg.Debug = true
	}

	if err := quads.Run(cfg, setup(cfg, *configPath)); err != nil {
		log.Fatal(err)
	}
}

func setup(cfg quads.RunConfig, configPath string) quads.SetupFunc {
	return func(ctx context.Context, rc *quads.Context) (*quads.Stage, error) {
		src := quads.ImageValue("generated", generatedTexture(textureSize))
		if cfg.Texture != "" {
			src = quads.FileSource(nil, cfg.Texture)
		}
		tex, err := quads.LoadTexture(ctx, rc, nil, src, quads.TextureOptions{Label: "sprite"})
		if err != nil {
			return nil, err
		}

		bg, err := cfg.Clear()
		if err != nil {
			return nil, err
		}
		r, err := quads.NewRenderer(rc, tex, quads.WithClearColor(bg), quads.WithDebug(cfg.Debug))
		if err != nil {
			return nil, err
		}

		set := &quads.SpriteSet{}
		stage := quads.NewStage(r, set)

		// Two fixed sprites first so every run has the same reference frame.
		anchors := [][4]float64{{0, 100, 100, 0}, {200, 100, 0, 100}}
		for _, a := range anchors {
			s, err := quads.NewSprite(tex, rc)
			if err != nil {
				return nil, err
			}
			s.SetPosition(a[0], a[1])
			s.SetVelocity(a[2], a[3])
			set.Add(s)
		}

		rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
		for range cfg.Sprites {
			s, err := quads.NewSprite(tex, rc)
			if err != nil {
				return nil, err
			}
			s.SetPosition(rng.Float64()*float64(cfg.Width), rng.Float64()*float64(cfg.Height))
			s.SetVelocity((rng.Float64()*2-1)*cfg.MaxSpeed, (rng.Float64()*2-1)*cfg.MaxSpeed)
			set.Add(s)
		}

		// The first anchor eases to a stop over two seconds.
		if first := set.AppendSprites(nil); len(first) > 0 {
			stage.AddTween(quads.TweenVelocity(first[0], 0, 0, 2, ease.InOutQuad))
		}

		logger := rc.Logger()
		logger.Info("sprites ready", slog.Int("sprites", set.Len()), slog.String("texture", src.String()))

		if configPath == "" || cfg.Headless {
			return stage, nil
		}
		watcher, err := quads.WatchConfig(configPath)
		if err != nil {
			logger.Warn("config hot reload disabled", "err", err)
			return stage, nil
		}
		stage.SetUpdateFunc(func(float64) error {
			for {
				select {
				case next, ok := <-watcher.Configs:
					if !ok {
						return nil
					}
					if err := stage.ApplyConfig(next); err != nil {
						logger.Warn("config reload", "err", err)
						continue
					}
					logger.Info("config reloaded", "path", watcher.Path())
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					logger.Warn("config watch", "err", err)
				default:
					return nil
				}
			}
		})
		return stage, nil
	}
}

// generatedTexture draws a hue ring with a transparent corner so blending is
// visible without any asset on disk.
func generatedTexture(size int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := range size {
		for x := range size {
			hue := float64(x+y) / float64(2*size) * 360
			r, g, b := colorful.Hsv(hue, 0.7, 0.95).RGB255()
			a := uint8(255)
			if x+y < size/3 {
				a = 0
			}
			img.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: a})
		}
	}
	return img
}
