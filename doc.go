// Package quads is a minimal real-time 2D sprite renderer for [Ebitengine].
//
// It moves and draws many independently moving textured quads per frame
// through a WebGPU-shaped pipeline (package [github.com/phanxgames/quads/gpu]).
// A shared orthographic projection maps pixel coordinates, origin top-left and
// y down, to clip space.
//
// # Quick start
//
// [Run] opens a window, hands a ready [Context] to your setup function and
// drives the returned [Stage] at the display refresh rate:
//
//	cfg := quads.DefaultRunConfig()
//	err := quads.Run(cfg, func(ctx context.Context, rc *quads.Context) (*quads.Stage, error) {
//		tex, err := quads.LoadTexture(ctx, rc, nil, quads.FileSource(nil, "sprite.png"), quads.TextureOptions{})
//		if err != nil {
//			return nil, err
//		}
//		r, err := quads.NewRenderer(rc, tex)
//		if err != nil {
//			return nil, err
//		}
//		var set quads.SpriteSet
//		s, err := quads.NewSprite(tex, rc)
//		if err != nil {
//			return nil, err
//		}
//		s.SetPosition(0, 100)
//		s.SetVelocity(100, 0)
//		set.Add(s)
//		return quads.NewStage(r, &set), nil
//	})
//
// [RunHeadless] runs the same setup against an in-memory device, which is
// how the package is tested.
//
// # Frames
//
// Every tick the stage steps its [Script], calls the update function,
// advances tweens, moves every sprite by velocity*dt and calls
// [Renderer.RenderFrame]. A frame is one clear pass followed by one load pass
// per sprite, in the order the [SpriteSource] returns them, submitted as a
// single command buffer. Later sprites composite over earlier ones.
//
// # Errors
//
// Setup failures are an [*InitError] or a [*LoadError] and abort the run
// before anything is drawn. Per-frame failures are a [*FrameError]; the stage
// logs and drops the frame and the loop carries on.
//
// [Ebitengine]: https://ebitengine.org
package quads
