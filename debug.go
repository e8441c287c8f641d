package quads

import (
	"log/slog"
	"time"
)

// FrameStats holds per-frame timing and command metrics for the most
// recently rendered frame.
type FrameStats struct {
	Frame         uint64
	Sprites       int
	Passes        int
	ClearPasses   int
	DrawCalls     int
	BytesUploaded int
	UploadTime    time.Duration
	EncodeTime    time.Duration
	SubmitTime    time.Duration
}

// Total returns the CPU time spent on the frame.
func (s FrameStats) Total() time.Duration {
	return s.UploadTime + s.EncodeTime + s.SubmitTime
}

// LogValue implements slog.LogValuer.
func (s FrameStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("frame", s.Frame),
		slog.Int("sprites", s.Sprites),
		slog.Int("passes", s.Passes),
		slog.Int("clears", s.ClearPasses),
		slog.Int("draws", s.DrawCalls),
		slog.Int("bytes", s.BytesUploaded),
		slog.Duration("upload", s.UploadTime),
		slog.Duration("encode", s.EncodeTime),
		slog.Duration("submit", s.SubmitTime),
		slog.Duration("total", s.Total()),
	)
}

// debugLog emits the frame's stats at debug level. Only called when the
// renderer is in debug mode.
func (r *Renderer) debugLog(stats FrameStats) {
	r.log.Debug("frame", "stats", stats)
}

// debugMaxSprites is the sprite count above which debug mode warns that one
// pass per sprite is getting expensive.
const debugMaxSprites = 10000

func (r *Renderer) debugCheckSprites(sprites []*Sprite) {
	if len(sprites) > debugMaxSprites && !r.warnedCount {
		r.warnedCount = true
		r.log.Warn("sprite count exceeds threshold", "sprites", len(sprites), "threshold", debugMaxSprites)
	}
	for _, s := range sprites {
		if s.tex != r.tex && !r.warnedTexture {
			r.warnedTexture = true
			r.log.Warn("sprite texture differs from the bound texture; it is drawn with the bound one",
				"sprite", s.tex.Source().String(), "bound", r.tex.Source().String())
		}
	}
}
