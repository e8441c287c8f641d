package quads

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/phanxgames/quads/gpu"
)

// DefaultScreenshotDir is where a Stage writes screenshots unless told
// otherwise.
const DefaultScreenshotDir = "screenshots"

// Screenshot queues a labeled screenshot of the next frame that is
// submitted successfully. The PNG is written to the stage's screenshot
// directory with a timestamped file name.
func (s *Stage) Screenshot(label string) {
	s.shots = append(s.shots, label)
}

// SetScreenshotDir changes the screenshot directory.
func (s *Stage) SetScreenshotDir(dir string) {
	if dir == "" {
		dir = DefaultScreenshotDir
	}
	s.shotDir = dir
}

// flushScreenshots reads back the submitted frame for every queued label
// and writes each as a PNG file. Failures are logged, never returned.
func (s *Stage) flushScreenshots() {
	if len(s.shots) == 0 {
		return
	}
	defer func() { s.shots = s.shots[:0] }()

	surface := s.r.Context().Surface()
	reader, ok := surface.(gpu.PixelReader)
	if !ok {
		s.log.Warn("screenshot: surface cannot read back pixels", "surface", fmt.Sprintf("%T", surface))
		return
	}
	if err := os.MkdirAll(s.shotDir, 0o755); err != nil {
		s.log.Warn("screenshot: mkdir", "dir", s.shotDir, "err", err)
		return
	}

	w, h := surface.Size()
	pixels := make([]byte, 4*w*h)
	if err := reader.ReadPixels(pixels); err != nil {
		s.log.Warn("screenshot: read pixels", "err", err)
		return
	}
	img := unpremultiply(pixels, w, h)

	stamp := time.Now().Format("20060102_150405")
	for _, label := range s.shots {
		path := filepath.Join(s.shotDir, fmt.Sprintf("%s_%s.png", stamp, sanitizeLabel(label)))
		if err := writePNG(path, img); err != nil {
			s.log.Warn("screenshot", "err", err)
			continue
		}
		s.log.Info("screenshot written", "path", path)
	}
}

// unpremultiply converts premultiplied RGBA bytes to straight-alpha NRGBA.
func unpremultiply(pixels []byte, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i+3 < len(pixels); i += 4 {
		r, g, b, a := pixels[i], pixels[i+1], pixels[i+2], pixels[i+3]
		if a > 0 && a < 255 {
			r = uint8(min(int(r)*255/int(a), 255))
			g = uint8(min(int(g)*255/int(a), 255))
			b = uint8(min(int(b)*255/int(a), 255))
		}
		img.Pix[i] = r
		img.Pix[i+1] = g
		img.Pix[i+2] = b
		img.Pix[i+3] = a
	}
	return img
}

// writePNG encodes an image to a PNG file at the given path.
func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// sanitizeLabel replaces characters that are unsafe in file names with
// underscores and falls back to "unlabeled" for empty strings.
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
