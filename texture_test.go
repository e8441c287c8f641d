package quads

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"testing/fstest"

	"github.com/phanxgames/quads/gpu"
	"github.com/phanxgames/quads/gpu/headless"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestTextureLoadFromFS(t *testing.T) {
	rc, dev, _ := newTestContext(t, 600, 400)
	fsys := fstest.MapFS{
		"img/sprite.png": {Data: encodePNG(t, solidImage(24, 12, color.RGBA{G: 255, A: 255}))},
	}
	tex := NewTexture(FileSource(fsys, "img/sprite.png"), TextureOptions{})

	if _, _, err := tex.Size(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Size before load err = %v, want ErrNotLoaded", err)
	}
	if _, err := tex.Width(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Width before load err = %v", err)
	}
	if _, err := tex.Height(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Height before load err = %v", err)
	}

	if err := tex.Load(context.Background(), rc, nil); err != nil {
		t.Fatal(err)
	}
	w, h, err := tex.Size()
	if err != nil || w != 24 || h != 12 {
		t.Errorf("Size = %d,%d,%v, want 24,12,nil", w, h, err)
	}
	if tex.Format() != gpu.FormatRGBA8Unorm {
		t.Errorf("format = %v, want rgba8unorm", tex.Format())
	}

	ht := dev.Textures[len(dev.Textures)-1]
	want := gpu.TextureUsageCopyDst | gpu.TextureUsageTextureBinding | gpu.TextureUsageRenderAttachment
	if ht.Usage() != want {
		t.Errorf("usage = %b, want %b", ht.Usage(), want)
	}
	if px := ht.Pixels(); px == nil || px.RGBAAt(3, 3) != (color.RGBA{G: 255, A: 255}) {
		t.Error("pixels were not copied into the texture")
	}
	if ht.Label() != "img/sprite.png" {
		t.Errorf("label = %q", ht.Label())
	}

	if err := tex.Load(context.Background(), rc, nil); !errors.Is(err, ErrAlreadyLoaded) {
		t.Errorf("second Load err = %v, want ErrAlreadyLoaded", err)
	}
}

func TestTextureMatchSurfaceFormat(t *testing.T) {
	rc, _, surface := newTestContext(t, 10, 10)
	src := ImageValue("img", solidImage(2, 2, color.White))
	tex, err := LoadTexture(context.Background(), rc, nil, src, TextureOptions{MatchSurfaceFormat: true})
	if err != nil {
		t.Fatal(err)
	}
	if tex.Format() != surface.Format() {
		t.Errorf("format = %v, want surface format %v", tex.Format(), surface.Format())
	}
}

func TestTextureLoadCorruptImage(t *testing.T) {
	rc, dev, _ := newTestContext(t, 600, 400)
	tex := NewTexture(BytesSource("broken.png", []byte("\x89PNG\r\n\x1a\nnot really")), TextureOptions{})

	err := tex.Load(context.Background(), rc, nil)
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("err = %v, want *LoadError", err)
	}
	if le.Kind != LoadDecode {
		t.Errorf("kind = %v, want decode", le.Kind)
	}
	if !errors.Is(err, ErrDecode) {
		t.Error("errors.Is(err, ErrDecode) = false")
	}
	if tex.Loaded() {
		t.Error("texture marked loaded after decode failure")
	}
	if len(dev.Textures) != 0 {
		t.Errorf("%d textures allocated for a corrupt image", len(dev.Textures))
	}

	// The renderer is never initialized with a texture that failed to load.
	if _, err := NewRenderer(rc, tex); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("NewRenderer err = %v, want ErrNotLoaded", err)
	}
	if len(dev.Pipelines) != 0 {
		t.Error("pipeline created for an unloaded texture")
	}
}

func TestTextureLoadMissingFile(t *testing.T) {
	rc, _, _ := newTestContext(t, 10, 10)
	tex := NewTexture(FileSource(fstest.MapFS{}, "nope.png"), TextureOptions{})
	err := tex.Load(context.Background(), rc, nil)
	if !errors.Is(err, ErrDecode) {
		t.Errorf("err = %v, want a decode failure", err)
	}
}

func TestTextureLoadDeviceExhausted(t *testing.T) {
	rc, dev, _ := newTestContext(t, 10, 10)
	src := ImageValue("img", solidImage(4, 4, color.White))

	dev.FailNext(headless.OpCreateTexture, gpu.ErrResourceExhausted)
	_, err := LoadTexture(context.Background(), rc, nil, src, TextureOptions{})
	var le *LoadError
	if !errors.As(err, &le) || le.Kind != LoadDeviceResourceExhausted {
		t.Fatalf("err = %v, want device-exhausted LoadError", err)
	}
	if !errors.Is(err, gpu.ErrResourceExhausted) {
		t.Error("device cause not reachable")
	}
	if errors.Is(err, ErrDecode) {
		t.Error("device failure reported as a decode failure")
	}

	dev.SetLimits(gpu.Limits{MaxTextureDimension2D: 2})
	if _, err := LoadTexture(context.Background(), rc, nil, src, TextureOptions{}); !errors.Is(err, gpu.ErrResourceExhausted) {
		t.Errorf("oversized texture err = %v", err)
	}

	dev.SetLimits(gpu.DefaultLimits)
	dev.FailNext(headless.OpCopyImage, errors.New("copy lost"))
	if _, err := LoadTexture(context.Background(), rc, nil, src, TextureOptions{}); !errors.As(err, &le) || le.Kind != LoadDeviceResourceExhausted {
		t.Errorf("copy failure err = %v", err)
	}
	if last := dev.Textures[len(dev.Textures)-1]; !last.Destroyed() {
		t.Error("texture not destroyed after failed copy")
	}

	// Misuse causes are still reported as device exhaustion.
	for _, cause := range []error{gpu.ErrInvalidUsage, gpu.ErrInvalidDescriptor} {
		dev.FailNext(headless.OpCopyImage, cause)
		_, err := LoadTexture(context.Background(), rc, nil, src, TextureOptions{})
		if !errors.Is(err, gpu.ErrResourceExhausted) {
			t.Errorf("%v: err = %v, want it to match gpu.ErrResourceExhausted", cause, err)
		}
		if !errors.Is(err, cause) {
			t.Errorf("%v: cause not reachable from %v", cause, err)
		}
	}
}

func TestTextureLoadCancelled(t *testing.T) {
	rc, _, _ := newTestContext(t, 10, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := LoadTexture(ctx, rc, nil, ImageValue("img", solidImage(2, 2, color.White)), TextureOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestLoadTextures(t *testing.T) {
	rc, dev, _ := newTestContext(t, 10, 10)
	srcs := []ImageSource{
		BytesSource("a", encodePNG(t, solidImage(1, 2, color.White))),
		BytesSource("b", encodePNG(t, solidImage(3, 4, color.White))),
		ImageValue("c", solidImage(5, 6, color.White)),
	}
	texs, err := LoadTextures(context.Background(), rc, nil, srcs, TextureOptions{})
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range [][2]int{{1, 2}, {3, 4}, {5, 6}} {
		w, h, err := texs[i].Size()
		if err != nil || w != want[0] || h != want[1] {
			t.Errorf("texture %d size = %dx%d (%v), want %dx%d", i, w, h, err, want[0], want[1])
		}
	}
	for i, name := range []string{"a", "b", "c"} {
		if dev.Textures[i].Label() != name {
			t.Errorf("upload %d = %q, want %q", i, dev.Textures[i].Label(), name)
		}
	}
}

func TestLoadTexturesFailureReleasesAll(t *testing.T) {
	rc, dev, _ := newTestContext(t, 10, 10)
	srcs := []ImageSource{
		ImageValue("a", solidImage(2, 2, color.White)),
		ImageValue("b", solidImage(2, 2, color.White)),
		ImageValue("c", solidImage(2, 2, color.White)),
	}
	dev.FailNth(headless.OpCreateTexture, 3, gpu.ErrResourceExhausted)
	if _, err := LoadTextures(context.Background(), rc, nil, srcs, TextureOptions{}); !errors.Is(err, gpu.ErrResourceExhausted) {
		t.Fatalf("err = %v", err)
	}
	for _, tex := range dev.Textures {
		if !tex.Destroyed() {
			t.Errorf("texture %q left allocated", tex.Label())
		}
	}

	srcs[1] = BytesSource("bad", []byte("garbage"))
	before := len(dev.Textures)
	if _, err := LoadTextures(context.Background(), rc, nil, srcs, TextureOptions{}); !errors.Is(err, ErrDecode) {
		t.Fatalf("err = %v, want decode failure", err)
	}
	if len(dev.Textures) != before {
		t.Error("textures uploaded although a decode failed")
	}
}

func TestTextureRelease(t *testing.T) {
	rc, dev, _ := newTestContext(t, 10, 10)
	tex := loadTestTexture(t, rc, 2, 2)
	tex.Release()
	if !dev.Textures[0].Destroyed() {
		t.Error("Release did not destroy the GPU texture")
	}
	if tex.Loaded() {
		t.Error("Loaded = true after Release")
	}
	if _, _, err := tex.Size(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Size after Release: %v, want ErrNotLoaded", err)
	}
	if tex.View() != nil {
		t.Error("view kept after Release")
	}
	if _, err := NewSprite(tex, rc); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("NewSprite on released texture: %v, want ErrNotLoaded", err)
	}
	if _, err := NewRenderer(rc, tex); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("NewRenderer on released texture: %v, want ErrNotLoaded", err)
	}
	if err := tex.Load(context.Background(), rc, nil); !errors.Is(err, ErrReleased) {
		t.Errorf("Load after Release: %v, want ErrReleased", err)
	}
	tex.Release()
}
