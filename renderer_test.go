package quads

import (
	"errors"
	"image/color"
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/phanxgames/quads/gpu"
	"github.com/phanxgames/quads/gpu/headless"
)

func newTestRenderer(t *testing.T, w, h int, opts ...RendererOption) (*Renderer, *Context, *headless.Device) {
	t.Helper()
	rc, dev, _ := newTestContext(t, w, h)
	tex := loadTestTexture(t, rc, 16, 16)
	r, err := NewRenderer(rc, tex, opts...)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r, rc, dev
}

func TestNewRendererPipeline(t *testing.T) {
	r, rc, dev := newTestRenderer(t, 600, 400)

	if len(dev.Pipelines) != 1 {
		t.Fatalf("%d pipelines, want 1", len(dev.Pipelines))
	}
	desc := dev.Pipelines[0].Desc
	if len(desc.Vertex.Buffers) != 2 {
		t.Fatalf("%d vertex buffers, want 2", len(desc.Vertex.Buffers))
	}
	for slot, b := range desc.Vertex.Buffers {
		if b.ArrayStride != 8 {
			t.Errorf("slot %d stride = %d, want 8", slot, b.ArrayStride)
		}
		if len(b.Attributes) != 1 || b.Attributes[0].ShaderLocation != uint32(slot) ||
			b.Attributes[0].Format != gpu.VertexFormatFloat32x2 {
			t.Errorf("slot %d attributes = %+v", slot, b.Attributes)
		}
	}
	if desc.Vertex.EntryPoint != "vertex" || desc.Fragment.EntryPoint != "fragment" {
		t.Errorf("entry points = %q/%q", desc.Vertex.EntryPoint, desc.Fragment.EntryPoint)
	}
	target := desc.Fragment.Targets[0]
	if target.Format != rc.Surface().Format() {
		t.Errorf("target format = %v, want surface format", target.Format)
	}
	if target.Blend == nil || *target.Blend != gpu.BlendPremultipliedAlpha {
		t.Errorf("blend = %+v, want one/one-minus-src-alpha", target.Blend)
	}
	if dev.Shaders[0].Desc.Code != spriteShaderSrc || spriteShaderSrc == "" {
		t.Error("shader module was not built from the embedded sprite shader")
	}

	sd := dev.Samplers[0].Descriptor()
	if sd.MagFilter != gpu.FilterNearest || sd.MinFilter != gpu.FilterNearest ||
		sd.AddressModeU != gpu.AddressClampToEdge || sd.AddressModeV != gpu.AddressClampToEdge {
		t.Errorf("sampler = %+v, want nearest clamp-to-edge", sd)
	}

	group := dev.BindGroups[0]
	entries := group.Entries()
	if len(entries) != 3 {
		t.Fatalf("%d bind group entries, want 3", len(entries))
	}
	if entries[0].Binding != 0 || entries[0].Sampler == nil ||
		entries[1].Binding != 1 || entries[1].TextureView != r.Texture().View() ||
		entries[2].Binding != 2 || entries[2].Buffer == nil {
		t.Errorf("bind group entries = %+v", entries)
	}
	uniform := entries[2].Buffer.(*headless.Buffer)
	if uniform.Size() != 64 || !uniform.Usage().Has(gpu.BufferUsageUniform) {
		t.Errorf("uniform buffer size=%d usage=%b", uniform.Size(), uniform.Usage())
	}
	if got := readMatrix(uniform.Bytes()); got != rc.Viewport().Matrix() {
		t.Error("projection not written at initialization")
	}
}

func readMatrix(b []byte) Mat4 {
	var m Mat4
	for i := range m {
		m[i] = readFloat(b, i)
	}
	return m
}

func TestNewRendererInitErrors(t *testing.T) {
	steps := []struct {
		op   headless.Op
		step string
	}{
		{headless.OpCreateShaderModule, "shader"},
		{headless.OpCreateRenderPipeline, "pipeline"},
		{headless.OpCreateSampler, "sampler"},
		{headless.OpCreateBuffer, "uniform buffer"},
		{headless.OpWriteBuffer, "projection"},
		{headless.OpCreateBindGroup, "bind group"},
	}
	for _, st := range steps {
		t.Run(st.step, func(t *testing.T) {
			rc, dev, _ := newTestContext(t, 100, 100)
			tex := loadTestTexture(t, rc, 4, 4)
			dev.FailNext(st.op, gpu.ErrResourceExhausted)

			_, err := NewRenderer(rc, tex)
			var ie *InitError
			if !errors.As(err, &ie) {
				t.Fatalf("err = %v, want *InitError", err)
			}
			if ie.Op != st.step {
				t.Errorf("op = %q, want %q", ie.Op, st.step)
			}
			if !errors.Is(err, gpu.ErrResourceExhausted) {
				t.Error("cause not reachable")
			}
		})
	}
}

func TestNewContextNoDevice(t *testing.T) {
	_, err := NewContext(nil, nil, 10, 10)
	var ie *InitError
	if !errors.As(err, &ie) || !errors.Is(err, gpu.ErrNoDevice) {
		t.Errorf("err = %v, want InitError wrapping ErrNoDevice", err)
	}
}

func TestRenderFrameSequence(t *testing.T) {
	r, rc, dev := newTestRenderer(t, 600, 400)

	n := 1002
	rng := rand.New(rand.NewPCG(1, 2))
	sprites := make([]*Sprite, n)
	for i := range sprites {
		s := newTestSprite(t, rc, r.Texture())
		s.SetPosition(rng.Float64()*600, rng.Float64()*400)
		sprites[i] = s
	}
	dev.Log().Reset()

	if err := r.RenderFrame(sprites); err != nil {
		t.Fatal(err)
	}
	q := dev.Log()
	if len(q.Submissions) != 1 {
		t.Fatalf("%d submissions, want 1", len(q.Submissions))
	}
	passes := q.Last().Passes
	if len(passes) != n+1 {
		t.Fatalf("%d passes, want %d", len(passes), n+1)
	}

	first := passes[0]
	if first.ColorAttachments[0].LoadOp != gpu.LoadOpClear || len(first.Draws) != 0 {
		t.Error("first pass must clear and draw nothing")
	}
	if first.ColorAttachments[0].ClearValue != (gpu.Color{R: 0.3, G: 0.3, B: 0.3, A: 1}) {
		t.Errorf("clear value = %+v", first.ColorAttachments[0].ClearValue)
	}

	drawn := make(map[gpu.Buffer]int, n)
	for i, p := range passes[1:] {
		if p.ColorAttachments[0].LoadOp != gpu.LoadOpLoad {
			t.Fatalf("sprite pass %d clears", i)
		}
		if len(p.Draws) != 1 {
			t.Fatalf("sprite pass %d has %d draws", i, len(p.Draws))
		}
		d := p.Draws[0]
		if d.VertexCount != 6 || d.InstanceCount != 1 || d.FirstVertex != 0 || d.FirstInstance != 0 {
			t.Errorf("pass %d draw = %+v", i, d)
		}
		if d.VertexBuffers[0] != sprites[i].geomBuf || d.VertexBuffers[1] != sprites[i].uvBuf {
			t.Fatalf("pass %d does not bind sprite %d's buffers", i, i)
		}
		if d.Pipeline != gpu.RenderPipeline(dev.Pipelines[0]) || d.BindGroups[0] != gpu.BindGroup(dev.BindGroups[0]) {
			t.Errorf("pass %d uses a different pipeline or bind group", i)
		}
		drawn[d.VertexBuffers[0]]++
	}
	for i, s := range sprites {
		if drawn[s.geomBuf] != 1 {
			t.Errorf("sprite %d drawn %d times", i, drawn[s.geomBuf])
		}
	}

	// Every sprite's buffers are written before the single submit.
	if got := len(q.Writes); got != 2*n {
		t.Errorf("%d buffer writes, want %d", got, 2*n)
	}

	st := r.Stats()
	if st.Passes != n+1 || st.ClearPasses != 1 || st.DrawCalls != n || st.Sprites != n {
		t.Errorf("stats = %+v", st)
	}
	if st.BytesUploaded != n*96 {
		t.Errorf("bytes uploaded = %d, want %d", st.BytesUploaded, n*96)
	}
}

func TestRenderFrameDeterministic(t *testing.T) {
	r, rc, dev := newTestRenderer(t, 600, 400)
	sprites := make([]*Sprite, 10)
	for i := range sprites {
		sprites[i] = newTestSprite(t, rc, r.Texture())
		sprites[i].SetPosition(float64(i*10), float64(i*5))
	}
	if err := r.RenderFrame(sprites); err != nil {
		t.Fatal(err)
	}
	if err := r.RenderFrame(sprites); err != nil {
		t.Fatal(err)
	}
	subs := dev.Log().Submissions
	a, b := subs[len(subs)-2], subs[len(subs)-1]
	if !reflect.DeepEqual(a.Passes, b.Passes) {
		t.Error("two frames with identical sprite state recorded different passes")
	}
}

func TestRenderFrameEmpty(t *testing.T) {
	r, _, dev := newTestRenderer(t, 100, 100)
	if err := r.RenderFrame(nil); err != nil {
		t.Fatal(err)
	}
	if passes := dev.Log().Last().Passes; len(passes) != 1 {
		t.Errorf("%d passes for no sprites, want only the clear", len(passes))
	}
}

func TestRenderFrameClearColor(t *testing.T) {
	c := Color{R: 0.1, G: 0.2, B: 0.3, A: 1}
	r, _, dev := newTestRenderer(t, 100, 100, WithClearColor(c))
	if err := r.RenderFrame(nil); err != nil {
		t.Fatal(err)
	}
	if got := dev.Log().Last().Passes[0].ColorAttachments[0].ClearValue; got != c.gpu() {
		t.Errorf("clear = %+v, want %+v", got, c)
	}
	r.SetClearColor(DefaultClearColor)
	if r.ClearColor() != DefaultClearColor {
		t.Error("SetClearColor not applied")
	}
}

func TestRenderFrameFailureIsTransient(t *testing.T) {
	r, rc, dev := newTestRenderer(t, 100, 100)
	sprites := []*Sprite{newTestSprite(t, rc, r.Texture()), newTestSprite(t, rc, r.Texture())}

	cases := []struct {
		op headless.Op
		n  int
	}{
		{headless.OpSubmit, 1},
		{headless.OpCurrentTexture, 1},
		{headless.OpCreateCommandEncoder, 1},
		{headless.OpWriteBuffer, 3},
	}
	for _, c := range cases {
		subs := len(dev.Log().Submissions)
		dev.FailNth(c.op, c.n, errors.New("device lost"))

		err := r.RenderFrame(sprites)
		var fe *FrameError
		if !errors.As(err, &fe) {
			t.Fatalf("%s: err = %v, want *FrameError", c.op, err)
		}
		if !errors.Is(err, ErrFrameSubmission) {
			t.Errorf("%s: errors.Is(ErrFrameSubmission) = false", c.op)
		}
		if fe.Frame != r.Frames() {
			t.Errorf("%s: frame = %d, want %d", c.op, fe.Frame, r.Frames())
		}
		if len(dev.Log().Submissions) != subs {
			t.Errorf("%s: a failed frame was submitted", c.op)
		}

		if err := r.RenderFrame(sprites); err != nil {
			t.Errorf("%s: next frame failed too: %v", c.op, err)
		}
		if len(dev.Log().Last().Passes) != 3 {
			t.Errorf("%s: recovery frame has %d passes", c.op, len(dev.Log().Last().Passes))
		}
	}
}

func TestRenderFrameReleasedSprite(t *testing.T) {
	r, rc, _ := newTestRenderer(t, 100, 100)
	s := newTestSprite(t, rc, r.Texture())
	s.Release()
	if err := r.RenderFrame([]*Sprite{s}); !errors.Is(err, ErrReleased) {
		t.Errorf("err = %v, want ErrReleased", err)
	}
}

func TestRenderFrameReuploadsProjectionOnResize(t *testing.T) {
	r, rc, dev := newTestRenderer(t, 600, 400)
	uniform := dev.BindGroups[0].Entries()[2].Buffer.(*headless.Buffer)

	dev.Log().Reset()
	if err := r.RenderFrame(nil); err != nil {
		t.Fatal(err)
	}
	if len(dev.Log().Writes) != 0 {
		t.Error("projection rewritten without a resize")
	}

	if changed, err := rc.Resize(800, 200); err != nil || !changed {
		t.Fatalf("Resize = %v, %v", changed, err)
	}
	if err := r.RenderFrame(nil); err != nil {
		t.Fatal(err)
	}
	writes := dev.Log().Writes
	if len(writes) != 1 || writes[0].Buffer != uniform {
		t.Fatalf("writes after resize = %d", len(writes))
	}
	if readMatrix(uniform.Bytes()) != Ortho(0, 800, 200, 0, ProjectionNear, ProjectionFar) {
		t.Error("uniform does not hold the resized projection")
	}

	// Same size again: no upload.
	rc.Resize(800, 200)
	if err := r.RenderFrame(nil); err != nil {
		t.Fatal(err)
	}
	if len(dev.Log().Writes) != 1 {
		t.Error("projection rewritten for an unchanged size")
	}
}

func TestSetTextureRebuildsOnlyOnIdentityChange(t *testing.T) {
	r, rc, dev := newTestRenderer(t, 100, 100)
	if len(dev.BindGroups) != 1 {
		t.Fatalf("%d bind groups after init", len(dev.BindGroups))
	}

	if err := r.SetTexture(r.Texture()); err != nil {
		t.Fatal(err)
	}
	if len(dev.BindGroups) != 1 {
		t.Error("bind group rebuilt for the same texture")
	}

	other := loadTestTexture(t, rc, 8, 8)
	if err := r.SetTexture(other); err != nil {
		t.Fatal(err)
	}
	if len(dev.BindGroups) != 2 {
		t.Errorf("%d bind groups, want 2 after switching textures", len(dev.BindGroups))
	}
	if r.Texture() != other {
		t.Error("texture not switched")
	}

	third := loadTestTexture(t, rc, 8, 8)
	dev.FailNext(headless.OpCreateBindGroup, errors.New("no"))
	if err := r.SetTexture(third); err == nil {
		t.Error("expected SetTexture to fail")
	}
	if r.Texture() != other {
		t.Error("failed SetTexture changed the bound texture")
	}

	if err := r.SetTexture(nil); !errors.Is(err, ErrNilTexture) {
		t.Errorf("nil texture err = %v", err)
	}
	pending := NewTexture(ImageValue("p", solidImage(1, 1, color.White)), TextureOptions{})
	if err := r.SetTexture(pending); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("pending texture err = %v", err)
	}
}

func BenchmarkRenderFrame1000(b *testing.B) {
	dev := headless.NewDevice()
	rc, err := NewContext(dev, headless.NewSurface(dev, 600, 400), 600, 400)
	if err != nil {
		b.Fatal(err)
	}
	tex, err := LoadTexture(b.Context(), rc, nil, ImageValue("b", solidImage(8, 8, color.White)), TextureOptions{})
	if err != nil {
		b.Fatal(err)
	}
	r, err := NewRenderer(rc, tex)
	if err != nil {
		b.Fatal(err)
	}
	sprites := make([]*Sprite, 1000)
	for i := range sprites {
		if sprites[i], err = NewSprite(tex, rc); err != nil {
			b.Fatal(err)
		}
	}
	b.ResetTimer()
	for range b.N {
		if err := r.RenderFrame(sprites); err != nil {
			b.Fatal(err)
		}
		dev.Log().Reset()
	}
}
