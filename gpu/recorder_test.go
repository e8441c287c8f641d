package gpu_test

import (
	"errors"
	"testing"

	"github.com/phanxgames/quads/gpu"
	"github.com/phanxgames/quads/gpu/headless"
)

type fixture struct {
	dev      *headless.Device
	view     gpu.TextureView
	pipeline gpu.RenderPipeline
	vbuf     gpu.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dev := headless.NewDevice()
	surface := headless.NewSurface(dev, 16, 16)
	tex, err := surface.CurrentTexture()
	if err != nil {
		t.Fatal(err)
	}
	view, err := tex.CreateView()
	if err != nil {
		t.Fatal(err)
	}
	shader, err := dev.CreateShaderModule(gpu.ShaderModuleDescriptor{Label: "s", Code: "package main"})
	if err != nil {
		t.Fatal(err)
	}
	pl, err := dev.CreateRenderPipeline(gpu.RenderPipelineDescriptor{
		Label: "p",
		Vertex: gpu.VertexState{Module: shader, EntryPoint: "vertex", Buffers: []gpu.VertexBufferLayout{
			{ArrayStride: 8, Attributes: []gpu.VertexAttribute{{Format: gpu.VertexFormatFloat32x2}}},
		}},
		Fragment: gpu.FragmentState{Module: shader, EntryPoint: "fragment", Targets: []gpu.ColorTargetState{
			{Format: gpu.FormatBGRA8Unorm},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	vbuf, err := dev.CreateBuffer(gpu.BufferDescriptor{Label: "v", Size: 48, Usage: gpu.BufferUsageVertex | gpu.BufferUsageCopyDst})
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{dev: dev, view: view, pipeline: pl, vbuf: vbuf}
}

func (f *fixture) pass(op gpu.LoadOp) gpu.RenderPassDescriptor {
	return gpu.RenderPassDescriptor{
		Label:            "pass",
		ColorAttachments: []gpu.RenderPassColorAttachment{{View: f.view, LoadOp: op, StoreOp: gpu.StoreOpStore}},
	}
}

func TestRecorderRecordsPasses(t *testing.T) {
	f := newFixture(t)
	rec := gpu.NewRecorder("frame")

	p, err := rec.BeginRenderPass(f.pass(gpu.LoadOpClear))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.End(); err != nil {
		t.Fatal(err)
	}
	p, err = rec.BeginRenderPass(f.pass(gpu.LoadOpLoad))
	if err != nil {
		t.Fatal(err)
	}
	p.SetPipeline(f.pipeline)
	p.SetVertexBuffer(0, f.vbuf)
	p.Draw(6, 1, 0, 0)
	if err := p.End(); err != nil {
		t.Fatal(err)
	}

	cmd, err := rec.Finish()
	if err != nil {
		t.Fatal(err)
	}
	cl := cmd.(*gpu.CommandList)
	if cl.Label() != "frame" || len(cl.Passes) != 2 {
		t.Fatalf("command list %q with %d passes", cl.Label(), len(cl.Passes))
	}
	if len(cl.Passes[0].Draws) != 0 || len(cl.Passes[1].Draws) != 1 {
		t.Error("draws recorded in the wrong pass")
	}
	d := cl.Passes[1].Draws[0]
	if d.VertexCount != 6 || d.Pipeline != f.pipeline || d.VertexBuffers[0] != f.vbuf {
		t.Errorf("draw = %+v", d)
	}
}

func TestRecorderRejectsMisuse(t *testing.T) {
	f := newFixture(t)

	t.Run("overlapping passes", func(t *testing.T) {
		rec := gpu.NewRecorder("r")
		if _, err := rec.BeginRenderPass(f.pass(gpu.LoadOpClear)); err != nil {
			t.Fatal(err)
		}
		if _, err := rec.BeginRenderPass(f.pass(gpu.LoadOpClear)); !errors.Is(err, gpu.ErrInvalidUsage) {
			t.Errorf("err = %v", err)
		}
		if _, err := rec.Finish(); !errors.Is(err, gpu.ErrInvalidUsage) {
			t.Errorf("finish with open pass: %v", err)
		}
	})

	t.Run("draw without pipeline", func(t *testing.T) {
		rec := gpu.NewRecorder("r")
		p, _ := rec.BeginRenderPass(f.pass(gpu.LoadOpLoad))
		p.Draw(6, 1, 0, 0)
		if err := p.End(); !errors.Is(err, gpu.ErrInvalidUsage) {
			t.Errorf("err = %v", err)
		}
		if _, err := rec.Finish(); err == nil {
			t.Error("finish succeeded after a failed pass")
		}
	})

	t.Run("unbound vertex slot", func(t *testing.T) {
		rec := gpu.NewRecorder("r")
		p, _ := rec.BeginRenderPass(f.pass(gpu.LoadOpLoad))
		p.SetPipeline(f.pipeline)
		p.Draw(6, 1, 0, 0)
		if err := p.End(); !errors.Is(err, gpu.ErrInvalidUsage) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("vertex buffer overrun", func(t *testing.T) {
		rec := gpu.NewRecorder("r")
		p, _ := rec.BeginRenderPass(f.pass(gpu.LoadOpLoad))
		p.SetPipeline(f.pipeline)
		p.SetVertexBuffer(0, f.vbuf)
		p.Draw(7, 1, 0, 0)
		if err := p.End(); !errors.Is(err, gpu.ErrInvalidUsage) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("destroyed buffer", func(t *testing.T) {
		b, _ := f.dev.CreateBuffer(gpu.BufferDescriptor{Label: "gone", Size: 48, Usage: gpu.BufferUsageVertex})
		b.Destroy()
		rec := gpu.NewRecorder("r")
		p, _ := rec.BeginRenderPass(f.pass(gpu.LoadOpLoad))
		p.SetPipeline(f.pipeline)
		p.SetVertexBuffer(0, b)
		p.Draw(6, 1, 0, 0)
		if err := p.End(); !errors.Is(err, gpu.ErrDestroyed) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("non-vertex buffer", func(t *testing.T) {
		b, _ := f.dev.CreateBuffer(gpu.BufferDescriptor{Label: "u", Size: 64, Usage: gpu.BufferUsageUniform})
		rec := gpu.NewRecorder("r")
		p, _ := rec.BeginRenderPass(f.pass(gpu.LoadOpLoad))
		p.SetVertexBuffer(0, b)
		if err := p.End(); !errors.Is(err, gpu.ErrInvalidUsage) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("ended twice", func(t *testing.T) {
		rec := gpu.NewRecorder("r")
		p, _ := rec.BeginRenderPass(f.pass(gpu.LoadOpClear))
		p.End()
		if err := p.End(); !errors.Is(err, gpu.ErrInvalidUsage) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("finished twice", func(t *testing.T) {
		rec := gpu.NewRecorder("r")
		if _, err := rec.Finish(); err != nil {
			t.Fatal(err)
		}
		if _, err := rec.Finish(); !errors.Is(err, gpu.ErrEncoderFinished) {
			t.Errorf("err = %v", err)
		}
		if _, err := rec.BeginRenderPass(f.pass(gpu.LoadOpClear)); !errors.Is(err, gpu.ErrEncoderFinished) {
			t.Errorf("begin after finish: %v", err)
		}
	})

	t.Run("no attachments", func(t *testing.T) {
		rec := gpu.NewRecorder("r")
		if _, err := rec.BeginRenderPass(gpu.RenderPassDescriptor{Label: "empty"}); !errors.Is(err, gpu.ErrInvalidDescriptor) {
			t.Errorf("err = %v", err)
		}
	})
}
