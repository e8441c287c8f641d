package gpu

import "fmt"

// MaxSlots bounds the bind group and vertex buffer slots a recorded pass
// tracks.
const MaxSlots = 8

// DrawCall is one Draw together with the state bound when it was issued.
type DrawCall struct {
	Pipeline      RenderPipeline
	BindGroups    [MaxSlots]BindGroup
	VertexBuffers [MaxSlots]Buffer
	VertexCount   uint32
	InstanceCount uint32
	FirstVertex   uint32
	FirstInstance uint32
}

// PassRecord is a finished render pass.
type PassRecord struct {
	Label            string
	ColorAttachments []RenderPassColorAttachment
	Draws            []DrawCall
}

// CommandList is the CommandBuffer produced by Recorder. Backends replay
// its passes on Submit.
type CommandList struct {
	label  string
	Passes []PassRecord
}

// Label implements CommandBuffer.
func (c *CommandList) Label() string { return c.label }

// Recorder is a backend-neutral CommandEncoder. It validates pass state as
// commands are recorded so backends only replay well-formed passes.
type Recorder struct {
	label    string
	passes   []PassRecord
	open     bool
	finished bool
	err      error
}

// NewRecorder returns an empty command recorder.
func NewRecorder(label string) *Recorder {
	return &Recorder{label: label}
}

// BeginRenderPass opens a pass. Only one pass may be open at a time.
func (r *Recorder) BeginRenderPass(desc RenderPassDescriptor) (RenderPassEncoder, error) {
	if r.finished {
		return nil, ErrEncoderFinished
	}
	if r.open {
		return nil, fmt.Errorf("%w: render pass %q begun while another pass is open", ErrInvalidUsage, desc.Label)
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	r.open = true
	attachments := make([]RenderPassColorAttachment, len(desc.ColorAttachments))
	copy(attachments, desc.ColorAttachments)
	return &passRecorder{
		owner: r,
		rec:   PassRecord{Label: desc.Label, ColorAttachments: attachments},
	}, nil
}

// Finish closes the recorder and returns its command list.
func (r *Recorder) Finish() (CommandBuffer, error) {
	if r.finished {
		return nil, ErrEncoderFinished
	}
	r.finished = true
	if r.open {
		return nil, fmt.Errorf("%w: encoder %q finished with an open render pass", ErrInvalidUsage, r.label)
	}
	if r.err != nil {
		return nil, r.err
	}
	return &CommandList{label: r.label, Passes: r.passes}, nil
}

type passRecorder struct {
	owner    *Recorder
	rec      PassRecord
	pipeline RenderPipeline
	groups   [MaxSlots]BindGroup
	buffers  [MaxSlots]Buffer
	ended    bool
	err      error
}

func (p *passRecorder) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *passRecorder) SetPipeline(pl RenderPipeline) {
	if pl == nil {
		p.fail(fmt.Errorf("%w: nil pipeline in pass %q", ErrInvalidUsage, p.rec.Label))
		return
	}
	p.pipeline = pl
}

func (p *passRecorder) SetBindGroup(index uint32, g BindGroup) {
	if index >= MaxSlots {
		p.fail(fmt.Errorf("%w: bind group index %d out of range", ErrInvalidUsage, index))
		return
	}
	p.groups[index] = g
}

func (p *passRecorder) SetVertexBuffer(slot uint32, b Buffer) {
	if slot >= MaxSlots {
		p.fail(fmt.Errorf("%w: vertex buffer slot %d out of range", ErrInvalidUsage, slot))
		return
	}
	if b != nil && !b.Usage().Has(BufferUsageVertex) {
		p.fail(fmt.Errorf("%w: buffer %q lacks vertex usage", ErrInvalidUsage, b.Label()))
		return
	}
	p.buffers[slot] = b
}

func (p *passRecorder) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	if p.err != nil {
		return
	}
	if p.pipeline == nil {
		p.fail(fmt.Errorf("%w: draw without pipeline in pass %q", ErrInvalidUsage, p.rec.Label))
		return
	}
	for slot, layout := range p.pipeline.VertexBuffers() {
		b := p.buffers[slot]
		if b == nil {
			p.fail(fmt.Errorf("%w: draw in pass %q with vertex slot %d unbound", ErrInvalidUsage, p.rec.Label, slot))
			return
		}
		if b.Destroyed() {
			p.fail(fmt.Errorf("%w: vertex buffer %q", ErrDestroyed, b.Label()))
			return
		}
		need := uint64(firstVertex+vertexCount) * layout.ArrayStride
		if need > b.Size() {
			p.fail(fmt.Errorf("%w: draw reads %d bytes from vertex buffer %q of %d bytes", ErrInvalidUsage, need, b.Label(), b.Size()))
			return
		}
	}
	p.rec.Draws = append(p.rec.Draws, DrawCall{
		Pipeline:      p.pipeline,
		BindGroups:    p.groups,
		VertexBuffers: p.buffers,
		VertexCount:   vertexCount,
		InstanceCount: instanceCount,
		FirstVertex:   firstVertex,
		FirstInstance: firstInstance,
	})
}

func (p *passRecorder) End() error {
	if p.ended {
		return fmt.Errorf("%w: render pass %q ended twice", ErrInvalidUsage, p.rec.Label)
	}
	p.ended = true
	p.owner.open = false
	if p.err != nil {
		if p.owner.err == nil {
			p.owner.err = p.err
		}
		return p.err
	}
	p.owner.passes = append(p.owner.passes, p.rec)
	return nil
}
