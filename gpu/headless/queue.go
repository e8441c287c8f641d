package headless

import (
	"fmt"
	"image"

	"github.com/phanxgames/quads/gpu"
)

// Write is one logged WriteBuffer call.
type Write struct {
	Buffer *Buffer
	Offset uint64
	Data   []byte
}

// Queue logs writes and submissions in the order they were issued while
// recording is on. The last clear value of each texture is kept either way.
type Queue struct {
	dev         *Device
	recording   bool
	clears      map[*Texture]gpu.Color
	Writes      []Write
	Submissions []*gpu.CommandList
}

// WriteBuffer implements gpu.Queue.
func (q *Queue) WriteBuffer(b gpu.Buffer, offset uint64, data []byte) error {
	if err := q.dev.injected(OpWriteBuffer); err != nil {
		return err
	}
	hb, ok := b.(*Buffer)
	if !ok {
		return fmt.Errorf("%w: buffer %T", gpu.ErrForeignResource, b)
	}
	if err := gpu.ValidateWrite(b, offset, len(data)); err != nil {
		return err
	}
	copy(hb.data[offset:], data)
	if !q.recording {
		return nil
	}
	logged := make([]byte, len(data))
	copy(logged, data)
	q.Writes = append(q.Writes, Write{Buffer: hb, Offset: offset, Data: logged})
	return nil
}

// CopyImageToTexture implements gpu.Queue.
func (q *Queue) CopyImageToTexture(src image.Image, dst gpu.Texture) error {
	if err := q.dev.injected(OpCopyImage); err != nil {
		return err
	}
	ht, ok := dst.(*Texture)
	if !ok {
		return fmt.Errorf("%w: texture %T", gpu.ErrForeignResource, dst)
	}
	if ht.destroyed {
		return fmt.Errorf("%w: copy into texture %q", gpu.ErrDestroyed, ht.Label())
	}
	if !ht.Usage().Has(gpu.TextureUsageCopyDst) {
		return fmt.Errorf("%w: texture %q lacks copy-dst usage", gpu.ErrInvalidUsage, ht.Label())
	}
	b := src.Bounds()
	if b.Dx() != ht.Width() || b.Dy() != ht.Height() {
		return fmt.Errorf("%w: copy %dx%d image into %dx%d texture %q",
			gpu.ErrInvalidUsage, b.Dx(), b.Dy(), ht.Width(), ht.Height(), ht.Label())
	}
	ht.pixels = toRGBA(src)
	return nil
}

// Submit implements gpu.Queue.
func (q *Queue) Submit(cmds ...gpu.CommandBuffer) error {
	if err := q.dev.injected(OpSubmit); err != nil {
		return err
	}
	lists := make([]*gpu.CommandList, 0, len(cmds))
	for _, c := range cmds {
		cl, ok := c.(*gpu.CommandList)
		if !ok {
			return fmt.Errorf("%w: command buffer %T", gpu.ErrForeignResource, c)
		}
		lists = append(lists, cl)
	}
	for _, cl := range lists {
		q.trackClears(cl)
	}
	if q.recording {
		q.Submissions = append(q.Submissions, lists...)
	}
	return nil
}

func (q *Queue) trackClears(cl *gpu.CommandList) {
	for _, p := range cl.Passes {
		for _, a := range p.ColorAttachments {
			if a.LoadOp != gpu.LoadOpClear || a.View == nil {
				continue
			}
			if t, ok := a.View.Texture().(*Texture); ok {
				q.clears[t] = a.ClearValue
			}
		}
	}
}

// Recording reports whether writes and submissions are logged.
func (q *Queue) Recording() bool { return q.recording }

// Last returns the most recently submitted command list, or nil.
func (q *Queue) Last() *gpu.CommandList {
	if len(q.Submissions) == 0 {
		return nil
	}
	return q.Submissions[len(q.Submissions)-1]
}

// Reset forgets logged writes and submissions. Clear values survive.
func (q *Queue) Reset() {
	q.Writes = q.Writes[:0]
	q.Submissions = q.Submissions[:0]
}
