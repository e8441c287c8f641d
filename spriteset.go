package quads

// SpriteSource supplies the sprites of one frame in draw order.
type SpriteSource interface {
	// AppendSprites appends the live sprites to dst in draw order.
	AppendSprites(dst []*Sprite) []*Sprite
}

// SpriteID is a stable handle into a SpriteSet. A handle whose sprite has
// been removed never resolves again, even after its slot is reused.
type SpriteID struct {
	index uint32
	gen   uint32
}

// IsZero reports whether id is the zero handle, which never resolves.
func (id SpriteID) IsZero() bool { return id.gen == 0 }

type spriteSlot struct {
	sprite *Sprite
	gen    uint32
}

// SpriteSet is a slot arena of sprites. Draw order is slot order and the most
// recently freed slot is reused first. The set owns its sprites: Remove and
// Clear release their buffers. The zero value is ready to use.
type SpriteSet struct {
	slots []spriteSlot
	free  []uint32
	live  int
}

// Add inserts s and returns its handle.
func (ss *SpriteSet) Add(s *Sprite) SpriteID {
	var idx uint32
	if n := len(ss.free); n > 0 {
		idx = ss.free[n-1]
		ss.free = ss.free[:n-1]
	} else {
		idx = uint32(len(ss.slots))
		ss.slots = append(ss.slots, spriteSlot{})
	}
	slot := &ss.slots[idx]
	slot.gen++
	if slot.gen == 0 {
		slot.gen = 1
	}
	slot.sprite = s
	ss.live++
	return SpriteID{index: idx, gen: slot.gen}
}

// Get returns the sprite for id, or nil if it has been removed.
func (ss *SpriteSet) Get(id SpriteID) *Sprite {
	if id.gen == 0 || int(id.index) >= len(ss.slots) {
		return nil
	}
	slot := &ss.slots[id.index]
	if slot.gen != id.gen {
		return nil
	}
	return slot.sprite
}

// Remove releases and drops the sprite for id. It reports false for stale
// handles.
func (ss *SpriteSet) Remove(id SpriteID) bool {
	s := ss.Get(id)
	if s == nil {
		return false
	}
	slot := &ss.slots[id.index]
	slot.sprite = nil
	slot.gen++
	ss.free = append(ss.free, id.index)
	ss.live--
	s.Release()
	return true
}

// Len returns the number of live sprites.
func (ss *SpriteSet) Len() int { return ss.live }

// Each calls fn for every live sprite in slot order until fn returns false.
// fn may remove sprites, including the one it was called with.
func (ss *SpriteSet) Each(fn func(id SpriteID, s *Sprite) bool) {
	for i := range ss.slots {
		slot := &ss.slots[i]
		if slot.sprite == nil {
			continue
		}
		if !fn(SpriteID{index: uint32(i), gen: slot.gen}, slot.sprite) {
			return
		}
	}
}

// AppendSprites implements SpriteSource.
func (ss *SpriteSet) AppendSprites(dst []*Sprite) []*Sprite {
	for i := range ss.slots {
		if s := ss.slots[i].sprite; s != nil {
			dst = append(dst, s)
		}
	}
	return dst
}

// Clear releases every sprite and empties the set. Outstanding handles
// become stale.
func (ss *SpriteSet) Clear() {
	ss.free = ss.free[:0]
	for i := range ss.slots {
		slot := &ss.slots[i]
		if slot.sprite != nil {
			slot.sprite.Release()
			slot.sprite = nil
		}
		slot.gen++
		ss.free = append(ss.free, uint32(len(ss.slots)-1-i))
	}
	ss.live = 0
}
