package ecs

import (
	"cmp"
	"slices"

	"github.com/phanxgames/quads"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
	"github.com/yohamta/donburi/filter"
)

// SpriteData is the component attached to every sprite entity.
type SpriteData struct {
	Sprite *quads.Sprite
	// Order sets the draw position; lower orders draw first.
	Order int
	seq   uint64
}

// SpriteComponent is the Donburi component type holding SpriteData.
var SpriteComponent = donburi.NewComponentType[SpriteData]()

// SpriteRemoved is published when Store.Remove drops a sprite entity.
type SpriteRemoved struct {
	Entity donburi.Entity
	Order  int
}

// SpriteRemovedEvent is the Donburi event type for SpriteRemoved. Events are
// queued; call ProcessEvents to deliver them.
var SpriteRemovedEvent = events.NewEventType[SpriteRemoved]()

// Store keeps quads sprites as entities of a Donburi world.
type Store struct {
	world   donburi.World
	query   *donburi.Query
	seq     uint64
	scratch []SpriteData
}

// NewStore creates a Store backed by world.
func NewStore(world donburi.World) *Store {
	return &Store{
		world: world,
		query: donburi.NewQuery(filter.Contains(SpriteComponent)),
	}
}

// World returns the backing world.
func (s *Store) World() donburi.World { return s.world }

// Add creates an entity for sp that draws after every sprite added so far
// with the same order (zero).
func (s *Store) Add(sp *quads.Sprite) donburi.Entity {
	return s.AddWithOrder(sp, 0)
}

// AddWithOrder creates an entity for sp with the given draw order.
func (s *Store) AddWithOrder(sp *quads.Sprite, order int) donburi.Entity {
	e := s.world.Create(SpriteComponent)
	s.seq++
	SpriteComponent.SetValue(s.world.Entry(e), SpriteData{Sprite: sp, Order: order, seq: s.seq})
	return e
}

// Sprite returns the sprite of e, or nil if e is not a live sprite entity.
func (s *Store) Sprite(e donburi.Entity) *quads.Sprite {
	if !s.world.Valid(e) {
		return nil
	}
	entry := s.world.Entry(e)
	if !entry.HasComponent(SpriteComponent) {
		return nil
	}
	return SpriteComponent.Get(entry).Sprite
}

// SetOrder changes the draw order of e. It reports false if e is not a live
// sprite entity.
func (s *Store) SetOrder(e donburi.Entity, order int) bool {
	if !s.world.Valid(e) {
		return false
	}
	entry := s.world.Entry(e)
	if !entry.HasComponent(SpriteComponent) {
		return false
	}
	SpriteComponent.Get(entry).Order = order
	return true
}

// Remove releases the sprite of e, removes the entity and publishes
// SpriteRemoved.
func (s *Store) Remove(e donburi.Entity) bool {
	if !s.world.Valid(e) {
		return false
	}
	entry := s.world.Entry(e)
	if !entry.HasComponent(SpriteComponent) {
		return false
	}
	data := *SpriteComponent.Get(entry)
	if data.Sprite != nil {
		data.Sprite.Release()
	}
	s.world.Remove(e)
	SpriteRemovedEvent.Publish(s.world, SpriteRemoved{Entity: e, Order: data.Order})
	return true
}

// Len returns the number of sprite entities.
func (s *Store) Len() int { return s.query.Count(s.world) }

// AppendSprites implements quads.SpriteSource. Sprites come out sorted by
// Order, then by insertion.
func (s *Store) AppendSprites(dst []*quads.Sprite) []*quads.Sprite {
	s.scratch = s.scratch[:0]
	s.query.Each(s.world, func(entry *donburi.Entry) {
		if d := SpriteComponent.Get(entry); d.Sprite != nil {
			s.scratch = append(s.scratch, *d)
		}
	})
	slices.SortFunc(s.scratch, func(a, b SpriteData) int {
		if c := cmp.Compare(a.Order, b.Order); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
	for _, d := range s.scratch {
		dst = append(dst, d.Sprite)
	}
	clear(s.scratch)
	return dst
}

var _ quads.SpriteSource = (*Store)(nil)
