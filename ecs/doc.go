// Package ecs stores quads sprites as entities in a [Donburi] world.
//
// [NewStore] wraps a world and implements [quads.SpriteSource], so a stage
// can draw the world's sprites directly. Each entity carries a
// [SpriteComponent] whose Order field sets its draw position; equal orders
// draw in insertion order.
//
// Usage:
//
//	store := ecs.NewStore(donburi.NewWorld())
//	store.Add(sprite)
//	stage := quads.NewStage(renderer, store)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
