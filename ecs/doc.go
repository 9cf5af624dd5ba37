// Package ecs provides ECS adapters for grimoire's scene event system.
//
// The primary adapter is [NewDonburiSink], which bridges scene events
// (path changes, renames, parameter edits, viewport updates) into a
// [Donburi] world as typed events. Subscribe to [SceneEventType] in your
// ECS systems to receive them.
//
// Usage:
//
//	sink := ecs.NewDonburiSink(world)
//	scene.SetEventSink(sink)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
