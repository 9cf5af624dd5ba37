// Package ecs provides ECS adapters for grimoire.
package ecs

import (
	"github.com/phanxgames/grimoire"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// SceneEventType is the Donburi event type for grimoire scene events.
// Subscribe to this in your ECS systems to receive structure and parameter
// changes.
var SceneEventType = events.NewEventType[grimoire.Event]()

type donburiSink struct {
	world donburi.World
}

// NewDonburiSink creates an EventSink backed by a Donburi world.
// Scene events are published to SceneEventType and can be consumed with
// events.Subscribe and ProcessEvents.
func NewDonburiSink(world donburi.World) grimoire.EventSink {
	return &donburiSink{world: world}
}

func (s *donburiSink) EmitEvent(ev grimoire.Event) {
	SceneEventType.Publish(s.world, ev)
}
