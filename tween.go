package grimoire

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// ParamTween animates a float parameter on a node over time. Create one
// with [TweenParam] and call Update(dt) each frame; every step writes the
// parameter, which fires its change event so the behaviour reacts exactly
// as it would to a live edit. If the target node is disposed, the tween
// stops immediately.
//
// There is no global animation manager; users call Update themselves.
type ParamTween struct {
	tween *gween.Tween
	node  *Node
	param *Param
	Done  bool
}

// TweenParam creates a tween driving the named float parameter from its
// current value to the given target over duration seconds. Returns nil if
// the node has no float parameter with that name.
func TweenParam(node *Node, name string, to float64, duration float32, fn ease.TweenFunc) *ParamTween {
	p := node.Params().Get(name)
	if p == nil || p.Kind() != ParamFloat {
		return nil
	}
	return &ParamTween{
		tween: gween.New(float32(p.Float()), float32(to), duration, fn),
		node:  node,
		param: p,
	}
}

// Update advances the tween by dt seconds and writes the value to the
// parameter. If the target node has been disposed, Done is set to true and
// no write occurs.
func (t *ParamTween) Update(dt float32) {
	if t.Done {
		return
	}
	if t.node.IsDisposed() {
		t.Done = true
		return
	}
	val, finished := t.tween.Update(dt)
	_ = t.param.setFloat(float64(val))
	t.Done = finished
}
