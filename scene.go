package grimoire

import (
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// EventSink is the interface for optional external event bridges (for
// example the donburi adapter in grimoire/ecs). When set on a Scene,
// scene-level events are forwarded to it after local dispatch.
type EventSink interface {
	EmitEvent(event Event)
}

// Scene is a [Network] whose nodes render into a shared canvas. It owns the
// scene clock, the active-node pointer, and the lifecycle bookkeeping that
// sequences gl_init and gl_cleanup as subtrees enter and leave the rooted
// tree.
//
// A scene is single-threaded: Update, Draw, and all tree mutations must run
// on the same goroutine, the way Ebitengine drives a game.
type Scene struct {
	Network

	// ClearColor fills the canvas at the start of every Draw.
	ClearColor Color

	// Scene clock, advanced by Update.
	Time      float64
	DeltaTime float64
	Frame     int

	activeNode *Node
	events     Events
	sink       EventSink
	debug      bool

	// Subtree roots that entered or left the rooted tree since the last
	// Draw. A subtree that enters and leaves within the same cycle cancels
	// out, so no redundant gl_init/gl_cleanup pair runs for it.
	entered map[*Node]struct{}
	left    map[*Node]struct{}
}

// NewScene creates a scene with a pre-created root node at path "/".
func NewScene() *Scene {
	s := &Scene{
		entered: make(map[*Node]struct{}),
		left:    make(map[*Node]struct{}),
	}
	s.Network.scene = s
	root, err := NewNode(&s.Network, "root", nil)
	if err != nil {
		// The fixed root name always passes the default policy; a custom
		// hook cannot be installed before NewScene returns.
		panic(err)
	}
	s.Network.SetRoot(root)
	root.BindAnywhere(EventPathChanged, s.pathChanged)
	return s
}

// Root returns the scene's root node.
func (s *Scene) Root() *Node { return s.Network.root }

// CreateNode builds a node from the registered factory with the given name,
// auto-suffixes the default name so it is free under parent, and attaches
// it. Returns [ErrUnknownFactory] for an unregistered name.
func (s *Scene) CreateNode(parent *Node, factoryName string) (*Node, error) {
	f := factoryByName(factoryName)
	if f == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFactory, factoryName)
	}
	name := s.NextName(parent, f.Name)
	node, err := NewNode(&s.Network, name, f.New())
	if err != nil {
		return nil, err
	}
	if err := node.AttachTo(parent); err != nil {
		return nil, err
	}
	return node, nil
}

// ActiveNode returns the node currently selected for editing, or nil.
func (s *Scene) ActiveNode() *Node { return s.activeNode }

// SetActiveNode changes the selection and emits [EventActiveNodeChanged] on
// the scene handler. The node must belong to this scene.
func (s *Scene) SetActiveNode(n *Node) error {
	if n != nil && n.network != &s.Network {
		return fmt.Errorf("%w: active node must be in this scene", ErrWrongNetwork)
	}
	if n == s.activeNode {
		return nil
	}
	old := s.activeNode
	s.activeNode = n
	s.Emit(EventActiveNodeChanged, map[string]any{"oldNode": old, "newNode": n}, n)
	return nil
}

// Bind registers a listener on the scene-level handler, which receives
// events emitted via [Scene.Emit] (not the per-node tree events).
func (s *Scene) Bind(kind EventKind, fn func(Event)) *Listener {
	return s.events.Bind(kind, fn)
}

// Unbind removes a scene-level listener.
func (s *Scene) Unbind(kind EventKind, l *Listener) bool {
	return s.events.Unbind(kind, l)
}

// Emit dispatches an event on the scene-level handler and forwards it to
// the event sink if one is set.
func (s *Scene) Emit(kind EventKind, data map[string]any, source *Node) {
	ev := Event{Kind: kind, Data: data, Source: source}
	s.events.emit(ev)
	if s.sink != nil {
		s.sink.EmitEvent(ev)
	}
}

// SetEventSink sets the optional external event bridge.
func (s *Scene) SetEventSink(sink EventSink) {
	s.sink = sink
}

// SetDebugMode enables or disables debug mode. When enabled, disposed-node
// access panics, tree depth warnings are printed, and per-pass stats are
// logged to stderr.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
	globalDebug = enabled
}

// Update advances the scene clock by one tick. Call once per frame before
// Draw, or use [Game] which does both.
func (s *Scene) Update() {
	dt := 1.0 / float64(ebiten.TPS())
	s.DeltaTime = dt
	s.Time += dt
	s.Frame++
}

// Compute runs the compute pass: every rooted node whose behaviour
// implements [Computer] has its outputs invalidated and recomputed, in
// pre-order. A failing or panicking compute is logged and the pass
// continues; that node's outputs stay uncalculated.
func (s *Scene) Compute() {
	for node := range s.Network.root.All() {
		c, ok := node.behaviour.(Computer)
		if !ok {
			continue
		}
		node.Outputs.Invalidate()
		s.computeNode(node, c)
	}
}

func (s *Scene) computeNode(n *Node, c Computer) {
	defer func() {
		if r := recover(); r != nil {
			Logger().Warn("grimoire: compute panicked", "node", n.Path(), "panic", r)
		}
	}()
	if err := c.Compute(n); err != nil {
		Logger().Warn("grimoire: compute failed", "node", n.Path(), "err", err)
	}
}

// Draw runs one render pass into the shared canvas. First pending
// gl_cleanup runs for every subtree that left the rooted tree, then the
// canvas is cleared, then every rooted node whose behaviour implements
// [Renderer] is rendered in pre-order with its own resource manager
// current, running its lazy GLInit the first time. A failing node is
// logged and skipped; it never aborts the rest of the pass.
func (s *Scene) Draw(canvas *ebiten.Image) {
	var stats passStats
	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}

	s.flushLifecycle(&stats)

	canvas.Fill(s.ClearColor.toRGBA())

	ctx := &RenderContext{
		Canvas:    canvas,
		Time:      s.Time,
		DeltaTime: s.DeltaTime,
		Frame:     s.Frame,
	}
	for node := range s.Network.root.All() {
		r, ok := node.behaviour.(Renderer)
		if !ok {
			continue
		}
		s.renderNode(node, r, ctx, &stats)
	}

	if s.debug {
		stats.passTime = time.Since(t0)
		s.debugLog(stats)
	}
}

// renderNode runs one node's lazy init and render with its manager current.
// GLInit runs at most once per rooted cycle, even when it fails; a node
// whose init failed never renders until a fresh cycle re-arms it.
func (s *Scene) renderNode(n *Node, r Renderer, ctx *RenderContext, stats *passStats) {
	n.resources.AsCurrent(func() {
		defer func() {
			if rec := recover(); rec != nil {
				Logger().Warn("grimoire: render panicked", "node", n.Path(), "panic", rec)
			}
		}()
		if !n.glReady {
			// Armed as failed up front so a panicking init also leaves the
			// node non-renderable for the rest of the cycle.
			n.glReady = true
			n.glFailed = true
			stats.inits++
			if err := r.GLInit(n); err != nil {
				Logger().Warn("grimoire: gl_init failed", "node", n.Path(), "err", err)
				return
			}
			n.glFailed = false
		}
		if n.glFailed {
			return
		}
		stats.renders++
		if err := r.GLRender(n, ctx); err != nil {
			Logger().Warn("grimoire: gl_render failed", "node", n.Path(), "err", err)
		}
	})
}

// flushLifecycle applies the pending rooted-tree transitions. Subtrees that
// left get their deferred gl_cleanup now, before they could ever render
// again; subtrees that entered need no work here because gl_init is lazy.
// The left set is drained entry by entry so transitions recorded by a
// gl_cleanup hook mutating the tree mid-flush are picked up in the same
// flush. A node that rode back into the rooted tree inside another subtree
// is skipped: its GL cycle simply continues.
func (s *Scene) flushLifecycle(stats *passStats) {
	for len(s.left) > 0 {
		var node *Node
		for n := range s.left {
			node = n
			break
		}
		delete(s.left, node)
		if node.Root() == s.Network.root {
			continue
		}
		s.cleanupSubtree(node, stats)
	}
	clear(s.entered)
}

// cleanupSubtree runs gl_cleanup for every GL-initialized node under root
// (inclusive), then force-releases each node's remaining resources.
func (s *Scene) cleanupSubtree(root *Node, stats *passStats) {
	for n := range root.All() {
		if n.glReady {
			stats.cleanups++
		}
		n.cleanupGL()
		n.resources.Release()
	}
}

// Teardown cleans up every currently GL-initialized node exactly once and
// releases all outstanding resources. The scene can keep being used; nodes
// re-initialize lazily on the next Draw.
func (s *Scene) Teardown() {
	var stats passStats
	s.flushLifecycle(&stats)
	s.cleanupSubtree(s.Network.root, &stats)
	if s.debug {
		s.debugLog(stats)
	}
}

// pathChanged tracks rooted-tree membership. It runs for every
// EventPathChanged that reaches the root, compares the moved subtree's old
// and new root identity, and records the transition. An enter immediately
// followed by a leave (or vice versa) within one flush cycle cancels.
func (s *Scene) pathChanged(ev Event) {
	node := ev.Source
	var oldRoot *Node
	if oldParent := ev.NodeData("oldParent"); oldParent != nil {
		oldRoot = oldParent.Root()
	}
	newRoot := node.Root()
	if oldRoot == newRoot {
		return
	}
	switch {
	case oldRoot == s.Network.root:
		if _, ok := s.entered[node]; ok {
			delete(s.entered, node)
		} else {
			s.left[node] = struct{}{}
		}
	case newRoot == s.Network.root:
		if _, ok := s.left[node]; ok {
			delete(s.left, node)
		} else {
			s.entered[node] = struct{}{}
		}
	}
}
