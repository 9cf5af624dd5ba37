package grimoire

import (
	"fmt"
	"iter"
	"strings"
)

// Node is a single element of the scene graph. Every node belongs to exactly
// one [Network] for its whole lifetime, carries a name that is unique among
// its siblings, and owns its children. The parent link is a plain
// back-pointer; ownership only ever flows downward.
//
// A node's logic lives in its [Behaviour]; its GPU allocations live in its
// [ResourceManager]; its parameters and channels are declared by the
// behaviour when the node first joins a parent.
type Node struct {
	// Identity
	name    string
	network *Network

	// Hierarchy
	parent   *Node
	children []*Node

	// Behaviour and data
	behaviour Behaviour
	params    Params
	Inputs    InputList
	Outputs   OutputList

	// Private event handler and GPU resources
	events    Events
	resources *ResourceManager

	// Lifecycle flags
	initDone bool // NodeAttached has fired (once per node instance)
	glReady  bool // GLInit has run since the node last entered the live tree
	glFailed bool // the cycle's GLInit returned an error; render is skipped
	disposed bool

	// Metadata
	UserData any
}

// NewNode creates a node bound to the given network. The name must pass the
// network's naming policy; the behaviour may be nil for a pure container.
// The network binding is permanent: a node can never move to another network.
func NewNode(network *Network, name string, behaviour Behaviour) (*Node, error) {
	if network == nil {
		panic("grimoire: cannot create a node without a network")
	}
	n := &Node{
		network:   network,
		behaviour: behaviour,
		resources: NewResourceManager(),
	}
	n.params.node = n
	final, err := network.chooseName(n, name)
	if err != nil {
		return nil, err
	}
	n.name = final
	if err := network.acceptNode(n); err != nil {
		return nil, err
	}
	return n, nil
}

// Name returns the node's name.
func (n *Node) Name() string { return n.name }

// Network returns the network the node is permanently bound to.
func (n *Node) Network() *Network { return n.network }

// Scene returns the scene the node's network belongs to, or nil for a
// plain network.
func (n *Node) Scene() *Scene { return n.network.scene }

// Behaviour returns the node's behaviour, or nil.
func (n *Node) Behaviour() Behaviour { return n.behaviour }

// Resources returns the node's GPU resource manager.
func (n *Node) Resources() *ResourceManager { return n.resources }

// Params returns the node's parameter set.
func (n *Node) Params() *Params { return &n.params }

// IsDisposed reports whether the node has been disposed.
func (n *Node) IsDisposed() bool { return n.disposed }

// SetName renames the node. The new name must pass the network's naming
// policy: [ErrInvalidName] for a bad grammar, [ErrNameConflict] when a
// sibling already uses it. On failure the old name stays in place.
// A successful rename emits [EventNameChanged] in both directions.
func (n *Node) SetName(name string) error {
	if n.network.root == n {
		return fmt.Errorf("%w: the root node cannot be renamed", ErrInvalidName)
	}
	final, err := n.network.chooseName(n, name)
	if err != nil {
		return err
	}
	if final == n.name {
		return nil
	}
	old := n.name
	n.name = final
	n.emitEvent(Event{
		Kind:   EventNameChanged,
		Data:   map[string]any{"oldName": old, "newName": final},
		Source: n,
	}, DirectionBoth)
	return nil
}

// --- Hierarchy accessors ---

// Parent returns the node's parent, or nil if detached or root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the child list. The returned slice MUST NOT be mutated
// by the caller.
func (n *Node) Children() []*Node { return n.children }

// NumChildren returns the number of children.
func (n *Node) NumChildren() int { return len(n.children) }

// ChildAt returns the child at the given index, or nil if out of range.
func (n *Node) ChildAt(index int) *Node {
	if index < 0 || index >= len(n.children) {
		return nil
	}
	return n.children[index]
}

// Child returns the direct child with the given name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// Root returns the top of the node's ancestor chain (itself if detached).
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Rooted reports whether the node's ancestor chain reaches the network root,
// meaning it participates in rendering and cleanup.
func (n *Node) Rooted() bool {
	return n.Root() == n.network.root
}

// --- Paths ---

// Path returns the node's address from the network root: "/" for the root,
// "/name" for its direct children, parent path + "/" + name below that.
// A detached node reports its bare name.
func (n *Node) Path() string {
	if n == n.network.root {
		return "/"
	}
	if n.parent != nil {
		if n.parent == n.network.root {
			return "/" + n.name
		}
		return n.parent.Path() + "/" + n.name
	}
	return n.name
}

// Find resolves a path against this node. A leading slash resolves from the
// network root; otherwise resolution starts here. Segments may be names,
// "." (stay), or ".." (parent). Find returns nil when any segment fails to
// match; it never returns an error.
func (n *Node) Find(path string) *Node {
	cur := n
	if strings.HasPrefix(path, "/") {
		cur = n.network.root
		path = strings.TrimPrefix(path, "/")
	}
	for _, part := range strings.Split(path, "/") {
		if cur == nil {
			return nil
		}
		switch part {
		case "", ".":
			// stay
		case "..":
			cur = cur.parent
		default:
			cur = cur.Child(part)
		}
	}
	return cur
}

// --- Tree mutation ---

// anchor selects the insertion position for attach.
type anchor uint8

const (
	anchorEnd anchor = iota
	anchorFirst
	anchorBefore
	anchorAfter
)

// AttachTo appends the node to parent's children. If the node already has a
// parent it is detached first; the whole operation is all-or-nothing and a
// rejected attach leaves the previous parent link intact.
//
// Errors: [ErrCycle] if parent is the node or one of its descendants,
// [ErrWrongNetwork] if parent is bound to another network, [ErrNameConflict]
// if a sibling at the destination has the same name.
func (n *Node) AttachTo(parent *Node) error {
	return n.attach(parent, anchorEnd, nil)
}

// AttachFirst inserts the node as parent's first child.
func (n *Node) AttachFirst(parent *Node) error {
	return n.attach(parent, anchorFirst, nil)
}

// AttachBefore inserts the node directly before ref among parent's children.
// Returns [ErrNotChild] if ref is not currently a child of parent.
func (n *Node) AttachBefore(parent, ref *Node) error {
	return n.attach(parent, anchorBefore, ref)
}

// AttachAfter inserts the node directly after ref among parent's children.
// Returns [ErrNotChild] if ref is not currently a child of parent.
func (n *Node) AttachAfter(parent, ref *Node) error {
	return n.attach(parent, anchorAfter, ref)
}

func (n *Node) attach(parent *Node, at anchor, ref *Node) error {
	if parent == nil {
		panic("grimoire: cannot attach to nil parent")
	}
	if globalDebug {
		debugCheckDisposed(n, "attach (node)")
		debugCheckDisposed(parent, "attach (parent)")
	}
	// Validate everything before touching the tree.
	if parent == n || n.isAncestorOf(parent) {
		return fmt.Errorf("%w: %s under %s", ErrCycle, n.Path(), parent.Path())
	}
	if parent.network != n.network {
		return fmt.Errorf("%w: cannot attach %q to %q", ErrWrongNetwork, n.name, parent.Path())
	}
	if at == anchorBefore || at == anchorAfter {
		if ref == nil || ref == n || ref.parent != parent {
			return fmt.Errorf("%w: anchor for attaching %q", ErrNotChild, n.name)
		}
	}
	if err := n.network.checkAttach(n, parent); err != nil {
		return err
	}

	oldParent := n.parent
	oldPath := n.Path()
	n.detachSilently()

	index := len(parent.children)
	switch at {
	case anchorFirst:
		index = 0
	case anchorBefore:
		index = parent.childIndex(ref)
	case anchorAfter:
		index = parent.childIndex(ref) + 1
	}
	parent.children = append(parent.children, nil)
	copy(parent.children[index+1:], parent.children[index:])
	parent.children[index] = n
	n.parent = parent

	if globalDebug {
		debugCheckTreeDepth(n)
		debugCheckChildCount(parent)
	}

	n.fireInit()

	if oldParent != parent {
		ev := Event{
			Kind:   EventPathChanged,
			Data:   map[string]any{"node": n, "oldParent": oldParent, "oldPath": oldPath},
			Source: n,
		}
		n.emitEvent(ev, DirectionBoth)
		if oldParent != nil {
			// The old tree can no longer hear the node itself, so the old
			// parent relays the event up its own ancestor chain.
			oldParent.emitEvent(ev, DirectionUp)
		}
	}
	return nil
}

// Detach removes the node from its parent's child list. No-op when already
// detached. Emits [EventPathChanged] through the node's own subtree and up
// through the old parent's ancestor chain, with this node as the source.
func (n *Node) Detach() {
	if n.parent == nil {
		return
	}
	oldParent := n.parent
	oldPath := n.Path()
	n.detachSilently()

	ev := Event{
		Kind:   EventPathChanged,
		Data:   map[string]any{"node": n, "oldParent": oldParent, "oldPath": oldPath},
		Source: n,
	}
	n.emitEvent(ev, DirectionBoth)
	// The node is no longer reachable from the old tree, so the old parent
	// relays the event upward on its behalf.
	oldParent.emitEvent(ev, DirectionUp)
}

// detachSilently removes n from its parent without emitting events.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) detachSilently() {
	p := n.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == n {
			copy(p.children[i:], p.children[i+1:])
			p.children[len(p.children)-1] = nil
			p.children = p.children[:len(p.children)-1]
			break
		}
	}
	n.parent = nil
}

// fireInit invokes the behaviour's NodeAttached hook the first time the node
// ever joins a parent. A panicking hook is recovered and logged; the node
// stays attached with whatever parameters the hook declared before failing.
func (n *Node) fireInit() {
	if n.initDone {
		return
	}
	n.initDone = true
	if n.behaviour == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			Logger().Warn("grimoire: behaviour init panicked", "node", n.Path(), "panic", r)
		}
	}()
	n.behaviour.NodeAttached(n)
}

// isAncestorOf reports whether n is on candidate's ancestor chain
// (including candidate itself).
func (n *Node) isAncestorOf(candidate *Node) bool {
	for p := candidate; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

func (n *Node) childIndex(child *Node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

// --- Traversal ---

// All returns a depth-first pre-order iterator over this node and all of its
// descendants (self first, then children left to right). Each call yields a
// fresh sequence, so the iterator is restartable.
func (n *Node) All() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		n.visit(yield)
	}
}

// Descendants is like [Node.All] but excludes the node itself.
func (n *Node) Descendants() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, c := range n.children {
			if !c.visit(yield) {
				return
			}
		}
	}
}

// Select returns a pre-order iterator yielding only nodes the filter accepts.
// The filter decides yielding, not pruning: children of a rejected node are
// still visited.
func (n *Node) Select(filter func(*Node) bool) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		n.visitFiltered(filter, yield)
	}
}

func (n *Node) visit(yield func(*Node) bool) bool {
	if !yield(n) {
		return false
	}
	for _, c := range n.children {
		if !c.visit(yield) {
			return false
		}
	}
	return true
}

func (n *Node) visitFiltered(filter func(*Node) bool, yield func(*Node) bool) bool {
	if filter(n) && !yield(n) {
		return false
	}
	for _, c := range n.children {
		if !c.visitFiltered(filter, yield) {
			return false
		}
	}
	return true
}

// --- Events ---

// Bind registers fn for events of the given kind that originate from this
// very node. Use [Node.BindAnywhere] to also receive events propagated here
// from elsewhere in the tree.
func (n *Node) Bind(kind EventKind, fn func(Event)) *Listener {
	return n.events.BindFiltered(kind, fn, func(ev Event) bool {
		return ev.Source == n
	})
}

// BindAnywhere registers fn for every event of the given kind that reaches
// this node, regardless of its source.
func (n *Node) BindAnywhere(kind EventKind, fn func(Event)) *Listener {
	return n.events.Bind(kind, fn)
}

// Unbind removes a listener previously returned by Bind or BindAnywhere.
func (n *Node) Unbind(kind EventKind, l *Listener) bool {
	return n.events.Unbind(kind, l)
}

// UnbindAll removes every listener this node has bound for the given kind.
func (n *Node) UnbindAll(kind EventKind) {
	n.events.UnbindAll(kind)
}

// Emit dispatches an event from this node in both directions: local
// listeners first, then ancestors tagged up and descendants tagged down.
// Every node along the way sees the same kind, data, and source.
func (n *Node) Emit(kind EventKind, data map[string]any) {
	n.EmitDirected(kind, data, DirectionBoth)
}

// EmitDirected dispatches an event from this node in the given direction.
func (n *Node) EmitDirected(kind EventKind, data map[string]any, dir Direction) {
	if kind == KindAny {
		panic("grimoire: cannot emit the wildcard kind")
	}
	n.emitEvent(Event{Kind: kind, Data: data, Source: n}, dir)
}

// EmitCustom dispatches a behaviour-private event in both directions.
func (n *Node) EmitCustom(name string, data map[string]any) {
	n.emitEvent(Event{Kind: EventCustom, Custom: name, Data: data, Source: n}, DirectionBoth)
}

// emitEvent invokes this node's listeners, then recurses along the tree.
// The origin fans out in both directions; relayed events stay directional so
// propagation terminates.
func (n *Node) emitEvent(ev Event, dir Direction) {
	n.events.emit(ev)
	if dir == DirectionBoth || dir == DirectionUp {
		if n.parent != nil {
			n.parent.emitEvent(ev, DirectionUp)
		}
	}
	if dir == DirectionBoth || dir == DirectionDown {
		for _, c := range n.children {
			c.emitEvent(ev, DirectionDown)
		}
	}
}

// --- Disposal ---

// Dispose detaches the node, runs GL cleanup for every initialized node in
// the subtree, releases their resource managers, and marks the whole subtree
// disposed. Disposed nodes must not be used again.
//
// Dispose must not be called while a resource manager is current (that is,
// from inside a behaviour's GL hook).
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.Detach()
	n.dispose()
}

func (n *Node) dispose() {
	n.disposed = true
	for _, c := range n.children {
		c.parent = nil
		c.dispose()
	}
	n.cleanupGL()
	n.resources.Release()
	n.children = nil
	n.behaviour = nil
	n.UserData = nil
	n.events = Events{}
}

// cleanupGL runs the behaviour's GLCleanup with the node's manager current,
// then resets the lazy-init guard. Idempotent: a node that is not
// GL-initialized is left alone.
func (n *Node) cleanupGL() {
	if !n.glReady {
		return
	}
	n.glReady = false
	n.glFailed = false
	r, ok := n.behaviour.(Renderer)
	if !ok {
		return
	}
	n.resources.AsCurrent(func() {
		defer func() {
			if rec := recover(); rec != nil {
				Logger().Warn("grimoire: gl_cleanup panicked", "node", n.Path(), "panic", rec)
			}
		}()
		r.GLCleanup(n)
	})
}

// String implements fmt.Stringer by returning the node's path.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	return n.Path()
}
