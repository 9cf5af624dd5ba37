package grimoire

import (
	"errors"
	"testing"
)

// --- Test helpers ---

func newTestNetwork(t *testing.T) *Network {
	t.Helper()
	return NewNetwork(func(nw *Network) *Node {
		root, err := NewNode(nw, "root", nil)
		if err != nil {
			t.Fatalf("NewNode(root): %v", err)
		}
		return root
	})
}

func mustNode(t *testing.T, nw *Network, name string) *Node {
	t.Helper()
	n, err := NewNode(nw, name, nil)
	if err != nil {
		t.Fatalf("NewNode(%q): %v", name, err)
	}
	return n
}

func mustAttach(t *testing.T, n, parent *Node) {
	t.Helper()
	if err := n.AttachTo(parent); err != nil {
		t.Fatalf("AttachTo(%q -> %q): %v", n.Name(), parent.Name(), err)
	}
}

// countingBehaviour records its NodeAttached invocations.
type countingBehaviour struct {
	attached int
}

func (b *countingBehaviour) NodeAttached(n *Node) { b.attached++ }

// --- Constructor ---

func TestNewNodeDefaults(t *testing.T) {
	nw := newTestNetwork(t)
	n := mustNode(t, nw, "wave")
	if n.Name() != "wave" {
		t.Errorf("Name = %q, want %q", n.Name(), "wave")
	}
	if n.Network() != nw {
		t.Error("Network should be the creating network")
	}
	if n.Parent() != nil {
		t.Error("new node should be detached")
	}
	if n.Resources() == nil {
		t.Error("new node should own a resource manager")
	}
	if n.IsDisposed() {
		t.Error("new node should not be disposed")
	}
}

func TestNewNodeRejectsBadName(t *testing.T) {
	nw := newTestNetwork(t)
	for _, name := range []string{"", "has space", "sl/ash", "co:lon"} {
		if _, err := NewNode(nw, name, nil); !errors.Is(err, ErrInvalidName) {
			t.Errorf("NewNode(%q) err = %v, want ErrInvalidName", name, err)
		}
	}
}

func TestNewNodeNilNetworkPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for nil network")
		}
	}()
	NewNode(nil, "x", nil)
}

// --- AttachTo ---

func TestAttachBasic(t *testing.T) {
	nw := newTestNetwork(t)
	child := mustNode(t, nw, "child")
	mustAttach(t, child, nw.Root())

	if child.Parent() != nw.Root() {
		t.Error("child.Parent should be root")
	}
	if nw.Root().NumChildren() != 1 {
		t.Errorf("NumChildren = %d, want 1", nw.Root().NumChildren())
	}
	if nw.Root().ChildAt(0) != child {
		t.Error("ChildAt(0) should be child")
	}
}

func TestAttachReparent(t *testing.T) {
	nw := newTestNetwork(t)
	p1 := mustNode(t, nw, "p1")
	p2 := mustNode(t, nw, "p2")
	child := mustNode(t, nw, "child")
	mustAttach(t, p1, nw.Root())
	mustAttach(t, p2, nw.Root())
	mustAttach(t, child, p1)

	mustAttach(t, child, p2)
	if p1.NumChildren() != 0 {
		t.Error("p1 should have 0 children after reparent")
	}
	if p2.NumChildren() != 1 || child.Parent() != p2 {
		t.Error("child should have moved to p2")
	}
}

func TestAttachToSelfFails(t *testing.T) {
	nw := newTestNetwork(t)
	n := mustNode(t, nw, "n")
	if err := n.AttachTo(n); !errors.Is(err, ErrCycle) {
		t.Errorf("err = %v, want ErrCycle", err)
	}
	if n.Parent() != nil {
		t.Error("failed attach must leave the node detached")
	}
}

func TestAttachDeepCycleFails(t *testing.T) {
	nw := newTestNetwork(t)
	a := mustNode(t, nw, "a")
	b := mustNode(t, nw, "b")
	c := mustNode(t, nw, "c")
	mustAttach(t, a, nw.Root())
	mustAttach(t, b, a)
	mustAttach(t, c, b)

	// Attaching a under its own grandchild would make a its own ancestor.
	if err := a.AttachTo(c); !errors.Is(err, ErrCycle) {
		t.Errorf("err = %v, want ErrCycle", err)
	}
	if a.Parent() != nw.Root() {
		t.Error("failed attach must preserve the old parent")
	}
	if c.NumChildren() != 0 {
		t.Error("failed attach must not modify the destination")
	}
}

func TestAttachWrongNetworkFails(t *testing.T) {
	nwA := newTestNetwork(t)
	nwB := newTestNetwork(t)
	n := mustNode(t, nwA, "n")
	mustAttach(t, n, nwA.Root())

	if err := n.AttachTo(nwB.Root()); !errors.Is(err, ErrWrongNetwork) {
		t.Errorf("err = %v, want ErrWrongNetwork", err)
	}
	if n.Parent() != nwA.Root() {
		t.Error("failed attach must preserve the old parent")
	}
}

func TestAttachSiblingNameConflictFails(t *testing.T) {
	nw := newTestNetwork(t)
	first := mustNode(t, nw, "wave")
	second := mustNode(t, nw, "wave")
	mustAttach(t, first, nw.Root())

	if err := second.AttachTo(nw.Root()); !errors.Is(err, ErrNameConflict) {
		t.Errorf("err = %v, want ErrNameConflict", err)
	}
	if nw.Root().NumChildren() != 1 {
		t.Error("failed attach must not modify the destination")
	}
	if second.Parent() != nil {
		t.Error("rejected node must stay detached")
	}
}

func TestAttachConflictPreservesOldParent(t *testing.T) {
	nw := newTestNetwork(t)
	box := mustNode(t, nw, "box")
	mustAttach(t, box, nw.Root())
	taken := mustNode(t, nw, "wave")
	mustAttach(t, taken, nw.Root())
	mover := mustNode(t, nw, "wave")
	mustAttach(t, mover, box)

	if err := mover.AttachTo(nw.Root()); !errors.Is(err, ErrNameConflict) {
		t.Fatalf("err = %v, want ErrNameConflict", err)
	}
	if mover.Parent() != box {
		t.Error("rejected move must keep the previous parent link")
	}
}

func TestAttachNilParentPanics(t *testing.T) {
	nw := newTestNetwork(t)
	n := mustNode(t, nw, "n")
	defer func() {
		if recover() == nil {
			t.Error("expected panic for nil parent")
		}
	}()
	n.AttachTo(nil)
}

// --- Anchored attach ---

func TestAttachFirst(t *testing.T) {
	nw := newTestNetwork(t)
	a := mustNode(t, nw, "a")
	b := mustNode(t, nw, "b")
	mustAttach(t, a, nw.Root())
	if err := b.AttachFirst(nw.Root()); err != nil {
		t.Fatalf("AttachFirst: %v", err)
	}
	if nw.Root().ChildAt(0) != b || nw.Root().ChildAt(1) != a {
		t.Errorf("order = [%s %s], want [b a]", nw.Root().ChildAt(0), nw.Root().ChildAt(1))
	}
}

func TestAttachBeforeAfter(t *testing.T) {
	nw := newTestNetwork(t)
	a := mustNode(t, nw, "a")
	b := mustNode(t, nw, "b")
	c := mustNode(t, nw, "c")
	d := mustNode(t, nw, "d")
	mustAttach(t, a, nw.Root())
	mustAttach(t, b, nw.Root())

	if err := c.AttachBefore(nw.Root(), b); err != nil {
		t.Fatalf("AttachBefore: %v", err)
	}
	if err := d.AttachAfter(nw.Root(), a); err != nil {
		t.Fatalf("AttachAfter: %v", err)
	}

	want := []string{"a", "d", "c", "b"}
	for i, name := range want {
		if got := nw.Root().ChildAt(i).Name(); got != name {
			t.Errorf("child %d = %q, want %q", i, got, name)
		}
	}
}

func TestAttachBeforeBadAnchor(t *testing.T) {
	nw := newTestNetwork(t)
	a := mustNode(t, nw, "a")
	stranger := mustNode(t, nw, "stranger")
	n := mustNode(t, nw, "n")
	mustAttach(t, a, nw.Root())

	// stranger is not a child of root.
	if err := n.AttachBefore(nw.Root(), stranger); !errors.Is(err, ErrNotChild) {
		t.Errorf("err = %v, want ErrNotChild", err)
	}
	// nil anchor.
	if err := n.AttachBefore(nw.Root(), nil); !errors.Is(err, ErrNotChild) {
		t.Errorf("nil anchor err = %v, want ErrNotChild", err)
	}
	// the node itself as anchor.
	if err := n.AttachAfter(nw.Root(), n); !errors.Is(err, ErrNotChild) {
		t.Errorf("self anchor err = %v, want ErrNotChild", err)
	}
	if nw.Root().NumChildren() != 1 {
		t.Error("failed anchored attach must not modify the tree")
	}
}

// --- Detach ---

func TestDetach(t *testing.T) {
	nw := newTestNetwork(t)
	n := mustNode(t, nw, "n")
	mustAttach(t, n, nw.Root())

	n.Detach()
	if n.Parent() != nil {
		t.Error("Parent should be nil after Detach")
	}
	if nw.Root().NumChildren() != 0 {
		t.Error("root should have no children after Detach")
	}
	// Detaching twice is a no-op.
	n.Detach()
}

func TestDetachKeepsSubtree(t *testing.T) {
	nw := newTestNetwork(t)
	a := mustNode(t, nw, "a")
	b := mustNode(t, nw, "b")
	mustAttach(t, a, nw.Root())
	mustAttach(t, b, a)

	a.Detach()
	if b.Parent() != a {
		t.Error("detaching a subtree must keep its internal structure")
	}
	if a.Root() != a {
		t.Error("detached subtree's root should be the subtree itself")
	}
	if a.Rooted() {
		t.Error("detached subtree should not report rooted")
	}
}

// --- Paths ---

func TestPath(t *testing.T) {
	nw := newTestNetwork(t)
	n1 := mustNode(t, nw, "node1")
	n2 := mustNode(t, nw, "node2")
	mustAttach(t, n1, nw.Root())
	mustAttach(t, n2, n1)

	if got := nw.Root().Path(); got != "/" {
		t.Errorf("root path = %q, want /", got)
	}
	if got := n1.Path(); got != "/node1" {
		t.Errorf("n1 path = %q, want /node1", got)
	}
	if got := n2.Path(); got != "/node1/node2" {
		t.Errorf("n2 path = %q, want /node1/node2", got)
	}

	detached := mustNode(t, nw, "loose")
	if got := detached.Path(); got != "loose" {
		t.Errorf("detached path = %q, want bare name", got)
	}
}

func TestFind(t *testing.T) {
	nw := newTestNetwork(t)
	n1 := mustNode(t, nw, "node1")
	n2 := mustNode(t, nw, "node2")
	mustAttach(t, n1, nw.Root())
	mustAttach(t, n2, n1)

	tests := []struct {
		name string
		from *Node
		path string
		want *Node
	}{
		{"own path round-trip", nw.Root(), n2.Path(), n2},
		{"absolute", n2, "/node1", n1},
		{"relative child", n1, "node2", n2},
		{"dot stays", n2, ".", n2},
		{"dotdot to parent", n2, "..", n1},
		{"dotdot from root child", n1, "..", nw.Root()},
		{"chained", n2, "../node2", n2},
		{"root slash", n2, "/", nw.Root()},
		{"missing segment", nw.Root(), "/nope", nil},
		{"missing deep", nw.Root(), "/node1/nope/deeper", nil},
		{"dotdot past root", nw.Root(), "..", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.Find(tt.path); got != tt.want {
				t.Errorf("Find(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

// --- SetName ---

func TestSetName(t *testing.T) {
	nw := newTestNetwork(t)
	n := mustNode(t, nw, "old")
	mustAttach(t, n, nw.Root())

	if err := n.SetName("new"); err != nil {
		t.Fatalf("SetName: %v", err)
	}
	if n.Name() != "new" {
		t.Errorf("Name = %q, want %q", n.Name(), "new")
	}
	if n.Path() != "/new" {
		t.Errorf("Path = %q, want /new", n.Path())
	}
}

func TestSetNameConflictPreservesOldName(t *testing.T) {
	nw := newTestNetwork(t)
	a := mustNode(t, nw, "a")
	b := mustNode(t, nw, "b")
	mustAttach(t, a, nw.Root())
	mustAttach(t, b, nw.Root())

	if err := b.SetName("a"); !errors.Is(err, ErrNameConflict) {
		t.Errorf("err = %v, want ErrNameConflict", err)
	}
	if b.Name() != "b" {
		t.Errorf("failed rename must preserve the old name, got %q", b.Name())
	}
}

func TestSetNameRootRejected(t *testing.T) {
	nw := newTestNetwork(t)
	if err := nw.Root().SetName("other"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("err = %v, want ErrInvalidName", err)
	}
}

func TestSetNameEmitsEvent(t *testing.T) {
	nw := newTestNetwork(t)
	n := mustNode(t, nw, "old")
	mustAttach(t, n, nw.Root())

	var got Event
	nw.Root().BindAnywhere(EventNameChanged, func(ev Event) { got = ev })
	if err := n.SetName("new"); err != nil {
		t.Fatalf("SetName: %v", err)
	}
	if got.Kind != EventNameChanged || got.Source != n {
		t.Fatalf("event = %+v", got)
	}
	if got.Str("oldName") != "old" || got.Str("newName") != "new" {
		t.Errorf("data = %v", got.Data)
	}
}

// --- Behaviour init ---

func TestNodeAttachedFiresOnceEver(t *testing.T) {
	nw := newTestNetwork(t)
	b := &countingBehaviour{}
	n, err := NewNode(nw, "n", b)
	if err != nil {
		t.Fatal(err)
	}
	if b.attached != 0 {
		t.Error("NodeAttached must not fire at construction")
	}
	mustAttach(t, n, nw.Root())
	if b.attached != 1 {
		t.Errorf("attached = %d after first attach, want 1", b.attached)
	}
	n.Detach()
	mustAttach(t, n, nw.Root())
	other := mustNode(t, nw, "other")
	mustAttach(t, other, nw.Root())
	mustAttach(t, n, other)
	if b.attached != 1 {
		t.Errorf("attached = %d after reattaches, want 1", b.attached)
	}
}

// --- Traversal ---

func TestAllPreOrder(t *testing.T) {
	nw := newTestNetwork(t)
	a := mustNode(t, nw, "a")
	b := mustNode(t, nw, "b")
	c := mustNode(t, nw, "c")
	d := mustNode(t, nw, "d")
	mustAttach(t, a, nw.Root())
	mustAttach(t, b, a)
	mustAttach(t, c, a)
	mustAttach(t, d, nw.Root())

	var order []string
	for n := range nw.Root().All() {
		order = append(order, n.Name())
	}
	want := []string{"root", "a", "b", "c", "d"}
	if len(order) != len(want) {
		t.Fatalf("visited %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("visited %v, want %v", order, want)
		}
	}
}

func TestDescendantsExcludesSelf(t *testing.T) {
	nw := newTestNetwork(t)
	a := mustNode(t, nw, "a")
	mustAttach(t, a, nw.Root())

	for n := range nw.Root().Descendants() {
		if n == nw.Root() {
			t.Error("Descendants must not yield the start node")
		}
	}
}

func TestAllEarlyStop(t *testing.T) {
	nw := newTestNetwork(t)
	a := mustNode(t, nw, "a")
	b := mustNode(t, nw, "b")
	mustAttach(t, a, nw.Root())
	mustAttach(t, b, a)

	count := 0
	for range nw.Root().All() {
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Errorf("visited %d nodes after break, want 2", count)
	}
}

func TestSelectDoesNotPrune(t *testing.T) {
	nw := newTestNetwork(t)
	skip := mustNode(t, nw, "skip")
	keep := mustNode(t, nw, "keep")
	mustAttach(t, skip, nw.Root())
	mustAttach(t, keep, skip)

	found := false
	for n := range nw.Root().Select(func(n *Node) bool { return n.Name() != "skip" }) {
		if n.Name() == "skip" {
			t.Error("filter-rejected node was yielded")
		}
		if n.Name() == "keep" {
			found = true
		}
	}
	if !found {
		t.Error("children of a filter-rejected node must still be visited")
	}
}

// --- Path change events ---

func TestAttachEmitsPathChanged(t *testing.T) {
	nw := newTestNetwork(t)
	n := mustNode(t, nw, "n")

	var got Event
	calls := 0
	nw.Root().BindAnywhere(EventPathChanged, func(ev Event) { got = ev; calls++ })
	mustAttach(t, n, nw.Root())

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if got.Source != n || got.NodeData("node") != n {
		t.Errorf("event = %+v", got)
	}
	if got.NodeData("oldParent") != nil {
		t.Error("first attach should carry a nil oldParent")
	}
	if got.Str("oldPath") != "n" {
		t.Errorf("oldPath = %q, want bare name", got.Str("oldPath"))
	}
}

func TestDetachNotifiesOldAncestors(t *testing.T) {
	nw := newTestNetwork(t)
	a := mustNode(t, nw, "a")
	b := mustNode(t, nw, "b")
	mustAttach(t, a, nw.Root())
	mustAttach(t, b, a)

	var got Event
	nw.Root().BindAnywhere(EventPathChanged, func(ev Event) { got = ev })
	b.Detach()

	if got.Kind != EventPathChanged {
		t.Fatal("old ancestors must hear the detach")
	}
	if got.Source != b {
		t.Errorf("Source = %v, want the detached node", got.Source)
	}
	if got.NodeData("oldParent") != a {
		t.Errorf("oldParent = %v, want a", got.NodeData("oldParent"))
	}
	if got.Str("oldPath") != "/a/b" {
		t.Errorf("oldPath = %q, want /a/b", got.Str("oldPath"))
	}
}

func TestMoveOutNotifiesOldTree(t *testing.T) {
	nw := newTestNetwork(t)
	island := mustNode(t, nw, "island")
	n := mustNode(t, nw, "n")
	mustAttach(t, n, nw.Root())

	// Moving directly from the rooted tree into a detached subtree must
	// still notify the old tree's ancestors.
	heard := false
	nw.Root().BindAnywhere(EventPathChanged, func(ev Event) {
		if ev.Source == n {
			heard = true
		}
	})
	mustAttach(t, n, island)
	if !heard {
		t.Error("old tree did not hear the move")
	}
}

func TestReorderWithinParentEmitsNothing(t *testing.T) {
	nw := newTestNetwork(t)
	a := mustNode(t, nw, "a")
	b := mustNode(t, nw, "b")
	mustAttach(t, a, nw.Root())
	mustAttach(t, b, nw.Root())

	calls := 0
	nw.Root().BindAnywhere(EventPathChanged, func(Event) { calls++ })
	if err := b.AttachFirst(nw.Root()); err != nil {
		t.Fatal(err)
	}
	if calls != 0 {
		t.Errorf("reorder under the same parent fired %d path events, want 0", calls)
	}
	if nw.Root().ChildAt(0) != b {
		t.Error("reorder did not move the node")
	}
}

// --- Node event emit ---

func TestBindFiltersBySource(t *testing.T) {
	nw := newTestNetwork(t)
	a := mustNode(t, nw, "a")
	b := mustNode(t, nw, "b")
	mustAttach(t, a, nw.Root())
	mustAttach(t, b, a)

	own, any := 0, 0
	a.Bind(EventViewportUpdate, func(Event) { own++ })
	a.BindAnywhere(EventViewportUpdate, func(Event) { any++ })

	b.Emit(EventViewportUpdate, nil) // propagates up through a
	a.Emit(EventViewportUpdate, nil)

	if own != 1 {
		t.Errorf("Bind listener ran %d times, want 1 (own emit only)", own)
	}
	if any != 2 {
		t.Errorf("BindAnywhere listener ran %d times, want 2", any)
	}
}

func TestEmitDirections(t *testing.T) {
	nw := newTestNetwork(t)
	mid := mustNode(t, nw, "mid")
	leaf := mustNode(t, nw, "leaf")
	mustAttach(t, mid, nw.Root())
	mustAttach(t, leaf, mid)

	var rootHits, leafHits, midHits int
	nw.Root().BindAnywhere(EventViewportUpdate, func(Event) { rootHits++ })
	leaf.BindAnywhere(EventViewportUpdate, func(Event) { leafHits++ })
	mid.BindAnywhere(EventViewportUpdate, func(Event) { midHits++ })

	mid.EmitDirected(EventViewportUpdate, nil, DirectionLocal)
	if rootHits != 0 || leafHits != 0 || midHits != 1 {
		t.Fatalf("local: root=%d leaf=%d mid=%d", rootHits, leafHits, midHits)
	}

	mid.EmitDirected(EventViewportUpdate, nil, DirectionUp)
	if rootHits != 1 || leafHits != 0 {
		t.Fatalf("up: root=%d leaf=%d", rootHits, leafHits)
	}

	mid.EmitDirected(EventViewportUpdate, nil, DirectionDown)
	if rootHits != 1 || leafHits != 1 {
		t.Fatalf("down: root=%d leaf=%d", rootHits, leafHits)
	}

	mid.Emit(EventViewportUpdate, nil) // both
	if rootHits != 2 || leafHits != 2 || midHits != 4 {
		t.Fatalf("both: root=%d leaf=%d mid=%d", rootHits, leafHits, midHits)
	}
}

func TestEmitSourceHeldConstant(t *testing.T) {
	nw := newTestNetwork(t)
	mid := mustNode(t, nw, "mid")
	leaf := mustNode(t, nw, "leaf")
	mustAttach(t, mid, nw.Root())
	mustAttach(t, leaf, mid)

	nw.Root().BindAnywhere(EventViewportUpdate, func(ev Event) {
		if ev.Source != leaf {
			t.Errorf("Source = %v, want the original emitter", ev.Source)
		}
	})
	leaf.Emit(EventViewportUpdate, nil)
}

func TestEmitCustom(t *testing.T) {
	nw := newTestNetwork(t)
	n := mustNode(t, nw, "n")
	mustAttach(t, n, nw.Root())

	var got Event
	n.events.BindCustom("beat", func(ev Event) { got = ev })
	n.events.BindCustom("other", func(Event) { t.Error("wrong custom name matched") })
	n.EmitCustom("beat", map[string]any{"bpm": 120})

	if got.Kind != EventCustom || got.Custom != "beat" {
		t.Errorf("event = %+v", got)
	}
}

// --- Dispose ---

func TestDispose(t *testing.T) {
	nw := newTestNetwork(t)
	a := mustNode(t, nw, "a")
	b := mustNode(t, nw, "b")
	mustAttach(t, a, nw.Root())
	mustAttach(t, b, a)

	a.Dispose()
	if !a.IsDisposed() || !b.IsDisposed() {
		t.Error("Dispose must mark the whole subtree")
	}
	if nw.Root().NumChildren() != 0 {
		t.Error("Dispose must detach from the tree")
	}
	// Idempotent.
	a.Dispose()
}

func TestDisposedNodeOperationsPanicInDebugMode(t *testing.T) {
	globalDebug = true
	defer func() { globalDebug = false }()

	nw := newTestNetwork(t)
	n := mustNode(t, nw, "n")
	n.Dispose()

	defer func() {
		if recover() == nil {
			t.Error("expected debug panic on attaching a disposed node")
		}
	}()
	n.AttachTo(nw.Root())
}

// --- Stringer ---

func TestNodeString(t *testing.T) {
	nw := newTestNetwork(t)
	n := mustNode(t, nw, "n")
	mustAttach(t, n, nw.Root())
	if got := n.String(); got != "/n" {
		t.Errorf("String = %q, want /n", got)
	}
	var nilNode *Node
	if got := nilNode.String(); got != "<nil>" {
		t.Errorf("nil String = %q", got)
	}
}
