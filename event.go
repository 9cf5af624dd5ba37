package grimoire

// EventKind identifies a kind of scene graph event.
type EventKind uint8

const (
	// KindAny is the wildcard bind target. Listeners bound to KindAny are
	// invoked for every emitted event, before kind-specific listeners.
	// Events themselves are never emitted with KindAny.
	KindAny EventKind = iota

	// EventPathChanged fires after a node's parent changes via attach or
	// detach. Data keys: "node" (*Node), "oldParent" (*Node, may be nil),
	// "oldPath" (string).
	EventPathChanged

	// EventNameChanged fires after a successful rename.
	// Data keys: "oldName", "newName" (string).
	EventNameChanged

	// EventValueChanged fires when a parameter value changes.
	// Data keys: "param" (string), "value" (any).
	EventValueChanged

	// EventViewportUpdate requests a redraw of the shared canvas, typically
	// emitted by a behaviour after recompiling its program.
	EventViewportUpdate

	// EventActiveNodeChanged fires on the scene handler when the active node
	// changes. Data keys: "oldNode", "newNode" (*Node).
	EventActiveNodeChanged

	// EventCustom carries a behaviour-private event discriminated by
	// Event.Custom. Use Node.EmitCustom and Events.BindCustom.
	EventCustom
)

// String returns the kind name for logs.
func (k EventKind) String() string {
	switch k {
	case KindAny:
		return "any"
	case EventPathChanged:
		return "pathChanged"
	case EventNameChanged:
		return "nameChanged"
	case EventValueChanged:
		return "valueChanged"
	case EventViewportUpdate:
		return "viewportUpdate"
	case EventActiveNodeChanged:
		return "activeNodeChanged"
	case EventCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Direction controls how an event propagates through the tree.
type Direction uint8

const (
	DirectionBoth  Direction = iota // up and down from the origin (default)
	DirectionUp                     // this node, then ancestors
	DirectionDown                   // this node, then descendants
	DirectionLocal                  // this node only
)

// Event is a single dispatched event. Source is the node that originally
// emitted it and stays constant while the event propagates through the tree.
type Event struct {
	Kind   EventKind
	Custom string // custom kind name, set only when Kind == EventCustom
	Data   map[string]any
	Source *Node
}

// Str returns the string stored under key in Data, or "" if absent.
func (e Event) Str(key string) string {
	s, _ := e.Data[key].(string)
	return s
}

// NodeData returns the *Node stored under key in Data, or nil if absent.
func (e Event) NodeData(key string) *Node {
	n, _ := e.Data[key].(*Node)
	return n
}

// Listener is a bound callback. The value returned by Bind is the token
// to pass to Unbind.
type Listener struct {
	fn     func(Event)
	filter func(Event) bool // nil means no filter
}

func (l *Listener) invoke(ev Event) {
	if l.filter != nil && !l.filter(ev) {
		return
	}
	l.fn(ev)
}

// Events dispatches events to registered listeners. The zero value is ready
// to use. Dispatch is synchronous and single-threaded: Emit returns after
// every matching listener has run.
type Events struct {
	buckets map[EventKind][]*Listener

	// OnPanic is called when a listener panics during Emit. The default
	// logs through Logger. A panicking listener never aborts dispatch and
	// the panic never escapes Emit.
	OnPanic func(ev Event, recovered any)
}

// Bind registers fn for the given kind and returns its token. Listeners
// bound to KindAny receive every event. Within a kind, listeners run in
// registration order.
func (e *Events) Bind(kind EventKind, fn func(Event)) *Listener {
	return e.BindFiltered(kind, fn, nil)
}

// BindFiltered registers fn with a predicate; fn runs only for events the
// filter accepts.
func (e *Events) BindFiltered(kind EventKind, fn func(Event), filter func(Event) bool) *Listener {
	if fn == nil {
		panic("grimoire: cannot bind nil listener func")
	}
	l := &Listener{fn: fn, filter: filter}
	if e.buckets == nil {
		e.buckets = make(map[EventKind][]*Listener)
	}
	e.buckets[kind] = append(e.buckets[kind], l)
	return l
}

// BindCustom registers fn for the custom kind with the given name.
func (e *Events) BindCustom(name string, fn func(Event)) *Listener {
	return e.BindFiltered(EventCustom, fn, func(ev Event) bool {
		return ev.Custom == name
	})
}

// Unbind removes a single listener previously returned by Bind. It reports
// whether the listener was found under the given kind.
func (e *Events) Unbind(kind EventKind, l *Listener) bool {
	bucket := e.buckets[kind]
	for i, x := range bucket {
		if x == l {
			copy(bucket[i:], bucket[i+1:])
			bucket[len(bucket)-1] = nil
			e.buckets[kind] = bucket[:len(bucket)-1]
			return true
		}
	}
	return false
}

// UnbindAll removes every listener bound to the given kind.
func (e *Events) UnbindAll(kind EventKind) {
	delete(e.buckets, kind)
}

// Emit dispatches an event to wildcard listeners first, then to listeners of
// the event's kind, each in registration order. A listener that panics is
// recovered individually, reported via OnPanic, and dispatch continues.
//
// Emit is re-entrant: listeners may bind, unbind, or emit without corrupting
// the outer dispatch. Listeners added during dispatch run on the next Emit.
func (e *Events) Emit(kind EventKind, data map[string]any, source *Node) {
	if kind == KindAny {
		panic("grimoire: cannot emit the wildcard kind")
	}
	e.emit(Event{Kind: kind, Data: data, Source: source})
}

// EmitCustom dispatches a custom event with the given name.
func (e *Events) EmitCustom(name string, data map[string]any, source *Node) {
	e.emit(Event{Kind: EventCustom, Custom: name, Data: data, Source: source})
}

func (e *Events) emit(ev Event) {
	if len(e.buckets) == 0 {
		return
	}
	// Snapshot both buckets so listeners can mutate bindings mid-dispatch.
	wild := e.buckets[KindAny]
	kinded := e.buckets[ev.Kind]
	snapshot := make([]*Listener, 0, len(wild)+len(kinded))
	snapshot = append(snapshot, wild...)
	snapshot = append(snapshot, kinded...)
	for _, l := range snapshot {
		e.safeInvoke(l, ev)
	}
}

func (e *Events) safeInvoke(l *Listener, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			if e.OnPanic != nil {
				e.OnPanic(ev, r)
				return
			}
			Logger().Warn("grimoire: event listener panicked",
				"kind", ev.Kind.String(), "custom", ev.Custom, "panic", r)
		}
	}()
	l.invoke(ev)
}
