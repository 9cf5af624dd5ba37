package grimoire

import "errors"

// Structural errors. Reported by tree mutations that would corrupt the
// hierarchy; the tree is left untouched when one is returned.
var (
	// ErrCycle is returned by the attach methods when the node would become
	// its own ancestor.
	ErrCycle = errors.New("grimoire: attach would create a cycle")

	// ErrNotChild is returned by AttachBefore and AttachAfter when the anchor
	// node is not currently a child of the target parent.
	ErrNotChild = errors.New("grimoire: anchor is not a child of the parent")

	// ErrWrongNetwork is returned when a node is attached to a parent that
	// belongs to a different network, or when a network rejects a node type.
	ErrWrongNetwork = errors.New("grimoire: node belongs to a different network")
)

// Naming errors. Reported by SetName and the attach methods; the node's
// previous name and parent remain valid when one is returned.
var (
	// ErrInvalidName is returned when a name is empty or contains characters
	// other than letters, digits, and underscores.
	ErrInvalidName = errors.New("grimoire: invalid node name")

	// ErrNameConflict is returned when a sibling already uses the name.
	ErrNameConflict = errors.New("grimoire: node name already taken")
)

// ErrUnknownFactory is returned by Scene.CreateNode for an unregistered
// factory name.
var ErrUnknownFactory = errors.New("grimoire: unknown node factory")

// ErrDuplicateChannel is returned when an input or output channel is added
// under a name that is already taken on the same node.
var ErrDuplicateChannel = errors.New("grimoire: channel name already taken")

// ErrDuplicateParam is returned when a parameter is added under a name that
// is already taken on the same node.
var ErrDuplicateParam = errors.New("grimoire: parameter name already taken")

// ErrUnknownParam is returned by the parameter accessors for a name that has
// not been declared on the node.
var ErrUnknownParam = errors.New("grimoire: unknown parameter")
