package grimoire

import (
	"fmt"
	"strconv"
	"strings"
)

// Network holds the root of a node tree and owns the policy every node in
// it must obey: which names are legal, which attaches are allowed, which
// node types are accepted. All policy checks run before any mutation, so a
// rejected operation never leaves a half-applied tree.
//
// The zero policy (all hook fields nil) enforces the default rules: names
// are non-empty strings of letters, digits, and underscores, and sibling
// names are unique. Conflicts are hard-rejected; use [Network.NextName] to
// pick a free auto-suffixed name up front.
type Network struct {
	root  *Node
	scene *Scene // set when the network belongs to a Scene

	// OnChooseName, when set, replaces the default naming policy. It is
	// called before a node's name changes (including at creation) and must
	// return the final name or an error. Use [ValidateName] and
	// [CheckSiblingName] to compose the default rules.
	OnChooseName func(n *Node, name string) (string, error)

	// OnCheckAttach, when set, replaces the default pre-attach check
	// (sibling name uniqueness at the destination). Returning an error
	// aborts the attach with the tree untouched.
	OnCheckAttach func(n, parent *Node) error

	// OnAcceptNode, when set, is called when a node is created for this
	// network. Returning an error rejects the node, e.g. for networks that
	// only accept a specific behaviour type.
	OnAcceptNode func(n *Node) error
}

// NewNetwork creates a network. If rootFactory is non-nil it must return a
// node already bound to the network, which becomes the root.
func NewNetwork(rootFactory func(*Network) *Node) *Network {
	nw := &Network{}
	if rootFactory != nil {
		nw.SetRoot(rootFactory(nw))
	}
	return nw
}

// Root returns the network's root node, or nil if none has been set.
func (nw *Network) Root() *Node { return nw.root }

// SetRoot installs the root node. The node must already be bound to this
// network; panics otherwise (a root from another network is a programming
// error, not a runtime condition).
func (nw *Network) SetRoot(root *Node) {
	if root != nil && root.network != nw {
		panic("grimoire: root node is bound to a different network")
	}
	nw.root = root
}

// Scene returns the scene this network belongs to, or nil.
func (nw *Network) Scene() *Scene { return nw.scene }

func (nw *Network) chooseName(n *Node, name string) (string, error) {
	if nw.OnChooseName != nil {
		return nw.OnChooseName(n, name)
	}
	if err := ValidateName(name); err != nil {
		return "", err
	}
	if err := CheckSiblingName(n, n.parent, name); err != nil {
		return "", err
	}
	return name, nil
}

func (nw *Network) checkAttach(n, parent *Node) error {
	if nw.OnCheckAttach != nil {
		return nw.OnCheckAttach(n, parent)
	}
	return CheckSiblingName(n, parent, n.name)
}

func (nw *Network) acceptNode(n *Node) error {
	if nw.OnAcceptNode != nil {
		return nw.OnAcceptNode(n)
	}
	return nil
}

// Find resolves an absolute path from the network root. Relative paths
// resolve from the root as well; see [Node.Find] for node-relative lookup.
func (nw *Network) Find(path string) *Node {
	if nw.root == nil {
		return nil
	}
	return nw.root.Find(path)
}

// NextName returns base with the next free numeric suffix among parent's
// children: "wave" stays "wave" if free, otherwise becomes "wave2", "wave3",
// and so on. A trailing number on base counts as its starting suffix, so
// NextName(p, "wave3") with "wave3" taken yields "wave4". The returned name
// passes the sibling uniqueness check at the time of the call.
func (nw *Network) NextName(parent *Node, base string) string {
	norm := strings.TrimRight(base, "0123456789")
	if norm == "" {
		norm = base
	}
	highest := 0
	for _, child := range parent.children {
		rest, ok := strings.CutPrefix(child.name, norm)
		if !ok {
			continue
		}
		if rest == "" {
			if highest < 1 {
				highest = 1
			}
			continue
		}
		num, err := strconv.Atoi(rest)
		if err != nil {
			continue
		}
		if num > highest {
			highest = num
		}
	}
	if highest == 0 {
		return base
	}
	return norm + strconv.Itoa(highest+1)
}

// ValidateName reports whether name is a legal node name: non-empty and
// made of letters, digits, and underscores only. Returns a wrapped
// [ErrInvalidName] otherwise.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}
	return nil
}

// CheckSiblingName returns a wrapped [ErrNameConflict] when a child of
// parent other than n already uses name. A nil parent never conflicts.
func CheckSiblingName(n *Node, parent *Node, name string) error {
	if parent == nil {
		return nil
	}
	for _, child := range parent.children {
		if child != n && child.name == name {
			return fmt.Errorf("%w: %q at %s", ErrNameConflict, name, child.Path())
		}
	}
	return nil
}
