package grimoire

import (
	"fmt"
	"os"
	"time"
)

// globalDebug mirrors the most recently set Scene debug flag so that node
// operations (which lack a Scene pointer) can check it cheaply. Only valid
// with a single Scene; multiple Scenes with differing debug modes will
// reflect whichever called SetDebugMode last.
var globalDebug bool

// passStats holds per-pass lifecycle and timing metrics.
// Only populated when Scene.debug is true.
type passStats struct {
	passTime time.Duration
	inits    int
	renders  int
	cleanups int
}

// debugLog prints pass stats to stderr.
func (s *Scene) debugLog(stats passStats) {
	if !s.debug {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr,
		"[grimoire] frame %d | pass: %v | inits: %d | renders: %d | cleanups: %d\n",
		s.Frame, stats.passTime, stats.inits, stats.renders, stats.cleanups)
}

// debugCheckDisposed panics with a descriptive message when a disposed node
// is used in a tree operation. Only called when debug mode is on; in release
// mode callers skip this entirely.
func debugCheckDisposed(n *Node, op string) {
	if n.disposed {
		panic(fmt.Sprintf("grimoire debug: %s on disposed node %q", op, n.name))
	}
}

// debugCheckTreeDepth warns on stderr if tree depth exceeds the threshold.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		_, _ = fmt.Fprintf(os.Stderr, "[grimoire] warning: tree depth %d exceeds %d (node %q)\n",
			depth, debugMaxTreeDepth, n.name)
	}
}

// debugCheckChildCount warns on stderr if a node has more than 1000 children.
const debugMaxChildCount = 1000

func debugCheckChildCount(n *Node) {
	if len(n.children) > debugMaxChildCount {
		_, _ = fmt.Fprintf(os.Stderr, "[grimoire] warning: node %q has %d children (threshold %d)\n",
			n.name, len(n.children), debugMaxChildCount)
	}
}
