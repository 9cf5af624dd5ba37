package grimoire

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// Behaviour is the logic attached to a node. NodeAttached runs exactly once,
// synchronously, when the node first joins a parent; it is where a behaviour
// declares its parameters and channels and binds their change events.
//
// Optional capabilities are separate interfaces discovered by type
// assertion: [Renderer] for nodes that draw into the shared canvas,
// [Computer] for nodes that produce output channel values, [IconProvider]
// for a display icon. A behaviour may implement any subset.
type Behaviour interface {
	NodeAttached(n *Node)
}

// IconProvider supplies an icon for tree navigation widgets.
type IconProvider interface {
	Icon() *ebiten.Image
}

// Computer is the compute capability: the node declares input and output
// channels and fills its outputs in Compute. Compute is a hook contract:
// the caller promises that outputs linked into this node's inputs are
// current, but grimoire does not schedule a dataflow graph itself.
type Computer interface {
	Compute(n *Node) error
}

// RenderContext carries the per-pass state handed to every rendering node.
type RenderContext struct {
	// Canvas is the shared target image all nodes render into.
	Canvas *ebiten.Image
	// Time is the scene clock in seconds; DeltaTime the step since the
	// previous update; Frame the update counter.
	Time      float64
	DeltaTime float64
	Frame     int
}

// Renderer is the GL capability. The scene calls the three hooks with the
// node's resource manager current, so images and shaders allocated inside
// them are tracked and bulk-released with the node.
//
//   - GLInit runs lazily, once, on the first render pass after the node's
//     subtree becomes part of the rooted scene.
//   - GLRender runs every pass, in pre-order. An error is logged and the
//     pass continues with the next node.
//   - GLCleanup runs exactly once after the node's subtree leaves the
//     rooted scene or the scene is torn down; the node's manager is
//     released immediately afterwards, so an empty implementation is fine.
type Renderer interface {
	GLInit(n *Node) error
	GLRender(n *Node, ctx *RenderContext) error
	GLCleanup(n *Node)
}
