// Package grimoire is a live-coding scene graph engine for [Ebitengine].
//
// Grimoire provides a hierarchical, path-addressable node network whose nodes
// carry pluggable behaviours that render into a shared canvas every frame.
// Behaviours are re-evaluated when their parameters change, so a running
// scene can be edited live: swap a shader, tween a uniform, rewire a node,
// and the next frame reflects it.
//
// # Quick start
//
//	scene := grimoire.NewScene()
//	node, err := scene.CreateNode(scene.Root(), "shader")
//	if err != nil {
//		log.Fatal(err)
//	}
//	node.SetParam("source", kageSource)
//	ebiten.RunGame(grimoire.NewGame(scene))
//
// For full control, implement [ebiten.Game] yourself and call [Scene.Update]
// and [Scene.Draw] directly.
//
// # Scene graph
//
// Every node is a [Node] in a tree rooted at [Scene.Root]. Sibling names are
// unique, so every node has a stable path such as /fx/blur that can be
// resolved with [Node.Find]. Structural mutations ([Node.AttachTo],
// [Node.Detach], [Node.SetName]) are all-or-nothing: a rejected operation
// leaves the tree untouched and returns a distinguishable error.
//
// # Behaviours
//
// A node's logic lives in its [Behaviour]. Optional capabilities are plain
// interfaces discovered by type assertion: [Renderer] for drawing into the
// canvas, [Computer] for producing output channel values. Concrete behaviours
// ship in the behaviours subpackage; register your own with
// [RegisterFactory].
//
// # Events
//
// Nodes exchange [Event] values through per-node handlers. Events propagate
// up, down, or stay local ([Node.EmitDirected]), and a panicking listener
// never aborts dispatch. See [Events].
//
// # GPU resources
//
// Each node owns a [ResourceManager] that tracks the images and shaders its
// behaviour allocates. The scene activates the manager around every
// init/render/cleanup call and guarantees cleanup runs exactly once when a
// node leaves the live tree.
//
// [Ebitengine]: https://ebitengine.org
package grimoire
