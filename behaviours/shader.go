package behaviours

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/grimoire"
)

// DefaultKageSource is the starting program a fresh shader node carries. It
// declares the Time uniform the renderer feeds every pass, so a new node
// animates immediately.
const DefaultKageSource = `//kage:unit pixels

package main

var Time float

func Fragment(dstPos vec4, srcPos vec2, color vec4) vec4 {
	uv := dstPos.xy / imageDstSize()
	r := 0.5 + 0.5*sin(Time+uv.x*6.28318)
	g := 0.5 + 0.5*sin(Time*1.3+uv.y*6.28318)
	b := 0.5 + 0.5*cos(Time*0.7+(uv.x+uv.y)*3.14159)
	return vec4(r, g, b, 1)
}
`

// Shader fills the whole canvas with a Kage program held in the node's
// "source" text parameter. Editing the parameter marks the program dirty and
// the next render pass recompiles it on the GPU without dropping a frame on
// failure: a broken edit keeps the last good program running and surfaces
// the compile error through [Shader.Err].
//
// The Kage program must declare `var Time float`; the renderer passes the
// scene clock through it each pass.
type Shader struct {
	shader *grimoire.Shader
	dirty  bool
	err    error
}

// NewShader returns a fresh shader behaviour.
func NewShader() *Shader { return &Shader{} }

func init() {
	grimoire.RegisterFactory("shader", func() grimoire.Behaviour {
		return NewShader()
	})
}

// NodeAttached declares the "source" parameter and arms recompilation on
// every edit. The "speed" parameter scales the Time uniform, so animations
// can be slowed or raced without touching the program.
func (b *Shader) NodeAttached(n *grimoire.Node) {
	p := n.Params().MustAdd(
		grimoire.NewTextParam("source", "Kage Source", DefaultKageSource))
	p.Bind(func(grimoire.Event) {
		b.dirty = true
		n.Emit(grimoire.EventViewportUpdate, nil)
	})
	n.Params().MustAdd(
		grimoire.NewFloatParam("speed", "Time Scale", 1).SetRange(0, 10))
}

// Err returns the most recent compile error, or nil if the current source
// compiled cleanly.
func (b *Shader) Err() error { return b.err }

// GLInit compiles the initial source.
func (b *Shader) GLInit(n *grimoire.Node) error {
	return b.compile(n)
}

// GLRender recompiles a dirty program, then draws it across the canvas.
// A failed recompile is logged and the last good program keeps drawing.
func (b *Shader) GLRender(n *grimoire.Node, ctx *grimoire.RenderContext) error {
	if b.dirty {
		if err := b.compile(n); err != nil {
			grimoire.Logger().Warn("grimoire: shader recompile failed",
				"node", n.Path(), "err", err)
		}
	}
	if b.shader == nil {
		return b.err
	}
	bounds := ctx.Canvas.Bounds()
	speed := n.Params().Get("speed").Float()
	op := &ebiten.DrawRectShaderOptions{}
	op.Uniforms = map[string]any{"Time": float32(ctx.Time * speed)}
	ctx.Canvas.DrawRectShader(bounds.Dx(), bounds.Dy(), b.shader.Ebiten(), op)
	return nil
}

// GLCleanup drops the program handle; the node's resource manager frees the
// GPU object right after.
func (b *Shader) GLCleanup(n *grimoire.Node) {
	b.shader = nil
	b.dirty = false
}

// compile builds the current source. On failure the previous program stays
// live so the canvas keeps animating while the user fixes the edit.
func (b *Shader) compile(n *grimoire.Node) error {
	src := n.Params().Get("source").Text()
	sh, err := grimoire.NewShader([]byte(src))
	if err != nil {
		b.err = err
		b.dirty = false
		return err
	}
	if b.shader != nil {
		b.shader.Release()
	}
	b.shader = sh
	b.err = nil
	b.dirty = false
	return nil
}
