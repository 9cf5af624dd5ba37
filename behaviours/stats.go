package behaviours

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/phanxgames/grimoire"
)

// Stats draws a small FPS/TPS/clock readout in the top-left corner of the
// canvas. The text is refreshed every ~0.5 seconds into a tracked offscreen
// image, so the readout costs one small draw per pass. Attach it last so it
// renders on top.
type Stats struct {
	panel *grimoire.Image
	since float64
}

// NewStats returns a fresh stats overlay behaviour.
func NewStats() *Stats { return &Stats{} }

func init() {
	grimoire.RegisterFactory("stats", func() grimoire.Behaviour {
		return NewStats()
	})
}

func (b *Stats) NodeAttached(n *grimoire.Node) {}

// GLInit allocates the text panel. 100x48 fits three DebugPrint lines.
func (b *Stats) GLInit(n *grimoire.Node) error {
	b.panel = grimoire.NewImage(100, 48)
	b.since = 1 // force a refresh on the first pass
	return nil
}

// GLRender refreshes the readout at most twice a second and blits it.
func (b *Stats) GLRender(n *grimoire.Node, ctx *grimoire.RenderContext) error {
	b.since += ctx.DeltaTime
	if b.since >= 0.5 {
		b.since = 0
		img := b.panel.Ebiten()
		img.Fill(color.RGBA{0, 0, 0, 128})
		ebitenutil.DebugPrint(img, fmt.Sprintf(
			"FPS: %.1f\nTPS: %.1f\nt: %.1fs #%d",
			ebiten.ActualFPS(), ebiten.ActualTPS(), ctx.Time, ctx.Frame))
	}
	ctx.Canvas.DrawImage(b.panel.Ebiten(), nil)
	return nil
}

// GLCleanup drops the panel handle; the manager frees the image.
func (b *Stats) GLCleanup(n *grimoire.Node) {
	b.panel = nil
}
