package grimoire

import "github.com/hajimehoshi/ebiten/v2"

// Game adapts a [Scene] to the [ebiten.Game] interface: Update advances the
// scene clock and runs the compute pass, Draw runs the render pass into the
// screen. Use it directly with [ebiten.RunGame], or embed it and override
// Update to process input before the scene steps.
type Game struct {
	Scene *Scene

	// OnUpdate, if set, runs at the start of every Update, before the scene
	// clock advances. Returning an error stops the game loop.
	OnUpdate func(*Scene) error
}

// NewGame wraps a scene for ebiten.RunGame.
func NewGame(scene *Scene) *Game {
	if scene == nil {
		panic("grimoire: cannot create a game without a scene")
	}
	return &Game{Scene: scene}
}

// Update implements ebiten.Game.
func (g *Game) Update() error {
	if g.OnUpdate != nil {
		if err := g.OnUpdate(g.Scene); err != nil {
			return err
		}
	}
	g.Scene.Update()
	g.Scene.Compute()
	return nil
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	g.Scene.Draw(screen)
}

// Layout implements ebiten.Game with a 1:1 logical resolution.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}
