package grimoire

import "image/color"

// Color represents an RGBA color with components in [0, 1]. Not
// premultiplied.
type Color struct {
	R, G, B, A float64
}

// ColorBlack is the default scene clear color.
var ColorBlack = Color{0, 0, 0, 1}

// ColorWhite is opaque white.
var ColorWhite = Color{1, 1, 1, 1}

// toRGBA converts to a premultiplied 8-bit color for ebiten fills.
func (c Color) toRGBA() color.RGBA {
	clamp := func(v float64) float64 {
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 1
		}
		return v
	}
	a := clamp(c.A)
	return color.RGBA{
		R: uint8(clamp(c.R)*a*255 + 0.5),
		G: uint8(clamp(c.G)*a*255 + 0.5),
		B: uint8(clamp(c.B)*a*255 + 0.5),
		A: uint8(a*255 + 0.5),
	}
}
