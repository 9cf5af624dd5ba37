// Package behaviours ships the built-in node behaviours and registers
// them with the factory registry.
//
// Importing the package for side effects is enough to make every
// built-in factory available to Scene.CreateNode:
//
//	import _ "github.com/phanxgames/grimoire/behaviours"
//
// The built-ins are:
//
//	"shader"     full-canvas Kage shader driven by a source text param
//	"shaderfile" like "shader" but compiled from a watched file on disk
//	"oscillator" sine generator exposing a "value" output channel
package behaviours
