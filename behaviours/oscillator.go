package behaviours

import (
	"math"

	"github.com/phanxgames/grimoire"
)

// Oscillator produces a sine wave on its "value" output channel, driven by
// the scene clock. "frequency" and "amplitude" parameters shape the wave,
// and an optional "gain" input channel scales the result by another node's
// output, which is the smallest useful patch for wiring channels together.
type Oscillator struct {
	out  *grimoire.Output
	gain *grimoire.Input
}

// NewOscillator returns a fresh oscillator behaviour.
func NewOscillator() *Oscillator { return &Oscillator{} }

func init() {
	grimoire.RegisterFactory("oscillator", func() grimoire.Behaviour {
		return NewOscillator()
	})
}

// NodeAttached declares the wave parameters and the channel surface.
func (b *Oscillator) NodeAttached(n *grimoire.Node) {
	n.Params().MustAdd(
		grimoire.NewFloatParam("frequency", "Frequency (Hz)", 1).SetRange(0.01, 100))
	n.Params().MustAdd(
		grimoire.NewFloatParam("amplitude", "Amplitude", 1))
	b.out, _ = n.Outputs.Add("value")
	b.gain, _ = n.Inputs.Add("gain")
}

// Compute fills the "value" output for the current scene time. A connected
// gain input multiplies in the referenced output when it carries a computed
// float; a dangling or stale reference leaves the gain at 1.
func (b *Oscillator) Compute(n *grimoire.Node) error {
	var t float64
	if s := n.Scene(); s != nil {
		t = s.Time
	}
	freq := n.Params().Get("frequency").Float()
	amp := n.Params().Get("amplitude").Float()
	value := amp * math.Sin(2*math.Pi*freq*t)

	if b.gain.Connected() {
		if src := b.gain.Ref.Resolve(n); src != nil {
			if out := src.Outputs.Get(b.gain.Ref.Channel); out != nil && out.Calculated {
				if g, ok := out.Value.(float64); ok {
					value *= g
				}
			}
		}
	}

	b.out.Value = value
	b.out.Calculated = true
	return nil
}
