package grimoire

import (
	"fmt"
	"strings"
)

// ChannelRef addresses one channel of one node, parsed from a string of the
// form "path/to/node:channel". The path part follows [Node.Find] semantics.
type ChannelRef struct {
	Path    string
	Channel string
}

// ParseChannelRef parses "path:channel". Both parts must be non-empty and
// the channel part must not itself contain a colon.
func ParseChannelRef(s string) (ChannelRef, error) {
	path, channel, ok := strings.Cut(s, ":")
	if !ok || path == "" || channel == "" || strings.Contains(channel, ":") {
		return ChannelRef{}, fmt.Errorf("grimoire: invalid channel reference %q", s)
	}
	return ChannelRef{Path: path, Channel: channel}, nil
}

// String formats the reference back to "path:channel".
func (r ChannelRef) String() string {
	return r.Path + ":" + r.Channel
}

// Resolve finds the referenced node relative to from, or nil.
func (r ChannelRef) Resolve(from *Node) *Node {
	return from.Find(r.Path)
}

// Output is a named output channel of a node. Calculated marks whether
// Value holds a result from the last compute pass.
type Output struct {
	Name       string
	Calculated bool
	Value      any
}

// Input is a named input channel and the reference to the output channel
// linked into it. A zero Ref means the input is not connected.
type Input struct {
	Name string
	Ref  ChannelRef
}

// Connected reports whether the input is linked to an output.
func (in *Input) Connected() bool {
	return in.Ref != (ChannelRef{})
}

// OutputList holds a node's output channels in declaration order.
type OutputList struct {
	items []*Output
}

// Add declares an output channel. Returns [ErrDuplicateChannel] if the name
// is taken.
func (l *OutputList) Add(name string) (*Output, error) {
	if l.Get(name) != nil {
		return nil, fmt.Errorf("%w: output %q", ErrDuplicateChannel, name)
	}
	out := &Output{Name: name}
	l.items = append(l.items, out)
	return out, nil
}

// Get returns the output with the given name, or nil.
func (l *OutputList) Get(name string) *Output {
	for _, out := range l.items {
		if out.Name == name {
			return out
		}
	}
	return nil
}

// Len returns the number of outputs.
func (l *OutputList) Len() int { return len(l.items) }

// At returns the output at the given declaration index.
func (l *OutputList) At(i int) *Output { return l.items[i] }

// Invalidate clears the Calculated flag on every output, forcing the next
// compute pass to produce fresh values.
func (l *OutputList) Invalidate() {
	for _, out := range l.items {
		out.Calculated = false
		out.Value = nil
	}
}

// Clear removes all outputs.
func (l *OutputList) Clear() { l.items = nil }

// InputList holds a node's input channels in declaration order.
type InputList struct {
	items []*Input
}

// Add declares an input channel. Returns [ErrDuplicateChannel] if the name
// is taken.
func (l *InputList) Add(name string) (*Input, error) {
	if l.Get(name) != nil {
		return nil, fmt.Errorf("%w: input %q", ErrDuplicateChannel, name)
	}
	in := &Input{Name: name}
	l.items = append(l.items, in)
	return in, nil
}

// Get returns the input with the given name, or nil.
func (l *InputList) Get(name string) *Input {
	for _, in := range l.items {
		if in.Name == name {
			return in
		}
	}
	return nil
}

// Len returns the number of inputs.
func (l *InputList) Len() int { return len(l.items) }

// At returns the input at the given declaration index.
func (l *InputList) At(i int) *Input { return l.items[i] }

// Clear removes all inputs.
func (l *InputList) Clear() { l.items = nil }
