package grimoire

import "fmt"

// ParamKind discriminates the value a parameter holds.
type ParamKind uint8

const (
	ParamFloat  ParamKind = iota // float64 value, optional min/max range
	ParamInt                     // int value, optional min/max range
	ParamText                    // string value (e.g. shader source)
	ParamToggle                  // bool value
)

// Param is a single named, typed parameter on a node. Parameters are
// declared by a behaviour in its NodeAttached hook and edited by the GUI
// layer or by code; every change fires [EventValueChanged] on the
// parameter, which behaviours consume to recompute or re-render.
type Param struct {
	name  string
	label string
	kind  ParamKind

	fval float64
	ival int
	sval string
	bval bool

	min, max float64
	hasRange bool

	events Events
	owner  *Node // set when added to a node's Params
}

// NewFloatParam creates a float parameter with a default value.
func NewFloatParam(name, label string, def float64) *Param {
	return &Param{name: name, label: label, kind: ParamFloat, fval: def}
}

// NewIntParam creates an integer parameter with a default value.
func NewIntParam(name, label string, def int) *Param {
	return &Param{name: name, label: label, kind: ParamInt, ival: def}
}

// NewTextParam creates a text parameter with a default value.
func NewTextParam(name, label, def string) *Param {
	return &Param{name: name, label: label, kind: ParamText, sval: def}
}

// NewToggleParam creates a boolean parameter with a default value.
func NewToggleParam(name, label string, def bool) *Param {
	return &Param{name: name, label: label, kind: ParamToggle, bval: def}
}

// SetRange clamps future float/int values to [min, max]. Returns the
// parameter for chaining at declaration time.
func (p *Param) SetRange(min, max float64) *Param {
	p.min, p.max = min, max
	p.hasRange = true
	return p
}

// Name returns the parameter's name.
func (p *Param) Name() string { return p.name }

// Label returns the human-readable label for widgets.
func (p *Param) Label() string { return p.label }

// Kind returns the parameter's value kind.
func (p *Param) Kind() ParamKind { return p.kind }

// Float returns the float value (zero for non-float parameters).
func (p *Param) Float() float64 { return p.fval }

// Int returns the integer value (zero for non-int parameters).
func (p *Param) Int() int { return p.ival }

// Text returns the string value (empty for non-text parameters).
func (p *Param) Text() string { return p.sval }

// Bool returns the boolean value (false for non-toggle parameters).
func (p *Param) Bool() bool { return p.bval }

// Value returns the current value as its natural Go type.
func (p *Param) Value() any {
	switch p.kind {
	case ParamFloat:
		return p.fval
	case ParamInt:
		return p.ival
	case ParamText:
		return p.sval
	default:
		return p.bval
	}
}

// Set assigns a new value. Floats accept float64 or int; ints accept int or
// float64 (truncated); ranges clamp. A changed value fires
// [EventValueChanged] on the parameter with the owning node as source.
func (p *Param) Set(value any) error {
	switch p.kind {
	case ParamFloat:
		switch v := value.(type) {
		case float64:
			return p.setFloat(v)
		case int:
			return p.setFloat(float64(v))
		}
	case ParamInt:
		switch v := value.(type) {
		case int:
			return p.setInt(v)
		case float64:
			return p.setInt(int(v))
		}
	case ParamText:
		if v, ok := value.(string); ok {
			return p.setText(v)
		}
	case ParamToggle:
		if v, ok := value.(bool); ok {
			return p.setBool(v)
		}
	}
	return fmt.Errorf("grimoire: parameter %q does not accept %T", p.name, value)
}

func (p *Param) setFloat(v float64) error {
	v = p.clamp(v)
	if v == p.fval {
		return nil
	}
	p.fval = v
	p.fireChanged(v)
	return nil
}

func (p *Param) setInt(v int) error {
	v = int(p.clamp(float64(v)))
	if v == p.ival {
		return nil
	}
	p.ival = v
	p.fireChanged(v)
	return nil
}

func (p *Param) setText(v string) error {
	if v == p.sval {
		return nil
	}
	p.sval = v
	p.fireChanged(v)
	return nil
}

func (p *Param) setBool(v bool) error {
	if v == p.bval {
		return nil
	}
	p.bval = v
	p.fireChanged(v)
	return nil
}

func (p *Param) clamp(v float64) float64 {
	if !p.hasRange {
		return v
	}
	if v < p.min {
		return p.min
	}
	if v > p.max {
		return p.max
	}
	return v
}

func (p *Param) fireChanged(value any) {
	p.events.Emit(EventValueChanged,
		map[string]any{"param": p.name, "value": value}, p.owner)
}

// Bind registers fn to run whenever the parameter's value changes.
func (p *Param) Bind(fn func(Event)) *Listener {
	return p.events.Bind(EventValueChanged, fn)
}

// Unbind removes a change listener previously returned by Bind.
func (p *Param) Unbind(l *Listener) bool {
	return p.events.Unbind(EventValueChanged, l)
}

// Params is an ordered collection of parameters, in declaration order.
type Params struct {
	node *Node
	list []*Param
}

// Add appends a parameter. Returns [ErrDuplicateParam] if the name is taken.
func (ps *Params) Add(p *Param) error {
	if ps.Get(p.name) != nil {
		return fmt.Errorf("%w: %q", ErrDuplicateParam, p.name)
	}
	p.owner = ps.node
	ps.list = append(ps.list, p)
	return nil
}

// MustAdd is Add for declaration blocks where a duplicate is a programming
// error.
func (ps *Params) MustAdd(p *Param) *Param {
	if err := ps.Add(p); err != nil {
		panic(err)
	}
	return p
}

// Get returns the parameter with the given name, or nil.
func (ps *Params) Get(name string) *Param {
	for _, p := range ps.list {
		if p.name == name {
			return p
		}
	}
	return nil
}

// Remove deletes the parameter with the given name and reports whether it
// existed.
func (ps *Params) Remove(name string) bool {
	for i, p := range ps.list {
		if p.name == name {
			copy(ps.list[i:], ps.list[i+1:])
			ps.list[len(ps.list)-1] = nil
			ps.list = ps.list[:len(ps.list)-1]
			return true
		}
	}
	return false
}

// Len returns the number of parameters.
func (ps *Params) Len() int { return len(ps.list) }

// At returns the parameter at the given declaration index.
func (ps *Params) At(i int) *Param { return ps.list[i] }

// All returns the parameters in declaration order. The returned slice MUST
// NOT be mutated by the caller.
func (ps *Params) All() []*Param { return ps.list }

// SetParam assigns a value to the named parameter on this node. Returns
// [ErrUnknownParam] if the behaviour declared no such parameter.
func (n *Node) SetParam(name string, value any) error {
	p := n.params.Get(name)
	if p == nil {
		return fmt.Errorf("%w: %q on %s", ErrUnknownParam, name, n.Path())
	}
	return p.Set(value)
}

// ParamValue returns the value of the named parameter. Returns
// [ErrUnknownParam] if the behaviour declared no such parameter.
func (n *Node) ParamValue(name string) (any, error) {
	p := n.params.Get(name)
	if p == nil {
		return nil, fmt.Errorf("%w: %q on %s", ErrUnknownParam, name, n.Path())
	}
	return p.Value(), nil
}
