package grimoire

import "fmt"

// Factory describes a registered node kind for "create node" menus: a
// default name and a constructor for a fresh behaviour instance.
type Factory struct {
	Name string
	New  func() Behaviour
}

// factories is the process-wide registry, in registration order.
var factories []Factory

// RegisterFactory adds a node factory under the given default name.
// Typically called from a behaviour package's init function. Registering
// the same name twice panics.
func RegisterFactory(name string, fn func() Behaviour) {
	if fn == nil {
		panic("grimoire: nil factory func")
	}
	for _, f := range factories {
		if f.Name == name {
			panic(fmt.Sprintf("grimoire: factory %q registered twice", name))
		}
	}
	factories = append(factories, Factory{Name: name, New: fn})
}

// Factories returns the registered factories in registration order.
// The returned slice MUST NOT be mutated by the caller.
func Factories() []Factory {
	return factories
}

// factoryByName returns the registered factory, or nil.
func factoryByName(name string) *Factory {
	for i := range factories {
		if factories[i].Name == name {
			return &factories[i]
		}
	}
	return nil
}
