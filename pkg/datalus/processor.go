package datalus

import (
	"fmt"
	"slices"
)

// Processor runs the Update hook of a set of components of one type. It is
// independent of the mapping core: components are registered explicitly.
type Processor[C Component] struct {
	runtimeID  int64
	components []C
}

// NewProcessor creates a Processor and adds it to rt.Processors.
func NewProcessor[C Component](rt *Runtime) *Processor[C] {
	p := &Processor[C]{runtimeID: rt.Sequence.Next()}
	rt.Processors.Register(p)
	return p
}

// RuntimeID returns the processor's process-local id.
func (p *Processor[C]) RuntimeID() int64 { return p.runtimeID }

// Register adds c. It reports false if c is already registered.
func (p *Processor[C]) Register(c C) bool {
	if p.index(c) >= 0 {
		return false
	}
	p.components = append(p.components, c)
	return true
}

// Unregister removes c. It reports whether c was registered.
func (p *Processor[C]) Unregister(c C) bool {
	i := p.index(c)
	if i < 0 {
		return false
	}
	p.components = slices.Delete(p.components, i, i+1)
	return true
}

func (p *Processor[C]) index(c C) int {
	return slices.IndexFunc(p.components, func(have C) bool {
		return any(have) == any(c)
	})
}

// Components returns the registered components in registration order.
func (p *Processor[C]) Components() []C {
	return slices.Clone(p.components)
}

// Update calls Update on every registered component that implements
// Updater, stopping at the first error.
func (p *Processor[C]) Update() error {
	for _, c := range slices.Clone(p.components) {
		u, ok := any(c).(Updater)
		if !ok {
			continue
		}
		if err := u.Update(); err != nil {
			return fmt.Errorf("%s: %w", c.Descriptor().TypeName, err)
		}
	}
	return nil
}
