package datalus

// Component is a typed property bag owned by at most one entity. Concrete
// components embed Base and return a package-level Descriptor.
type Component interface {
	Descriptor() *Descriptor
	base() *Base
}

// ComponentPtr constrains a type parameter to a pointer to a component
// struct, so generic helpers can allocate one.
type ComponentPtr[T any] interface {
	*T
	Component
}

// Base carries the framework state every component needs. Embed it by value.
type Base struct {
	self   Component
	entity *Entity

	runtimeID    int64
	kindID       int64
	kindResolved bool

	modified   bool
	subscribed bool
	disposed   bool
}

func (b *Base) base() *Base { return b }

// Entity returns the owning entity, or nil if the component is unattached.
func (b *Base) Entity() *Entity { return b.entity }

// RuntimeID returns the process-local id assigned when the component was
// attached.
func (b *Base) RuntimeID() int64 { return b.runtimeID }

// IsModified reports whether a property changed since the last load or save.
func (b *Base) IsModified() bool { return b.modified }

// Modified records a property change: it sets the modified flag, calls the
// component's ChangeObserver hook, and relays the change to the owning
// entity. Setters call it after assigning a new value.
func (b *Base) Modified(property string, old, value any) {
	b.modified = true
	if obs, ok := b.self.(ChangeObserver); ok {
		obs.PropertyChanged(property, value)
	}
	if b.entity != nil && b.subscribed {
		b.entity.componentChanged(b.self, Change{Property: property, Old: old, New: value})
	}
}

// Change describes one property mutation.
type Change struct {
	Property string
	Old      any
	New      any
}

// ChangeGuard lets a component veto a property change before it is applied.
type ChangeGuard interface {
	AllowChange(property string, old, value any) bool
}

// ChangeObserver is called after a property change is applied.
type ChangeObserver interface {
	PropertyChanged(property string, value any)
}

// ErrorObserver is called when a load, save, or validation of the component
// fails.
type ErrorObserver interface {
	ComponentError(err error)
}

// ValidationObserver is called with the property and message of a failed
// validation.
type ValidationObserver interface {
	ValidationFailed(property, message string)
}

// Formatter formats non-text formattable property values. The returned value
// replaces the current one when it differs.
type Formatter interface {
	FormatProperty(property string, value any) any
}

// Disposer releases component resources after removal from its entity.
type Disposer interface {
	Dispose()
}

// Updater is the per-tick hook invoked by a Processor.
type Updater interface {
	Update() error
}

// SetField assigns value to *field on component c and records the change.
// It does nothing when the value is unchanged or a ChangeGuard vetoes it.
// It reports whether the field was assigned.
func SetField[V comparable](c Component, property string, field *V, value V) bool {
	old := *field
	if old == value {
		return false
	}
	if guard, ok := c.(ChangeGuard); ok && !guard.AllowChange(property, old, value) {
		return false
	}
	*field = value
	b := c.base()
	if b.self == nil {
		b.self = c
	}
	b.Modified(property, old, value)
	return true
}

// bind sets the component's owner. A component stays bound to its first
// entity.
func bind(c Component, e *Entity) error {
	b := c.base()
	if b.entity != nil && b.entity != e {
		return errComponentBound(c)
	}
	b.self = c
	b.entity = e
	return nil
}
