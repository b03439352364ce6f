package datalus

import "slices"

// EventKind identifies an entity event.
type EventKind int

// Entity events.
const (
	EventAdded EventKind = iota
	EventRemoved
	EventChanged
	EventError
	EventFormatted
	EventSaved
	EventValidated
)

func (k EventKind) String() string {
	switch k {
	case EventAdded:
		return "added"
	case EventRemoved:
		return "removed"
	case EventChanged:
		return "changed"
	case EventError:
		return "error"
	case EventFormatted:
		return "formatted"
	case EventSaved:
		return "saved"
	case EventValidated:
		return "validated"
	default:
		return "unknown"
	}
}

// Event is delivered to listeners registered with Notifier.Listen.
type Event struct {
	Kind      EventKind
	Entity    *Entity
	Component Component // set for added, removed and changed
	Change    Change    // set for changed
	Err       error     // set for error
}

// EntitySubscriber receives every component change of an entity and its
// errors.
type EntitySubscriber interface {
	OnEntityComponentChanged(c Component, property string, value any)
	OnEntityError(message string)
}

// LifecycleSubscriber is implemented by entity subscribers that also want
// the added, removed, formatted, saved and validated events.
type LifecycleSubscriber interface {
	OnEntityEvent(ev Event)
}

// ComponentSubscriber receives property changes of one component type.
type ComponentSubscriber interface {
	OnComponentChanged(property string, value any)
}

type componentSubscription struct {
	matches func(Component) bool
	sub     ComponentSubscriber
}

type listener struct {
	fn func(Event)
}

// Notifier is the per-entity event hub. Subscribers are compared by
// identity, so they should be pointers.
type Notifier struct {
	entity *Entity

	componentSubs []componentSubscription
	entitySubs    []EntitySubscriber
	listeners     []*listener
}

func newNotifier(e *Entity) *Notifier {
	return &Notifier{entity: e}
}

// SubscribeComponent subscribes s to property changes of the entity's *T.
// It does nothing and returns false when no *T is attached or s is already
// subscribed.
func SubscribeComponent[T any, PT ComponentPtr[T]](n *Notifier, s ComponentSubscriber) bool {
	if s == nil {
		return false
	}
	if _, ok := Get[T, PT](n.entity); !ok {
		return false
	}
	for _, cs := range n.componentSubs {
		if cs.sub == s {
			return false
		}
	}
	n.componentSubs = append(n.componentSubs, componentSubscription{
		matches: func(c Component) bool {
			_, ok := c.(PT)
			return ok
		},
		sub: s,
	})
	return true
}

// UnsubscribeComponent removes a component subscriber.
func (n *Notifier) UnsubscribeComponent(s ComponentSubscriber) {
	n.componentSubs = slices.DeleteFunc(n.componentSubs, func(cs componentSubscription) bool {
		return cs.sub == s
	})
}

// Subscribe adds an entity subscriber. Subscribing twice is a no-op.
func (n *Notifier) Subscribe(s EntitySubscriber) {
	if s == nil || slices.Contains(n.entitySubs, s) {
		return
	}
	n.entitySubs = append(n.entitySubs, s)
}

// Unsubscribe removes an entity subscriber.
func (n *Notifier) Unsubscribe(s EntitySubscriber) {
	n.entitySubs = slices.DeleteFunc(n.entitySubs, func(have EntitySubscriber) bool {
		return have == s
	})
}

// Listen registers fn for every event of the entity. Calling the returned
// function stops delivery.
func (n *Notifier) Listen(fn func(Event)) (cancel func()) {
	l := &listener{fn: fn}
	n.listeners = append(n.listeners, l)
	return func() {
		n.listeners = slices.DeleteFunc(n.listeners, func(have *listener) bool {
			return have == l
		})
	}
}

// ComponentSubscribers returns the current component subscribers.
func (n *Notifier) ComponentSubscribers() []ComponentSubscriber {
	out := make([]ComponentSubscriber, len(n.componentSubs))
	for i, cs := range n.componentSubs {
		out[i] = cs.sub
	}
	return out
}

// EntitySubscribers returns the current entity subscribers.
func (n *Notifier) EntitySubscribers() []EntitySubscriber {
	return slices.Clone(n.entitySubs)
}

func (n *Notifier) emit(ev Event) {
	ev.Entity = n.entity
	for _, l := range slices.Clone(n.listeners) {
		l.fn(ev)
	}
}

func (n *Notifier) added(c Component) {
	n.lifecycle(EventAdded, c)
}

func (n *Notifier) removed(c Component) {
	n.lifecycle(EventRemoved, c)
}

func (n *Notifier) lifecycle(kind EventKind, c Component) {
	ev := Event{Kind: kind, Entity: n.entity, Component: c}
	n.emit(ev)
	for _, s := range slices.Clone(n.entitySubs) {
		if ls, ok := s.(LifecycleSubscriber); ok {
			ls.OnEntityEvent(ev)
		}
	}
}

func (n *Notifier) changed(c Component, change Change) {
	n.emit(Event{Kind: EventChanged, Component: c, Change: change})
	for _, cs := range slices.Clone(n.componentSubs) {
		if cs.matches(c) {
			cs.sub.OnComponentChanged(change.Property, change.New)
		}
	}
	for _, s := range slices.Clone(n.entitySubs) {
		s.OnEntityComponentChanged(c, change.Property, change.New)
	}
}

func (n *Notifier) failed(err error) {
	n.emit(Event{Kind: EventError, Err: err})
	msg := err.Error()
	for _, s := range slices.Clone(n.entitySubs) {
		s.OnEntityError(msg)
	}
}

func (n *Notifier) dispose() {
	n.componentSubs = nil
	n.entitySubs = nil
	n.listeners = nil
}
