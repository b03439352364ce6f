package datalus

import (
	"slices"

	"github.com/mesh-intelligence/datalus/pkg/types"
)

// EntityRegistry maps persisted ids to entity instances and allocates new
// entity ids from the store. Entities that have not been saved are held by
// runtime id until their first save assigns a persisted id.
type EntityRegistry struct {
	store   types.Store
	byID    map[int64]*Entity
	pending map[int64]*Entity
}

func newEntityRegistry(store types.Store) *EntityRegistry {
	return &EntityRegistry{
		store:   store,
		byID:    make(map[int64]*Entity),
		pending: make(map[int64]*Entity),
	}
}

// Register records e. A later entity with the same persisted id replaces
// the earlier one.
func (r *EntityRegistry) Register(e *Entity) {
	if e.IsNew() {
		r.pending[e.runtimeID] = e
		return
	}
	r.byID[e.id] = e
}

func (r *EntityRegistry) promote(e *Entity) {
	delete(r.pending, e.runtimeID)
	r.byID[e.id] = e
}

// Lookup returns the entity registered under a persisted id.
func (r *EntityRegistry) Lookup(id int64) (*Entity, bool) {
	e, ok := r.byID[id]
	return e, ok
}

// Len returns the number of registered entities, saved or not.
func (r *EntityRegistry) Len() int {
	return len(r.byID) + len(r.pending)
}

// NextID returns the next free persisted entity id.
func (r *EntityRegistry) NextID() (int64, error) {
	id, err := r.store.NextEntityID()
	if err != nil {
		return types.UnassignedID, types.NewStoreError("next entity id", err)
	}
	return id, nil
}

// ManagerRegistry lists the managers of a runtime. It is for enumeration
// only.
type ManagerRegistry struct {
	managers []*Manager
}

// Register adds m. Registering a manager twice is a no-op.
func (r *ManagerRegistry) Register(m *Manager) {
	if m == nil || slices.Contains(r.managers, m) {
		return
	}
	r.managers = append(r.managers, m)
}

// Managers returns the registered managers in registration order.
func (r *ManagerRegistry) Managers() []*Manager {
	return slices.Clone(r.managers)
}

// Len returns the number of registered managers.
func (r *ManagerRegistry) Len() int {
	return len(r.managers)
}

// Runner is a processor as seen by the ProcessorRegistry.
type Runner interface {
	RuntimeID() int64
	Update() error
}

// ProcessorRegistry lists the processors of a runtime.
type ProcessorRegistry struct {
	processors []Runner
}

// Register adds p. Registering a processor twice is a no-op.
func (r *ProcessorRegistry) Register(p Runner) {
	if p == nil {
		return
	}
	for _, have := range r.processors {
		if have.RuntimeID() == p.RuntimeID() {
			return
		}
	}
	r.processors = append(r.processors, p)
}

// Processors returns the registered processors in registration order.
func (r *ProcessorRegistry) Processors() []Runner {
	return slices.Clone(r.processors)
}

// UpdateAll runs every processor in registration order and stops at the
// first error.
func (r *ProcessorRegistry) UpdateAll() error {
	for _, p := range slices.Clone(r.processors) {
		if err := p.Update(); err != nil {
			return err
		}
	}
	return nil
}
