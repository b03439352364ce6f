package datalus

import (
	"go.uber.org/zap"
)

// Manager creates new entities and loads stored ones, registering each with
// the runtime's entity registry.
type Manager struct {
	rt        *Runtime
	runtimeID int64
	entities  []*Entity
}

// NewManager creates a Manager and adds it to rt.Managers.
func NewManager(rt *Runtime) *Manager {
	m := &Manager{rt: rt, runtimeID: rt.Sequence.Next()}
	rt.Managers.Register(m)
	return m
}

// RuntimeID returns the manager's process-local id.
func (m *Manager) RuntimeID() int64 { return m.runtimeID }

// Create returns a new, unsaved entity.
func (m *Manager) Create() *Entity {
	e := newEntity(m.rt)
	m.track(e)
	m.rt.logger.Debug("entity created in memory", zap.Int64("runtime_id", e.runtimeID))
	return e
}

// Get loads the entity stored under id. When loading fails the partially
// built entity is disposed and Get returns nil with the error.
func (m *Manager) Get(id int64) (*Entity, error) {
	e := newEntity(m.rt)
	if err := e.loadData(id); err != nil {
		e.Dispose()
		return nil, err
	}
	m.track(e)
	return e, nil
}

func (m *Manager) track(e *Entity) {
	m.rt.Entities.Register(e)
	m.entities = append(m.entities, e)
}

// Entities returns the entities this manager created or loaded.
func (m *Manager) Entities() []*Entity {
	out := make([]*Entity, len(m.entities))
	copy(out, m.entities)
	return out
}

// Count returns the number of entities this manager created or loaded.
func (m *Manager) Count() int {
	return len(m.entities)
}
