package datalus

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/datalus/pkg/types"
)

var (
	selectHeader = fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		types.EntityIDColumn, types.EntitiesTable, types.EntityIDColumn)

	selectMembership = fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s = ?",
		types.EntityIDColumn, types.KindIDColumn, types.EntityComponentsTable, types.EntityIDColumn)

	selectMemberClasses = fmt.Sprintf(
		"SELECT ec.%[1]s AS %[1]s, k.%[2]s AS %[2]s FROM %[3]s ec LEFT JOIN %[4]s k ON k.%[1]s = ec.%[1]s WHERE ec.%[5]s = ? ORDER BY ec.%[1]s",
		types.KindIDColumn, types.ClassColumn, types.EntityComponentsTable, types.ComponentKindsTable, types.EntityIDColumn)
)

// Entity is an aggregate identified by a persisted id that owns at most one
// component per concrete type.
type Entity struct {
	rt *Runtime

	id        int64
	runtimeID int64

	components []Component
	notifier   *Notifier
}

func newEntity(rt *Runtime) *Entity {
	e := &Entity{
		rt:        rt,
		id:        types.UnassignedID,
		runtimeID: rt.Sequence.Next(),
	}
	e.notifier = newNotifier(e)
	return e
}

// ID returns the persisted id, or types.UnassignedID before the first save.
func (e *Entity) ID() int64 { return e.id }

// RuntimeID returns the process-local id.
func (e *Entity) RuntimeID() int64 { return e.runtimeID }

// IsNew reports whether the entity has not been saved yet.
func (e *Entity) IsNew() bool { return e.id == types.UnassignedID }

// IsModified reports whether the entity is new or any component changed
// since it was loaded or saved.
func (e *Entity) IsModified() bool {
	if e.IsNew() {
		return true
	}
	for _, c := range e.components {
		if c.base().modified {
			return true
		}
	}
	return false
}

// Notifier returns the entity's event hub.
func (e *Entity) Notifier() *Notifier { return e.notifier }

// Components returns the attached components in attachment order.
func (e *Entity) Components() []Component {
	return slices.Clone(e.components)
}

// Len returns the number of attached components.
func (e *Entity) Len() int { return len(e.components) }

// Add attaches a new *T to e and returns it. If a *T is already attached,
// Add returns that instance and changes nothing.
func Add[T any, PT ComponentPtr[T]](e *Entity) PT {
	if c, ok := Get[T, PT](e); ok {
		return c
	}
	c := PT(new(T))
	// A fresh component is unbound and non-nil, so Attach cannot fail.
	_ = e.Attach(c)
	return c
}

// Get returns the attached *T, if any.
func Get[T any, PT ComponentPtr[T]](e *Entity) (PT, bool) {
	for _, c := range e.components {
		if pc, ok := c.(PT); ok {
			return pc, true
		}
	}
	return nil, false
}

// Remove detaches and disposes the attached *T. It reports whether a
// component was removed.
func Remove[T any, PT ComponentPtr[T]](e *Entity) bool {
	c, ok := Get[T, PT](e)
	if !ok {
		return false
	}
	e.remove(c)
	return true
}

// Attach binds an existing component to e. Attaching a component whose
// concrete type is already present is a no-op.
func (e *Entity) Attach(c Component) error {
	if v := reflect.ValueOf(c); c == nil || (v.Kind() == reflect.Pointer && v.IsNil()) {
		return types.ErrNilComponent
	}
	typ := reflect.TypeOf(c)
	for _, have := range e.components {
		if reflect.TypeOf(have) == typ {
			return nil
		}
	}
	if err := bind(c, e); err != nil {
		return err
	}
	b := c.base()
	if b.runtimeID == 0 {
		b.runtimeID = e.rt.Sequence.Next()
	}
	b.subscribed = true
	b.disposed = false
	e.components = append(e.components, c)
	e.notifier.added(c)
	return nil
}

func (e *Entity) remove(c Component) {
	i := slices.Index(e.components, c)
	if i < 0 {
		return
	}
	b := c.base()
	b.subscribed = false
	e.components = slices.Delete(e.components, i, i+1)
	e.notifier.removed(c)
	if d, ok := c.(Disposer); ok && !b.disposed {
		d.Dispose()
	}
	b.disposed = true
}

func (e *Entity) componentChanged(c Component, change Change) {
	e.notifier.changed(c, change)
}

// fail logs err, relays it to subscribers and returns it.
func (e *Entity) fail(err error) error {
	e.rt.logger.Warn("entity operation failed",
		zap.Int64("entity_id", e.id),
		zap.Int64("runtime_id", e.runtimeID),
		zap.Error(err))
	e.notifier.failed(err)
	return err
}

// kindOf resolves and caches the persisted kind id of c.
func (e *Entity) kindOf(c Component) (int64, error) {
	b := c.base()
	if b.kindResolved {
		return b.kindID, nil
	}
	class := c.Descriptor().Class
	kind := e.rt.Kinds.Resolve(class)
	if kind == types.KindNotFound {
		return kind, types.NewResolutionError(class, types.KindNotFound, "no component kind registered for class")
	}
	b.kindID = kind
	b.kindResolved = true
	return kind, nil
}

// loadData assigns id and reconstructs the entity's components from the
// membership relation. The first failure aborts the load; the caller must
// discard the entity.
func (e *Entity) loadData(id int64) error {
	e.id = id
	if err := e.loadEntity(); err != nil {
		return e.fail(err)
	}

	rs, err := e.rt.Store.Query(selectMemberClasses, id)
	if err != nil {
		return e.fail(types.NewStoreError("load components", err))
	}
	for _, row := range rs.Rows() {
		kind, err := cast.ToInt64E(row.Get(types.KindIDColumn))
		if err != nil {
			return e.fail(fmt.Errorf("component kind id: %w", err))
		}
		class := cast.ToString(row.Get(types.ClassColumn))
		if class == "" {
			return e.fail(types.NewResolutionError("", kind, "no class registered for component kind"))
		}
		d, ok := e.rt.Catalog.Lookup(class)
		if !ok {
			return e.fail(types.NewResolutionError(class, kind, "class is not in the component catalog"))
		}

		c := d.New()
		if err := LoadComponent(c, e); err != nil {
			return err
		}
		b := c.base()
		b.kindID = kind
		b.kindResolved = true
		if err := e.Attach(c); err != nil {
			return e.fail(err)
		}
	}
	e.rt.logger.Debug("entity loaded",
		zap.Int64("entity_id", id),
		zap.Int("components", len(e.components)))
	return nil
}

// loadEntity is the entity-level load step. Entities carry no columns of
// their own beyond the id, so there is nothing to read.
func (e *Entity) loadEntity() error {
	return nil
}

// SaveData persists the entity: the header row, the component membership,
// then every component. With validate set, the whole entity is validated
// first. The store round trips are not atomic as a group: a failure part
// way leaves earlier writes in place.
func (e *Entity) SaveData(validate bool) error {
	if validate {
		if err := e.ValidateData(); err != nil {
			return err
		}
	}
	if err := e.saveEntity(); err != nil {
		return err
	}
	if err := e.saveComponents(); err != nil {
		return err
	}
	e.notifier.lifecycle(EventSaved, nil)
	return nil
}

// saveEntity inserts the header row of a new entity and assigns its id.
func (e *Entity) saveEntity() error {
	if !e.IsNew() {
		return nil
	}
	store := e.rt.Store
	id, err := e.rt.Entities.NextID()
	if err != nil {
		return e.fail(err)
	}

	rs, err := store.Query(selectHeader, id)
	if err != nil {
		return e.fail(types.NewStoreError("read entity header", err))
	}
	if rs.Len() > 0 {
		return e.fail(types.NewIntegrityError(types.EntitiesTable,
			fmt.Sprintf("rows were returned for new entity %d", id)))
	}

	rs.SetKey(types.EntityIDColumn)
	row := rs.NewRow()
	row.Set(types.EntityIDColumn, id)
	rs.Add(row)
	if err := store.Apply(rs, types.EntitiesTable); err != nil {
		return e.fail(types.NewStoreError("write entity header", err))
	}

	e.id = id
	e.rt.Entities.promote(e)
	e.rt.logger.Debug("entity created",
		zap.Int64("entity_id", id),
		zap.Int64("runtime_id", e.runtimeID))
	return nil
}

// saveComponents reconciles the membership relation with the attached
// component kinds, then saves every component.
func (e *Entity) saveComponents() error {
	attached := make(map[int64]bool, len(e.components))
	kinds := make([]int64, 0, len(e.components))
	for _, c := range e.components {
		kind, err := e.kindOf(c)
		if err != nil {
			return e.fail(fmt.Errorf("%s: %w", c.Descriptor().TypeName, err))
		}
		attached[kind] = true
		kinds = append(kinds, kind)
	}

	store := e.rt.Store
	rs, err := store.Query(selectMembership, e.id)
	if err != nil {
		return e.fail(types.NewStoreError("read components", err))
	}
	rs.SetKey(types.EntityIDColumn, types.KindIDColumn)

	persisted := make(map[int64]bool, rs.Len())
	for _, row := range rs.Rows() {
		kind, err := cast.ToInt64E(row.Get(types.KindIDColumn))
		if err != nil {
			return e.fail(fmt.Errorf("component kind id: %w", err))
		}
		persisted[kind] = true
		if !attached[kind] {
			rs.Delete(row)
		}
	}
	for _, kind := range kinds {
		if persisted[kind] {
			continue
		}
		row := rs.NewRow()
		row.Set(types.EntityIDColumn, e.id)
		row.Set(types.KindIDColumn, kind)
		rs.Add(row)
	}

	if rs.HasChanges() {
		added, removed := rs.Count(types.RowAdded), rs.Count(types.RowDeleted)
		if err := store.Apply(rs, types.EntityComponentsTable); err != nil {
			return e.fail(types.NewStoreError("write components", err))
		}
		e.rt.logger.Debug("component membership saved",
			zap.Int64("entity_id", e.id),
			zap.Int("added", added),
			zap.Int("removed", removed))
	}

	for _, c := range e.components {
		if err := SaveComponent(c, false); err != nil {
			return err
		}
	}
	return nil
}

// ValidateData formats the entity and validates every component in
// attachment order, stopping at the first failure.
func (e *Entity) ValidateData() error {
	e.FormatData()
	for _, c := range e.components {
		if err := ValidateComponent(c); err != nil {
			return err
		}
	}
	e.notifier.lifecycle(EventValidated, nil)
	return nil
}

// FormatData formats every component.
func (e *Entity) FormatData() {
	for _, c := range e.components {
		FormatComponent(c)
	}
	e.notifier.lifecycle(EventFormatted, nil)
}

// Dispose releases the notifier and removes every component.
func (e *Entity) Dispose() {
	e.notifier.dispose()
	for len(e.components) > 0 {
		e.remove(e.components[0])
	}
}

func errComponentBound(c Component) error {
	return fmt.Errorf("%w: %s", types.ErrComponentBound, c.Descriptor().TypeName)
}
