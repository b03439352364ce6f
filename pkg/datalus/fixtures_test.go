package datalus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/datalus/pkg/sqlite"
	"github.com/mesh-intelligence/datalus/pkg/types"
)

// AddressComponent persists to the Address table.
type AddressComponent struct {
	Base
	street string
	city   string
	zip    *string
}

var addressDescriptor = Describe[AddressComponent]("inventory.AddressComponent",
	Field("Street", (*AddressComponent).Street, (*AddressComponent).SetStreet).Persistent().Required(),
	Field("City", (*AddressComponent).City, (*AddressComponent).SetCity).Persistent().Upper(),
	NullableField("Zip", (*AddressComponent).Zip, (*AddressComponent).SetZip).Persistent().Nullable(),
)

func (a *AddressComponent) Descriptor() *Descriptor { return addressDescriptor }
func (a *AddressComponent) Street() string          { return a.street }
func (a *AddressComponent) City() string            { return a.city }
func (a *AddressComponent) Zip() *string            { return a.zip }

func (a *AddressComponent) SetStreet(v string) { SetField(a, "Street", &a.street, v) }
func (a *AddressComponent) SetCity(v string)   { SetField(a, "City", &a.city, v) }

func (a *AddressComponent) SetZip(v *string) {
	old := a.zip
	if (old == nil && v == nil) || (old != nil && v != nil && *old == *v) {
		return
	}
	a.zip = v
	a.Modified("Zip", old, v)
}

const createAddressTable = `CREATE TABLE "Address" (
    entity_id INTEGER PRIMARY KEY,
    "Street" TEXT,
    "City" TEXT,
    "Zip" TEXT
)`

// TagComponent has no persistent properties.
type TagComponent struct {
	Base
	label    string
	disposed int
}

var tagDescriptor = Describe[TagComponent]("inventory.TagComponent",
	Field("Label", (*TagComponent).Label, (*TagComponent).SetLabel).Lower(),
)

func (c *TagComponent) Descriptor() *Descriptor { return tagDescriptor }
func (c *TagComponent) Label() string           { return c.label }
func (c *TagComponent) SetLabel(v string)       { SetField(c, "Label", &c.label, v) }
func (c *TagComponent) Dispose()                { c.disposed++ }

// ContactComponent has two validated, blank-forbidden properties.
type ContactComponent struct {
	Base
	first string
	last  string
}

var contactDescriptor = Describe[ContactComponent]("inventory.ContactComponent",
	Field("First", (*ContactComponent).First, (*ContactComponent).SetFirst).Required(),
	Field("Last", (*ContactComponent).Last, (*ContactComponent).SetLast).Required(),
)

func (c *ContactComponent) Descriptor() *Descriptor { return contactDescriptor }
func (c *ContactComponent) First() string           { return c.first }
func (c *ContactComponent) Last() string            { return c.last }
func (c *ContactComponent) SetFirst(v string)       { SetField(c, "First", &c.first, v) }
func (c *ContactComponent) SetLast(v string)        { SetField(c, "Last", &c.last, v) }

// GuardedComponent implements every optional component hook.
type GuardedComponent struct {
	Base
	code    string
	locked  bool
	seen    []string
	errs    []error
	invalid []string
	ticks   int
	failing error
}

var guardedDescriptor = Describe[GuardedComponent]("inventory.GuardedComponent",
	Field("Code", (*GuardedComponent).Code, (*GuardedComponent).SetCode).Required(),
)

func (c *GuardedComponent) Descriptor() *Descriptor { return guardedDescriptor }
func (c *GuardedComponent) Code() string            { return c.code }
func (c *GuardedComponent) SetCode(v string)        { SetField(c, "Code", &c.code, v) }

func (c *GuardedComponent) AllowChange(property string, old, value any) bool { return !c.locked }
func (c *GuardedComponent) PropertyChanged(property string, value any) {
	c.seen = append(c.seen, property)
}
func (c *GuardedComponent) ComponentError(err error) { c.errs = append(c.errs, err) }
func (c *GuardedComponent) ValidationFailed(property, message string) {
	c.invalid = append(c.invalid, property+": "+message)
}
func (c *GuardedComponent) Update() error {
	c.ticks++
	return c.failing
}

// UnknownComponent is never registered as a component kind.
type UnknownComponent struct {
	Base
}

var unknownDescriptor = Describe[UnknownComponent]("inventory.UnknownComponent")

func (c *UnknownComponent) Descriptor() *Descriptor { return unknownDescriptor }

// countingStore records the round trips made through it.
type countingStore struct {
	types.Store

	queries int
	applies int
	tables  []string
	added   map[string]int
	deleted map[string]int
}

func newCountingStore(s types.Store) *countingStore {
	cs := &countingStore{Store: s}
	cs.reset()
	return cs
}

func (s *countingStore) reset() {
	s.queries = 0
	s.applies = 0
	s.tables = nil
	s.added = make(map[string]int)
	s.deleted = make(map[string]int)
}

func (s *countingStore) Query(query string, args ...any) (*types.RowSet, error) {
	s.queries++
	return s.Store.Query(query, args...)
}

func (s *countingStore) Apply(rows *types.RowSet, table string) error {
	s.applies++
	s.tables = append(s.tables, table)
	s.added[table] += rows.Count(types.RowAdded)
	s.deleted[table] += rows.Count(types.RowDeleted)
	return s.Store.Apply(rows, table)
}

func (s *countingStore) roundTrips() int {
	return s.queries + s.applies
}

// failingStore fails every call.
type failingStore struct{}

var errStoreDown = errors.New("store is down")

func (failingStore) Query(string, ...any) (*types.RowSet, error) { return nil, errStoreDown }
func (failingStore) Apply(*types.RowSet, string) error            { return errStoreDown }
func (failingStore) NextEntityID() (int64, error)                { return 0, errStoreDown }

// fixedIDStore hands out the same entity id every time.
type fixedIDStore struct {
	types.Store
	id int64
}

func (s fixedIDStore) NextEntityID() (int64, error) { return s.id, nil }

type fixture struct {
	backend types.Backend
	store   *countingStore
	rt      *Runtime
	manager *Manager
	kinds   map[string]int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	b := sqlite.NewBackend(zap.NewNop())
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })

	require.NoError(t, b.Exec(createAddressTable))

	kinds := make(map[string]int64)
	for _, d := range []*Descriptor{addressDescriptor, tagDescriptor, contactDescriptor, guardedDescriptor} {
		id, err := b.RegisterKind(d.Class)
		require.NoError(t, err)
		kinds[d.Class] = id
	}

	catalog := NewCatalog()
	catalog.MustRegister(addressDescriptor, tagDescriptor, contactDescriptor, guardedDescriptor)

	store := newCountingStore(b)
	rt := NewRuntime(store, WithCatalog(catalog))
	return &fixture{
		backend: b,
		store:   store,
		rt:      rt,
		manager: NewManager(rt),
		kinds:   kinds,
	}
}

// recorder is an entity subscriber that records what it receives.
type recorder struct {
	changes []string
	errors  []string
	events  []EventKind
}

func (r *recorder) OnEntityComponentChanged(c Component, property string, value any) {
	r.changes = append(r.changes, c.Descriptor().TypeName+"."+property)
}

func (r *recorder) OnEntityError(message string) {
	r.errors = append(r.errors, message)
}

func (r *recorder) OnEntityEvent(ev Event) {
	r.events = append(r.events, ev.Kind)
}

func (r *recorder) count(kind EventKind) int {
	n := 0
	for _, k := range r.events {
		if k == kind {
			n++
		}
	}
	return n
}

// propertyRecorder is a component subscriber.
type propertyRecorder struct {
	properties []string
}

func (p *propertyRecorder) OnComponentChanged(property string, value any) {
	p.properties = append(p.properties, property)
}

func strPtr(s string) *string { return &s }
