package datalus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/datalus/pkg/types"
)

// NoteComponent persists to a table without a primary key.
type NoteComponent struct {
	Base
	text string
}

var noteDescriptor = Describe[NoteComponent]("inventory.NoteComponent",
	Field("Text", (*NoteComponent).Text, (*NoteComponent).SetText).Persistent().NoTrim(),
)

func (c *NoteComponent) Descriptor() *Descriptor { return noteDescriptor }
func (c *NoteComponent) Text() string            { return c.text }
func (c *NoteComponent) SetText(v string)        { SetField(c, "Text", &c.text, v) }

func savedEntity(t *testing.T, f *fixture) *Entity {
	t.Helper()
	e := f.manager.Create()
	require.NoError(t, e.SaveData(false))
	return e
}

func TestComponentWithoutPersistentPropertiesSkipsStore(t *testing.T) {
	f := newFixture(t)
	e := savedEntity(t, f)
	tag := Add[TagComponent](e)
	tag.SetLabel("x")

	f.store.reset()
	require.NoError(t, SaveComponent(tag, true))
	require.NoError(t, LoadComponent(tag, e))
	assert.Zero(t, f.store.roundTrips())
	assert.False(t, tag.IsModified())
}

func TestValidateComponent_StopsAtFirstFailure(t *testing.T) {
	f := newFixture(t)
	e := f.manager.Create()
	contact := Add[ContactComponent](e)
	rec := &recorder{}
	e.Notifier().Subscribe(rec)

	err := ValidateComponent(contact)
	require.Error(t, err)

	var verr *types.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "First", verr.Property)
	assert.Equal(t, "First cannot be blank.", verr.Message)
	assert.Equal(t, "Contact", contactDescriptor.Table)
	assert.Contains(t, err.Error(), "ContactComponent: ")
	assert.Len(t, rec.errors, 1, "only the first failure is reported")
}

func TestValidateComponent_Rules(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(a *AddressComponent)
		wantErr string
	}{
		{
			name:    "blank street",
			setup:   func(a *AddressComponent) { a.SetStreet("   ") },
			wantErr: "Street cannot be blank.",
		},
		{
			name:  "blank city allowed",
			setup: func(a *AddressComponent) { a.SetStreet("1 Main St") },
		},
		{
			name:  "null zip allowed",
			setup: func(a *AddressComponent) { a.SetStreet("1 Main St"); a.SetZip(nil) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &AddressComponent{}
			tt.setup(a)
			err := ValidateComponent(a)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, types.IsValidationError(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateComponent_NullForbidden(t *testing.T) {
	d := Describe[AddressComponent]("test.StrictAddressComponent",
		NullableField("Zip", (*AddressComponent).Zip, (*AddressComponent).SetZip).Validatable(),
	)
	p, ok := d.Property("Zip")
	require.True(t, ok)
	assert.Equal(t, "Zip cannot be null.", checkProperty(p, nil))
	assert.Empty(t, checkProperty(p, "90210"))
}

func TestValidateComponent_Hooks(t *testing.T) {
	g := &GuardedComponent{}
	err := ValidateComponent(g)
	require.Error(t, err)
	assert.Equal(t, []string{"Code: Code cannot be blank."}, g.invalid)
	require.Len(t, g.errs, 1)
	assert.True(t, types.IsValidationError(g.errs[0]))
}

func TestFormatComponent(t *testing.T) {
	a := &AddressComponent{}
	a.SetStreet("  1 Main St  ")
	a.SetCity(" boston ")
	a.SetZip(strPtr(" 02101 "))
	FormatComponent(a)
	assert.Equal(t, "1 Main St", a.Street())
	assert.Equal(t, "BOSTON", a.City())
	assert.Equal(t, "02101", *a.Zip())

	n := &NoteComponent{}
	n.SetText("  keep me  ")
	FormatComponent(n)
	assert.Equal(t, "  keep me  ", n.Text(), "NoTrim keeps whitespace")
}

func TestFormatComponent_SignalsChanges(t *testing.T) {
	f := newFixture(t)
	e := f.manager.Create()
	tag := Add[TagComponent](e)
	tag.SetLabel("ABC")
	rec := &recorder{}
	e.Notifier().Subscribe(rec)

	FormatComponent(tag)
	assert.Equal(t, []string{"TagComponent.Label"}, rec.changes)

	FormatComponent(tag)
	assert.Len(t, rec.changes, 1, "formatting a formatted value changes nothing")
}

func TestLoadComponent_MissingRowKeepsDefaults(t *testing.T) {
	f := newFixture(t)
	e := savedEntity(t, f)
	a := &AddressComponent{street: "default"}

	require.NoError(t, LoadComponent(a, e))
	assert.Equal(t, "default", a.Street())
	assert.Same(t, e, a.Entity())
	assert.False(t, a.IsModified())
}

func TestLoadComponent_StoreFailure(t *testing.T) {
	f := newFixture(t)
	e := savedEntity(t, f)
	rec := &recorder{}
	e.Notifier().Subscribe(rec)
	e.rt.Store = failingStore{}

	err := LoadComponent(&AddressComponent{}, e)
	require.Error(t, err)
	assert.True(t, types.IsStoreError(err))
	assert.Contains(t, err.Error(), "AddressComponent: ")
	assert.Len(t, rec.errors, 1)
}

func TestSaveComponent_WritesOnlyChanges(t *testing.T) {
	f := newFixture(t)
	e := savedEntity(t, f)
	a := Add[AddressComponent](e)
	a.SetStreet("1 Main St")
	a.SetCity("Boston")

	f.store.reset()
	require.NoError(t, SaveComponent(a, true))
	assert.Equal(t, 1, f.store.added["Address"], "missing row is inserted")

	f.store.reset()
	require.NoError(t, SaveComponent(a, true))
	assert.Zero(t, f.store.applies, "unchanged row is not written")

	require.NoError(t, f.backend.Exec(`UPDATE "Address" SET "City" = 'untouched' WHERE entity_id = ?`, e.ID()))
	a.SetStreet("2 Main St")
	a.SetCity("Boston")
	f.store.reset()

	// Without validation nothing is formatted, and City is compared with
	// the stored value rather than the last saved one.
	require.NoError(t, SaveComponent(a, false))
	assert.Equal(t, 1, f.store.applies)
	rs, err := f.backend.Query(`SELECT "Street", "City" FROM "Address" WHERE entity_id = ?`, e.ID())
	require.NoError(t, err)
	assert.Equal(t, "2 Main St", rs.Rows()[0].Get("Street"))
	assert.Equal(t, "Boston", rs.Rows()[0].Get("City"))
}

func TestSaveComponent_RequiresSavedEntity(t *testing.T) {
	f := newFixture(t)

	err := SaveComponent(&AddressComponent{}, false)
	assert.ErrorIs(t, err, types.ErrNotAttached)

	e := f.manager.Create()
	a := Add[AddressComponent](e)
	assert.ErrorIs(t, SaveComponent(a, false), types.ErrUnsavedEntity)
}

func TestSaveComponent_IntegrityViolation(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.backend.Exec(`CREATE TABLE "Note" (entity_id INTEGER, "Text" TEXT)`))
	e := savedEntity(t, f)
	for i := 0; i < 2; i++ {
		require.NoError(t, f.backend.Exec(`INSERT INTO "Note" VALUES (?, 'dup')`, e.ID()))
	}

	n := &NoteComponent{}
	require.NoError(t, e.Attach(n))
	err := SaveComponent(n, false)
	require.Error(t, err)
	assert.True(t, types.IsIntegrityError(err))
}

func TestSetField(t *testing.T) {
	g := &GuardedComponent{}

	assert.True(t, SetField(g, "Code", &g.code, "A"))
	assert.False(t, SetField(g, "Code", &g.code, "A"), "equal value is a no-op")
	assert.Equal(t, []string{"Code"}, g.seen)
	assert.True(t, g.IsModified())

	g.locked = true
	assert.False(t, SetField(g, "Code", &g.code, "B"), "guard vetoes the change")
	assert.Equal(t, "A", g.Code())
}

func TestComponentSubscriberReceivesOnlyItsType(t *testing.T) {
	f := newFixture(t)
	e := f.manager.Create()
	a := Add[AddressComponent](e)
	tag := Add[TagComponent](e)
	sub := &propertyRecorder{}
	require.True(t, SubscribeComponent[AddressComponent](e.Notifier(), sub))

	a.SetStreet("1 Main St")
	tag.SetLabel("x")
	assert.Equal(t, []string{"Street"}, sub.properties)
}
