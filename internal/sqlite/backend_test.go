// Tests for the SQLite backend.
package sqlite

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/datalus/pkg/types"
)

func attachedBackend(t *testing.T, cfg types.Config) *Backend {
	t.Helper()
	if cfg.Backend == "" {
		cfg.Backend = types.BackendSQLite
	}
	if cfg.DataDir == "" {
		cfg.DataDir = t.TempDir()
	}
	b := NewBackend()
	require.NoError(t, b.Attach(cfg))
	t.Cleanup(func() { b.Detach() })
	return b
}

func TestBackend_Attach(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := types.Config{Backend: types.BackendSQLite, DataDir: tmpDir}

	b := NewBackend()
	require.NoError(t, b.Attach(cfg))
	defer b.Detach()

	_, err := os.Stat(filepath.Join(tmpDir, DatabaseFile))
	assert.NoError(t, err, "database file should exist")

	assert.ErrorIs(t, b.Attach(cfg), types.ErrAlreadyAttached)
}

func TestBackend_AttachCreatesCoreTables(t *testing.T) {
	b := attachedBackend(t, types.Config{})

	for _, table := range types.CoreTableNames {
		rs, err := b.Query(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table)
		require.NoError(t, err)
		assert.Equal(t, 1, rs.Len(), "table %s should exist", table)
	}
}

func TestBackend_AttachRejectsInvalidConfig(t *testing.T) {
	b := NewBackend()
	err := b.Attach(types.Config{Backend: "postgres", DataDir: t.TempDir()})
	assert.ErrorIs(t, err, types.ErrBackendUnknown)
}

func TestBackend_Detach(t *testing.T) {
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))

	require.NoError(t, b.Detach())
	assert.NoError(t, b.Detach(), "second Detach should not error")

	_, err := b.Query("SELECT 1")
	assert.ErrorIs(t, err, types.ErrBackendDetached)
	_, err = b.NextEntityID()
	assert.ErrorIs(t, err, types.ErrBackendDetached)
}

func TestBackend_DataSurvivesReattach(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := types.Config{Backend: types.BackendSQLite, DataDir: tmpDir}

	b := NewBackend()
	require.NoError(t, b.Attach(cfg))
	id, err := b.RegisterKind("inventory.AddressComponent")
	require.NoError(t, err)
	require.NoError(t, b.Detach())

	b2 := NewBackend()
	require.NoError(t, b2.Attach(cfg))
	defer b2.Detach()

	kinds, err := b2.Kinds()
	require.NoError(t, err)
	assert.Equal(t, "inventory.AddressComponent", kinds[id])
}

func TestBackend_NextEntityID(t *testing.T) {
	tests := []struct {
		name  string
		floor int64
		ids   []int64
		want  int64
	}{
		{name: "empty uses default floor", want: types.DefaultEntityIDFloor + 1},
		{name: "empty uses configured floor", floor: 50, want: 51},
		{name: "one past max", ids: []int64{1001, 1007, 1003}, want: 1008},
		{name: "max below floor still wins", floor: 5000, ids: []int64{10}, want: 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := attachedBackend(t, types.Config{EntityIDFloor: tt.floor})
			for _, id := range tt.ids {
				require.NoError(t, b.Exec(`INSERT INTO entities (entity_id) VALUES (?)`, id))
			}
			got, err := b.NextEntityID()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBackend_Query(t *testing.T) {
	b := attachedBackend(t, types.Config{})
	require.NoError(t, b.Exec(`CREATE TABLE "Address" (entity_id INTEGER PRIMARY KEY, "Street" TEXT, "City" TEXT)`))
	require.NoError(t, b.Exec(`INSERT INTO "Address" VALUES (?, ?, ?)`, 1001, "Main St", "Springfield"))

	rs, err := b.Query(`SELECT "Street", "City" FROM "Address" WHERE entity_id = ?`, 1001)
	require.NoError(t, err)
	assert.Equal(t, []string{"Street", "City"}, rs.Columns)
	require.Equal(t, 1, rs.Len())
	assert.Equal(t, "Main St", rs.Rows()[0].Get("Street"))
	assert.Equal(t, types.RowUnchanged, rs.Rows()[0].State())

	rs, err = b.Query(`SELECT "Street" FROM "Address" WHERE entity_id = ?`, 9)
	require.NoError(t, err)
	assert.Equal(t, 0, rs.Len())
	assert.Equal(t, []string{"Street"}, rs.Columns)

	_, err = b.Query(`SELECT * FROM missing`)
	assert.Error(t, err)
}

func TestBackend_Apply(t *testing.T) {
	b := attachedBackend(t, types.Config{})
	require.NoError(t, b.Exec(`CREATE TABLE "Address" (entity_id INTEGER PRIMARY KEY, "Street" TEXT, "City" TEXT)`))
	require.NoError(t, b.Exec(`INSERT INTO "Address" VALUES (1, 'Old St', 'Keep'), (2, 'Gone', 'Gone')`))

	rs, err := b.Query(`SELECT entity_id, "Street", "City" FROM "Address" ORDER BY entity_id`)
	require.NoError(t, err)
	rs.SetKey("entity_id")

	rs.Find(int64(1)).Set("Street", "New St")
	rs.Delete(rs.Find(int64(2)))
	row := rs.NewRow()
	row.Set("entity_id", int64(3))
	row.Set("Street", "Third St")
	rs.Add(row)

	require.NoError(t, b.Apply(rs, "Address"))
	assert.False(t, rs.HasChanges(), "Apply accepts changes")

	check, err := b.Query(`SELECT entity_id, "Street", "City" FROM "Address" ORDER BY entity_id`)
	require.NoError(t, err)
	require.Equal(t, 2, check.Len())
	rows := check.Rows()
	assert.Equal(t, "New St", rows[0].Get("Street"))
	assert.Equal(t, "Keep", rows[0].Get("City"), "unchanged column is not rewritten")
	assert.Equal(t, int64(3), rows[1].Get("entity_id"))
	assert.Nil(t, rows[1].Get("City"))
}

type level int

func TestBackend_ApplyBindsTimesAndNamedTypes(t *testing.T) {
	b := attachedBackend(t, types.Config{})
	require.NoError(t, b.Exec(`CREATE TABLE "Stamp" (entity_id INTEGER PRIMARY KEY, "At" TEXT, "Level" INTEGER)`))

	at := time.Date(2024, 5, 6, 7, 8, 9, 123456789, time.FixedZone("", 3600))
	rs := types.NewRowSet("entity_id", "At", "Level").SetKey("entity_id")
	row := rs.NewRow()
	row.Set("entity_id", int64(1))
	row.Set("At", at)
	row.Set("Level", level(3))
	rs.Add(row)
	require.NoError(t, b.Apply(rs, "Stamp"))

	check, err := b.Query(`SELECT "At", "Level" FROM "Stamp" WHERE entity_id = 1`)
	require.NoError(t, err)
	require.Equal(t, 1, check.Len())
	assert.Equal(t, "2024-05-06T06:08:09.123456789Z", check.Rows()[0].Get("At"))
	assert.Equal(t, int64(3), check.Rows()[0].Get("Level"))
}

func TestBackend_ApplyIsAtomic(t *testing.T) {
	b := attachedBackend(t, types.Config{})

	rs := types.NewRowSet(types.EntityIDColumn).SetKey(types.EntityIDColumn)
	for _, id := range []int64{1001, 1001} {
		row := rs.NewRow()
		row.Set(types.EntityIDColumn, id)
		rs.Add(row)
	}

	require.Error(t, b.Apply(rs, types.EntitiesTable), "duplicate primary key")
	assert.True(t, rs.HasChanges(), "failed Apply keeps pending rows")

	check, err := b.Query(`SELECT entity_id FROM entities`)
	require.NoError(t, err)
	assert.Equal(t, 0, check.Len(), "first insert is rolled back")
}

func TestBackend_ApplyRequiresKeyForUpdates(t *testing.T) {
	b := attachedBackend(t, types.Config{})
	require.NoError(t, b.Exec(`INSERT INTO entities (entity_id) VALUES (1001)`))

	rs, err := b.Query(`SELECT entity_id FROM entities`)
	require.NoError(t, err)
	rs.Delete(rs.Rows()[0])

	assert.ErrorIs(t, b.Apply(rs, types.EntitiesTable), types.ErrNoKeyColumns)
}

func TestBackend_ApplyWithoutChanges(t *testing.T) {
	b := attachedBackend(t, types.Config{})
	assert.NoError(t, b.Apply(types.NewRowSet("x"), "does_not_matter"))
}

func TestBackend_RegisterKind(t *testing.T) {
	b := attachedBackend(t, types.Config{})

	first, err := b.RegisterKind("inventory.AddressComponent")
	require.NoError(t, err)
	second, err := b.RegisterKind("inventory.TagComponent")
	require.NoError(t, err)
	again, err := b.RegisterKind("  inventory.AddressComponent ")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, first, again, "registering a known class keeps its id")

	_, err = b.RegisterKind("   ")
	assert.ErrorIs(t, err, types.ErrInvalidClass)

	kinds, err := b.Kinds()
	require.NoError(t, err)
	assert.Equal(t, map[int64]string{
		first:  "inventory.AddressComponent",
		second: "inventory.TagComponent",
	}, kinds)
}
