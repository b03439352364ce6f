package sqlite

// Core relations. Component tables are created by their owners through
// Backend.Exec.
const (
	createEntities = `CREATE TABLE IF NOT EXISTS entities (
    entity_id INTEGER PRIMARY KEY
);`

	createComponentKinds = `CREATE TABLE IF NOT EXISTS component_kinds (
    kind_id INTEGER PRIMARY KEY,
    class TEXT NOT NULL UNIQUE
);`

	createEntityComponents = `CREATE TABLE IF NOT EXISTS entity_components (
    entity_id INTEGER NOT NULL,
    kind_id INTEGER NOT NULL,
    PRIMARY KEY (entity_id, kind_id)
);`
)

const (
	idxEntityComponentsKind = `CREATE INDEX IF NOT EXISTS idx_entity_components_kind ON entity_components(kind_id);`
)

// schemaDDL lists the CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createEntities,
	createComponentKinds,
	createEntityComponents,
}

// indexDDL lists the CREATE INDEX statements.
var indexDDL = []string{
	idxEntityComponentsKind,
}

// pragmas are applied once on attach.
var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
}
