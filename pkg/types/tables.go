package types

// Core relation names and their columns.
const (
	EntitiesTable         = "entities"
	EntityComponentsTable = "entity_components"
	ComponentKindsTable   = "component_kinds"

	EntityIDColumn = "entity_id"
	KindIDColumn   = "kind_id"
	ClassColumn    = "class"
)

// CoreTableNames lists the core relations for enumeration.
var CoreTableNames = []string{
	EntitiesTable,
	EntityComponentsTable,
	ComponentKindsTable,
}

// Sentinel identities.
const (
	// UnassignedID is the persisted id of an entity that has never been saved.
	UnassignedID int64 = -1

	// KindNotFound is returned when a component class has no kind id.
	KindNotFound int64 = -1
)
