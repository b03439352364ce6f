package types

import "errors"

// Store is the relational collaborator the datalus core persists through.
// Each call is a complete round trip: the implementation acquires a session,
// runs one query or one change set, and releases the session before it
// returns.
type Store interface {
	// Query runs a read and returns its rows. The returned RowSet carries the
	// result columns and no key; callers that intend to Apply changes set
	// RowSet.Key first.
	Query(query string, args ...any) (*RowSet, error)

	// Apply persists the pending rows of rows (added, modified, deleted) to
	// the named table, matching existing rows by rows.Key. Modified rows
	// update only their changed columns.
	Apply(rows *RowSet, table string) error

	// NextEntityID returns one greater than the highest assigned entity id,
	// or the configured floor plus one when no entity exists yet.
	NextEntityID() (int64, error)
}

// Backend is a Store with an attach/detach lifecycle and the administrative
// operations used by tooling and tests.
type Backend interface {
	Store

	// Attach connects the backend described by config and creates the core
	// relations if they are missing. Returns ErrAlreadyAttached if called
	// while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, operations return ErrBackendDetached.
	Detach() error

	// Exec runs a statement that returns no rows, such as the DDL for a
	// component table.
	Exec(statement string, args ...any) error

	// RegisterKind records a component class in the kind lookup relation and
	// returns its kind id. Registering a known class returns the existing id.
	RegisterKind(class string) (int64, error)

	// Kinds returns the kind lookup relation as kind id to class name.
	Kinds() (map[int64]string, error)

	// Export writes every row of table to path as JSON lines and returns the
	// number of rows written.
	Export(table, path string) (int, error)
}

// Backend lifecycle errors.
var (
	ErrBackendDetached = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
	ErrTableNotFound   = errors.New("table not found")
	ErrInvalidClass    = errors.New("component class must not be empty")
	ErrNoKeyColumns    = errors.New("row set has no key columns")
)
