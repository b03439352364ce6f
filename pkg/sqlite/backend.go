// Package sqlite provides the public API for the SQLite datalus backend.
// This package exposes the factory function for creating SQLite backends
// while keeping implementation details internal.
package sqlite

import (
	"go.uber.org/zap"

	"github.com/mesh-intelligence/datalus/internal/sqlite"
	"github.com/mesh-intelligence/datalus/pkg/types"
)

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	backend := sqlite.NewBackend(zap.NewExample())
//	err := backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".datalus",
//	})
//	defer backend.Detach()
func NewBackend(logger *zap.Logger) types.Backend {
	return sqlite.NewBackend(sqlite.WithLogger(logger))
}
