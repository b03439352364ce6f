// Shared helpers for datalus CLI commands.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mesh-intelligence/datalus/internal/sqlite"
	"github.com/mesh-intelligence/datalus/pkg/datalus"
	"github.com/mesh-intelligence/datalus/pkg/types"
)

// attachBackend builds the configuration, creates a SQLite backend and
// attaches it. The caller must defer backend.Detach().
func attachBackend() (*sqlite.Backend, types.Config, error) {
	cfg, err := backendConfig(settings)
	if err != nil {
		return nil, types.Config{}, err
	}

	backend := sqlite.NewBackend(sqlite.WithLogger(logger))
	if err := backend.Attach(cfg); err != nil {
		return nil, types.Config{}, fmt.Errorf("attach backend: %w", err)
	}
	return backend, cfg, nil
}

// newRuntime wraps an attached backend in a datalus runtime.
func newRuntime(backend types.Store) *datalus.Runtime {
	return datalus.NewRuntime(backend, datalus.WithLogger(logger))
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
