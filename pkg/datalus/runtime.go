package datalus

import (
	"go.uber.org/zap"

	"github.com/mesh-intelligence/datalus/pkg/types"
)

// Runtime is the process-wide context shared by managers, entities and
// components. It is created once at startup and lives for the process.
type Runtime struct {
	Store      types.Store
	Catalog    *Catalog
	Kinds      *KindRegistry
	Entities   *EntityRegistry
	Sequence   *Sequence
	Managers   *ManagerRegistry
	Processors *ProcessorRegistry

	logger *zap.Logger
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(rt *Runtime) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

// WithCatalog sets the component catalog used to instantiate components by
// class name on load.
func WithCatalog(catalog *Catalog) Option {
	return func(rt *Runtime) {
		if catalog != nil {
			rt.Catalog = catalog
		}
	}
}

// WithSequence sets the runtime id allocator.
func WithSequence(seq *Sequence) Option {
	return func(rt *Runtime) {
		if seq != nil {
			rt.Sequence = seq
		}
	}
}

// NewRuntime creates a Runtime over store.
func NewRuntime(store types.Store, opts ...Option) *Runtime {
	rt := &Runtime{
		Store:      store,
		Catalog:    NewCatalog(),
		Sequence:   NewSequence(),
		Managers:   &ManagerRegistry{},
		Processors: &ProcessorRegistry{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	rt.Kinds = newKindRegistry(store, rt.logger)
	rt.Entities = newEntityRegistry(store)
	return rt
}

// Logger returns the runtime logger.
func (rt *Runtime) Logger() *zap.Logger {
	return rt.logger
}
