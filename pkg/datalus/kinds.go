package datalus

import (
	"fmt"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/datalus/pkg/types"
)

var selectKinds = fmt.Sprintf("SELECT %s, %s FROM %s",
	types.KindIDColumn, types.ClassColumn, types.ComponentKindsTable)

// KindRegistry resolves component classes to their persisted kind ids. The
// lookup relation is read once, on first use; a failed read leaves the
// registry uninitialized and the next call tries again.
type KindRegistry struct {
	store  types.Store
	logger *zap.Logger

	initialized bool
	byClass     map[string]int64
	byKind      map[int64]string
}

func newKindRegistry(store types.Store, logger *zap.Logger) *KindRegistry {
	return &KindRegistry{store: store, logger: logger}
}

// Init loads the lookup relation if it has not been loaded yet.
func (k *KindRegistry) Init() error {
	if k.initialized {
		return nil
	}

	rs, err := k.store.Query(selectKinds)
	if err != nil {
		return types.NewStoreError("load component kinds", err)
	}

	byClass := make(map[string]int64, rs.Len())
	byKind := make(map[int64]string, rs.Len())
	for _, row := range rs.Rows() {
		id, err := cast.ToInt64E(row.Get(types.KindIDColumn))
		if err != nil {
			return fmt.Errorf("component kind id: %w", err)
		}
		class, err := cast.ToStringE(row.Get(types.ClassColumn))
		if err != nil {
			return fmt.Errorf("component kind %d class: %w", id, err)
		}
		byClass[class] = id
		byKind[id] = class
	}

	k.byClass = byClass
	k.byKind = byKind
	k.initialized = true
	k.logger.Debug("component kinds loaded", zap.Int("count", len(byClass)))
	return nil
}

// Initialized reports whether the lookup relation has been loaded.
func (k *KindRegistry) Initialized() bool {
	return k.initialized
}

// Resolve returns the kind id of class, or types.KindNotFound if the class
// is unknown or the registry could not be initialized.
func (k *KindRegistry) Resolve(class string) int64 {
	if err := k.Init(); err != nil {
		k.logger.Warn("component kinds unavailable", zap.Error(err))
		return types.KindNotFound
	}
	id, ok := k.byClass[class]
	if !ok {
		return types.KindNotFound
	}
	return id
}

// ClassName returns the class registered for kind.
func (k *KindRegistry) ClassName(kind int64) (string, bool) {
	if err := k.Init(); err != nil {
		k.logger.Warn("component kinds unavailable", zap.Error(err))
		return "", false
	}
	class, ok := k.byKind[kind]
	return class, ok
}

// Reload discards the cached relation and reads it again.
func (k *KindRegistry) Reload() error {
	k.initialized = false
	return k.Init()
}
