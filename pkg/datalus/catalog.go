package datalus

import (
	"fmt"
	"maps"
	"slices"

	"github.com/mesh-intelligence/datalus/pkg/types"
)

// Catalog maps stored component class names to component descriptors. It is
// populated at startup and consulted when an entity loads its components.
type Catalog struct {
	byClass map[string]*Descriptor
}

// NewCatalog returns an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{byClass: make(map[string]*Descriptor)}
}

// Register adds descriptors to the catalog. Registering the same descriptor
// twice is a no-op; registering a different descriptor under a class that
// is already taken returns ErrDuplicateClass.
func (c *Catalog) Register(descs ...*Descriptor) error {
	for _, d := range descs {
		if d == nil || d.Class == "" {
			return types.ErrInvalidClass
		}
		if prev, ok := c.byClass[d.Class]; ok {
			if prev == d {
				continue
			}
			return fmt.Errorf("%w: %s", types.ErrDuplicateClass, d.Class)
		}
		c.byClass[d.Class] = d
	}
	return nil
}

// MustRegister is Register that panics on error.
func (c *Catalog) MustRegister(descs ...*Descriptor) {
	if err := c.Register(descs...); err != nil {
		panic(err)
	}
}

// Lookup returns the descriptor registered for class.
func (c *Catalog) Lookup(class string) (*Descriptor, bool) {
	d, ok := c.byClass[class]
	return d, ok
}

// Classes returns the registered class names in sorted order.
func (c *Catalog) Classes() []string {
	return slices.Sorted(maps.Keys(c.byClass))
}
