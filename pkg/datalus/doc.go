// Package datalus maps entities and their components onto relational tables
// and relays component changes to subscribers.
//
// An Entity owns at most one component per concrete type. Each component
// type publishes a static Descriptor that lists its properties and what the
// framework may do with them: format, validate, persist. Loading, saving,
// validation and formatting are driven entirely by those descriptors; there
// is no generated data-access code.
//
// All process-wide state lives in a Runtime: the store, the component
// catalog, the kind registry, the entity registry, the sequence allocator
// and the manager list. A Runtime and the entities built from it are not
// safe for concurrent use.
package datalus
