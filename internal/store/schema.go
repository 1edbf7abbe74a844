package store

import "time"

// Schema declares, per entity type, the field accessors, mutators, indexes
// and uniqueness invariants a store implementation needs. The set is fixed
// up front; stores reject names outside it.
type Schema[E any] struct {
	// Name is the entity name used in error messages ("ticket", "rating").
	Name string

	ID    func(*E) string
	SetID func(*E, string)

	// Get reads a named field for precondition matching. Accessors return
	// comparable values (pointer fields are normalized by the schema).
	Get map[string]func(*E) any

	// Set writes a named field. Only fields listed here are mutable
	// through ConditionalUpdate.
	Set map[string]func(*E, any) error

	// Indexes maps index name to key extractor for non-unique lookups.
	Indexes map[string]func(*E) string

	// Unique maps invariant name to key extractor; an empty key exempts
	// the entity from that invariant.
	Unique map[string]func(*E) string

	SetCreatedAt func(*E, time.Time)
	SetUpdatedAt func(*E, time.Time)
}

// HasIndex reports whether the schema declares the named index.
func (s Schema[E]) HasIndex(name string) bool {
	_, ok := s.Indexes[name]
	return ok
}
