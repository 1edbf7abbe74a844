package store

import (
	"context"
)

// Fields is a partial view of an entity, keyed by declared field name. It
// carries the expected values of a conditional update's precondition and
// the new values it applies.
type Fields map[string]any

// Store is the durable keyed storage contract for one entity type. All
// mutation after creation flows through ConditionalUpdate, an atomic
// compare-and-set: new values apply only if every expected field still
// matches the persisted value, otherwise the call fails with
// PRECONDITION_FAILED. No external locking exists; per-id updates are
// totally ordered by the store.
type Store[E any] interface {
	// Create assigns an id when absent, persists the entity and returns
	// it. Violating a declared uniqueness invariant fails with CONFLICT.
	Create(ctx context.Context, entity *E) (*E, error)

	GetByID(ctx context.Context, id string) (*E, error)

	// GetByIDs is a batched lookup; absent ids are skipped.
	GetByIDs(ctx context.Context, ids []string) ([]*E, error)

	// GetByIndex queries one of the indexes declared up front for the
	// entity type. Unknown index names are an error, not an empty result.
	GetByIndex(ctx context.Context, index, value string) ([]*E, error)

	ConditionalUpdate(ctx context.Context, id string, expected, update Fields) (*E, error)

	// Clear wipes the store. Test and teardown contexts only.
	Clear(ctx context.Context) error
}
