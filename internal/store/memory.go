package store

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/spec-kit/support-core/internal/clock"
	apperrors "github.com/spec-kit/support-core/pkg/util/errorutil"
)

// Memory is a schema-driven in-memory Store. A single mutex serializes all
// mutation, which gives ConditionalUpdate the required total order per id.
// It backs the service when no Postgres DSN is configured, and every test.
type Memory[E any] struct {
	mu     sync.RWMutex
	schema Schema[E]
	items  map[string]E
	clock  clock.Clock
}

// NewMemory constructs an empty store for the given schema.
func NewMemory[E any](schema Schema[E], clk clock.Clock) *Memory[E] {
	return &Memory[E]{
		schema: schema,
		items:  make(map[string]E),
		clock:  clk,
	}
}

func (m *Memory[E]) Create(ctx context.Context, entity *E) (*E, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.schema.ID(entity) == "" {
		m.schema.SetID(entity, uuid.NewString())
	}
	id := m.schema.ID(entity)
	if _, exists := m.items[id]; exists {
		return nil, apperrors.NewConflict(fmt.Sprintf("%s already exists", m.schema.Name), map[string]any{"id": id})
	}
	for name, keyOf := range m.schema.Unique {
		key := keyOf(entity)
		if key == "" {
			continue
		}
		for existingID := range m.items {
			existing := m.items[existingID]
			if keyOf(&existing) == key {
				return nil, apperrors.NewConflict(
					fmt.Sprintf("%s violates unique %s", m.schema.Name, name),
					map[string]any{name: key},
				)
			}
		}
	}

	now := m.clock.Now()
	if m.schema.SetCreatedAt != nil {
		m.schema.SetCreatedAt(entity, now)
	}
	if m.schema.SetUpdatedAt != nil {
		m.schema.SetUpdatedAt(entity, now)
	}
	m.items[id] = *entity
	stored := m.items[id]
	return &stored, nil
}

func (m *Memory[E]) GetByID(ctx context.Context, id string) (*E, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.items[id]
	if !ok {
		return nil, apperrors.NewNotFound(m.schema.Name, map[string]any{"id": id})
	}
	return &item, nil
}

func (m *Memory[E]) GetByIDs(ctx context.Context, ids []string) ([]*E, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*E, 0, len(ids))
	for _, id := range ids {
		if item, ok := m.items[id]; ok {
			entity := item
			result = append(result, &entity)
		}
	}
	return result, nil
}

func (m *Memory[E]) GetByIndex(ctx context.Context, index, value string) ([]*E, error) {
	keyOf, ok := m.schema.Indexes[index]
	if !ok {
		return nil, apperrors.NewInternalError(fmt.Errorf("unknown index %q on %s", index, m.schema.Name))
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0)
	for id := range m.items {
		item := m.items[id]
		if keyOf(&item) == value {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	result := make([]*E, 0, len(ids))
	for _, id := range ids {
		item := m.items[id]
		result = append(result, &item)
	}
	return result, nil
}

func (m *Memory[E]) ConditionalUpdate(ctx context.Context, id string, expected, update Fields) (*E, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[id]
	if !ok {
		return nil, apperrors.NewNotFound(m.schema.Name, map[string]any{"id": id})
	}

	for name, want := range expected {
		get, ok := m.schema.Get[name]
		if !ok {
			return nil, apperrors.NewInternalError(fmt.Errorf("unknown field %q on %s", name, m.schema.Name))
		}
		if !FieldEqual(get(&item), want) {
			return nil, apperrors.NewPreconditionFailed(
				fmt.Sprintf("%s state changed", m.schema.Name),
				map[string]any{"id": id, "field": name},
			)
		}
	}

	for name, value := range update {
		set, ok := m.schema.Set[name]
		if !ok {
			return nil, apperrors.NewInternalError(fmt.Errorf("field %q on %s is not mutable", name, m.schema.Name))
		}
		if err := set(&item, value); err != nil {
			return nil, apperrors.NewInternalError(err)
		}
	}
	if m.schema.SetUpdatedAt != nil {
		m.schema.SetUpdatedAt(&item, m.clock.Now())
	}

	m.items[id] = item
	stored := m.items[id]
	return &stored, nil
}

func (m *Memory[E]) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]E)
	return nil
}

// FieldEqual compares a stored field value against an expected one,
// treating nil and typed-nil pointers as equal. Store implementations share
// it so precondition matching behaves identically everywhere.
func FieldEqual(have, want any) bool {
	if have == nil || want == nil {
		return isNil(have) && isNil(want)
	}
	return reflect.DeepEqual(have, want)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
