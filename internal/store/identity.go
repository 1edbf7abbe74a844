package store

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/spec-kit/support-core/internal/clock"
	"github.com/spec-kit/support-core/internal/domain"
	apperrors "github.com/spec-kit/support-core/pkg/util/errorutil"
)

// CustomerStore defines persistence access for customers.
type CustomerStore interface {
	Create(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
}

// EngineerStore defines persistence access for engineers.
type EngineerStore interface {
	Create(ctx context.Context, engineer *domain.Engineer) error
	GetByID(ctx context.Context, id string) (*domain.Engineer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Engineer, error)
}

type memoryCustomerStore struct {
	mu    sync.RWMutex
	byID  map[string]domain.Customer
	clock clock.Clock
}

// NewMemoryCustomerStore returns an in-memory CustomerStore.
func NewMemoryCustomerStore(clk clock.Clock) CustomerStore {
	return &memoryCustomerStore{byID: make(map[string]domain.Customer), clock: clk}
}

func (s *memoryCustomerStore) Create(ctx context.Context, customer *domain.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(customer.Email)
	for id := range s.byID {
		if strings.ToLower(s.byID[id].Email) == email {
			return apperrors.NewConflict("email already registered", nil)
		}
	}
	if customer.ID == "" {
		customer.ID = uuid.NewString()
	}
	now := s.clock.Now()
	customer.CreatedAt = now
	customer.UpdatedAt = now
	s.byID[customer.ID] = *customer
	return nil
}

func (s *memoryCustomerStore) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	customer, ok := s.byID[id]
	if !ok {
		return nil, apperrors.NewNotFound("customer", map[string]any{"id": id})
	}
	return &customer, nil
}

func (s *memoryCustomerStore) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id := range s.byID {
		if strings.EqualFold(s.byID[id].Email, email) {
			customer := s.byID[id]
			return &customer, nil
		}
	}
	return nil, apperrors.NewNotFound("customer", map[string]any{"email": email})
}

type memoryEngineerStore struct {
	mu    sync.RWMutex
	byID  map[string]domain.Engineer
	clock clock.Clock
}

// NewMemoryEngineerStore returns an in-memory EngineerStore.
func NewMemoryEngineerStore(clk clock.Clock) EngineerStore {
	return &memoryEngineerStore{byID: make(map[string]domain.Engineer), clock: clk}
}

func (s *memoryEngineerStore) Create(ctx context.Context, engineer *domain.Engineer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(engineer.Email)
	for id := range s.byID {
		if strings.ToLower(s.byID[id].Email) == email {
			return apperrors.NewConflict("email already registered", nil)
		}
	}
	if engineer.ID == "" {
		engineer.ID = uuid.NewString()
	}
	now := s.clock.Now()
	engineer.CreatedAt = now
	engineer.UpdatedAt = now
	s.byID[engineer.ID] = *engineer
	return nil
}

func (s *memoryEngineerStore) GetByID(ctx context.Context, id string) (*domain.Engineer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	engineer, ok := s.byID[id]
	if !ok {
		return nil, apperrors.NewNotFound("engineer", map[string]any{"id": id})
	}
	return &engineer, nil
}

func (s *memoryEngineerStore) GetByEmail(ctx context.Context, email string) (*domain.Engineer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id := range s.byID {
		if strings.EqualFold(s.byID[id].Email, email) {
			engineer := s.byID[id]
			return &engineer, nil
		}
	}
	return nil, apperrors.NewNotFound("engineer", map[string]any{"email": email})
}
