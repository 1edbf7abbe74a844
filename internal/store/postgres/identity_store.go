package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-core/internal/domain"
	apperrors "github.com/spec-kit/support-core/pkg/util/errorutil"
)

// CustomerStore is the Postgres-backed customer store.
type CustomerStore struct {
	pool *pgxpool.Pool
}

// NewCustomerStore instantiates the store.
func NewCustomerStore(pool *pgxpool.Pool) *CustomerStore {
	return &CustomerStore{pool: pool}
}

func (s *CustomerStore) Create(ctx context.Context, customer *domain.Customer) error {
	if customer.ID == "" {
		customer.ID = uuid.NewString()
	}
	const query = `
        INSERT INTO customers (id, name, email, password_hash)
        VALUES ($1,$2,$3,$4)
        RETURNING created_at, updated_at`
	err := s.pool.QueryRow(ctx, query,
		customer.ID,
		customer.Name,
		customer.Email,
		customer.PasswordHash,
	).Scan(&customer.CreatedAt, &customer.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflict("email already registered", nil)
		}
		return apperrors.NewInternalError(err)
	}
	return nil
}

func (s *CustomerStore) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	const query = `
        SELECT id, name, email, password_hash, created_at, updated_at
        FROM customers WHERE id=$1`
	return s.fetchCustomer(ctx, query, id)
}

func (s *CustomerStore) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	const query = `
        SELECT id, name, email, password_hash, created_at, updated_at
        FROM customers WHERE LOWER(email)=LOWER($1)`
	return s.fetchCustomer(ctx, query, email)
}

func (s *CustomerStore) fetchCustomer(ctx context.Context, query string, arg any) (*domain.Customer, error) {
	var customer domain.Customer
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
		&customer.PasswordHash,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("customer", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return &customer, nil
}

// EngineerStore is the Postgres-backed engineer store.
type EngineerStore struct {
	pool *pgxpool.Pool
}

// NewEngineerStore instantiates the store.
func NewEngineerStore(pool *pgxpool.Pool) *EngineerStore {
	return &EngineerStore{pool: pool}
}

func (s *EngineerStore) Create(ctx context.Context, engineer *domain.Engineer) error {
	if engineer.ID == "" {
		engineer.ID = uuid.NewString()
	}
	const query = `
        INSERT INTO engineers (id, name, email, password_hash, active)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING created_at, updated_at`
	err := s.pool.QueryRow(ctx, query,
		engineer.ID,
		engineer.Name,
		engineer.Email,
		engineer.PasswordHash,
		engineer.Active,
	).Scan(&engineer.CreatedAt, &engineer.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflict("email already registered", nil)
		}
		return apperrors.NewInternalError(err)
	}
	return nil
}

func (s *EngineerStore) GetByID(ctx context.Context, id string) (*domain.Engineer, error) {
	const query = `
        SELECT id, name, email, password_hash, active, created_at, updated_at
        FROM engineers WHERE id=$1`
	return s.fetchEngineer(ctx, query, id)
}

func (s *EngineerStore) GetByEmail(ctx context.Context, email string) (*domain.Engineer, error) {
	const query = `
        SELECT id, name, email, password_hash, active, created_at, updated_at
        FROM engineers WHERE LOWER(email)=LOWER($1)`
	return s.fetchEngineer(ctx, query, email)
}

func (s *EngineerStore) fetchEngineer(ctx context.Context, query string, arg any) (*domain.Engineer, error) {
	var engineer domain.Engineer
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&engineer.ID,
		&engineer.Name,
		&engineer.Email,
		&engineer.PasswordHash,
		&engineer.Active,
		&engineer.CreatedAt,
		&engineer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("engineer", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return &engineer, nil
}
