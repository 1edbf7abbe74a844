package service

import (
	"context"
	"time"

	"github.com/spec-kit/support-core/internal/auth"
	"github.com/spec-kit/support-core/internal/config"
	"github.com/spec-kit/support-core/internal/domain"
	"github.com/spec-kit/support-core/internal/store"
	apperrors "github.com/spec-kit/support-core/pkg/util/errorutil"
)

// AuthService coordinates registration and login flows. It resolves the
// actor identity the rest of the service trusts.
type AuthService struct {
	customers  store.CustomerStore
	engineers  store.EngineerStore
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// AuthDependencies encapsulates store requirements for the auth service.
type AuthDependencies struct {
	CustomerStore store.CustomerStore
	EngineerStore store.EngineerStore
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		customers:  deps.CustomerStore,
		engineers:  deps.EngineerStore,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// RegisterCustomer creates a new customer account and logs it in.
func (s *AuthService) RegisterCustomer(ctx context.Context, name, email, password string) (*domain.Customer, string, time.Time, error) {
	if _, err := s.customers.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("email already registered", nil)
	} else if !apperrors.IsNotFound(err) {
		return nil, "", time.Time{}, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}

	customer := &domain.Customer{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokenMgr.GenerateToken(customer.ID, domain.SubjectTypeCustomer)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return customer, token, exp, nil
}

// LoginCustomer authenticates a customer.
func (s *AuthService) LoginCustomer(ctx context.Context, email, password string) (*domain.Customer, string, time.Time, error) {
	customer, err := s.customers.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if err := auth.ComparePassword(customer.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(customer.ID, domain.SubjectTypeCustomer)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return customer, token, exp, nil
}

// LoginEngineer authenticates an engineer. Engineers are provisioned rows,
// there is no self-registration for them.
func (s *AuthService) LoginEngineer(ctx context.Context, email, password string) (*domain.Engineer, string, time.Time, error) {
	engineer, err := s.engineers.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if !engineer.Active {
		return nil, "", time.Time{}, apperrors.NewForbidden("engineer account disabled")
	}
	if err := auth.ComparePassword(engineer.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(engineer.ID, domain.SubjectTypeEngineer)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return engineer, token, exp, nil
}
