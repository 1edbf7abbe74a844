package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-core/internal/auth"
	"github.com/spec-kit/support-core/internal/clock"
	"github.com/spec-kit/support-core/internal/config"
	"github.com/spec-kit/support-core/internal/domain"
	"github.com/spec-kit/support-core/internal/store"
	apperrors "github.com/spec-kit/support-core/pkg/util/errorutil"
)

func newAuthFixture(t *testing.T) (*AuthService, store.EngineerStore) {
	t.Helper()
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	engineers := store.NewMemoryEngineerStore(clk)

	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 30,
			BcryptCost:            4,
		},
	}
	svc := NewAuthService(cfg, AuthDependencies{
		CustomerStore: store.NewMemoryCustomerStore(clk),
		EngineerStore: engineers,
	})
	return svc, engineers
}

func TestAuthService_RegisterAndLoginCustomer(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	customer, token, exp, err := svc.RegisterCustomer(ctx, "Ada", "ada@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, customer.ID)
	assert.NotEmpty(t, token)
	assert.False(t, exp.IsZero())

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, customer.ID, claims.SubjectID)
	assert.Equal(t, domain.SubjectTypeCustomer, claims.Subject)

	_, _, _, err = svc.LoginCustomer(ctx, "ADA@example.com", "hunter2hunter2")
	assert.NoError(t, err)

	_, _, _, err = svc.LoginCustomer(ctx, "ada@example.com", "wrong")
	assert.Error(t, err)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	_, _, _, err := svc.RegisterCustomer(ctx, "Ada", "ada@example.com", "hunter2hunter2")
	require.NoError(t, err)

	_, _, _, err = svc.RegisterCustomer(ctx, "Other", "ada@example.com", "hunter2hunter2")
	assert.True(t, apperrors.IsConflict(err))
}

func TestAuthService_LoginEngineer(t *testing.T) {
	svc, engineers := newAuthFixture(t)
	ctx := context.Background()

	hash, err := auth.HashPassword("s3cr3tpass", 4)
	require.NoError(t, err)
	require.NoError(t, engineers.Create(ctx, &domain.Engineer{
		Name:         "Grace",
		Email:        "grace@example.com",
		PasswordHash: hash,
		Active:       true,
	}))

	engineer, token, _, err := svc.LoginEngineer(ctx, "grace@example.com", "s3cr3tpass")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, engineer.ID, claims.SubjectID)
	assert.Equal(t, domain.SubjectTypeEngineer, claims.Subject)
}

func TestAuthService_LoginDisabledEngineer(t *testing.T) {
	svc, engineers := newAuthFixture(t)
	ctx := context.Background()

	hash, err := auth.HashPassword("s3cr3tpass", 4)
	require.NoError(t, err)
	require.NoError(t, engineers.Create(ctx, &domain.Engineer{
		Name:         "Old",
		Email:        "old@example.com",
		PasswordHash: hash,
		Active:       false,
	}))

	_, _, _, err = svc.LoginEngineer(ctx, "old@example.com", "s3cr3tpass")
	assert.Error(t, err)
}

func TestAuthService_LoginUnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, _, _, err := svc.LoginCustomer(context.Background(), "nobody@example.com", "x")
	assert.Error(t, err)
	_, _, _, err = svc.LoginEngineer(context.Background(), "nobody@example.com", "x")
	assert.Error(t, err)
}
