package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-core/internal/domain"
	"github.com/spec-kit/support-core/internal/store"
	apperrors "github.com/spec-kit/support-core/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	SubjectType domain.SubjectType
	Customer    *domain.Customer
	Engineer    *domain.Engineer
}

// Actor converts the principal into the identity attached to manager calls.
func (p *Principal) Actor() domain.Actor {
	switch p.SubjectType {
	case domain.SubjectTypeCustomer:
		return domain.CustomerActor(p.Customer.ID)
	default:
		return domain.EngineerActor(p.Engineer.ID)
	}
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens    *TokenManager
	customers store.CustomerStore
	engineers store.EngineerStore
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, customers store.CustomerStore, engineers store.EngineerStore) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, customers: customers, engineers: engineers}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	principal := &Principal{SubjectType: claims.Subject}

	switch claims.Subject {
	case domain.SubjectTypeCustomer:
		customer, err := m.customers.GetByID(c.Context(), claims.SubjectID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return apperrors.NewUnauthorized("customer not found")
			}
			return apperrors.MapError(err)
		}
		principal.Customer = customer
	case domain.SubjectTypeEngineer:
		engineer, err := m.engineers.GetByID(c.Context(), claims.SubjectID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return apperrors.NewUnauthorized("engineer not found")
			}
			return apperrors.MapError(err)
		}
		if !engineer.Active {
			return apperrors.NewForbidden("engineer account disabled")
		}
		principal.Engineer = engineer
	default:
		return apperrors.NewUnauthorized("unknown subject")
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
