package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-core/internal/domain"
	apperrors "github.com/spec-kit/support-core/pkg/util/errorutil"
)

// RequireCustomer ensures a customer is authenticated.
func RequireCustomer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.SubjectType != domain.SubjectTypeCustomer || principal.Customer == nil {
			return apperrors.NewForbidden("customer required")
		}
		return c.Next()
	}
}

// RequireEngineer ensures an engineer is authenticated.
func RequireEngineer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.SubjectType != domain.SubjectTypeEngineer || principal.Engineer == nil {
			return apperrors.NewForbidden("engineer required")
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures the caller is a known customer or engineer.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
