package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-core/internal/api/dto"
	"github.com/spec-kit/support-core/internal/service"
	apperrors "github.com/spec-kit/support-core/pkg/util/errorutil"
)

// AuthHandler exposes registration and login endpoints for both subject
// kinds.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// RegisterCustomer handles POST /auth/customers/register.
func (h *AuthHandler) RegisterCustomer(c *fiber.Ctx) error {
	var req dto.CustomerRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if details := dto.Validate(req); details != nil {
		return apperrors.NewValidationError("invalid payload", details)
	}

	customer, token, exp, err := h.auth.RegisterCustomer(c.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"customer": fiber.Map{
				"id":    customer.ID,
				"name":  customer.Name,
				"email": customer.Email,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// LoginCustomer handles POST /auth/customers/login.
func (h *AuthHandler) LoginCustomer(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if details := dto.Validate(req); details != nil {
		return apperrors.NewValidationError("invalid payload", details)
	}

	customer, token, exp, err := h.auth.LoginCustomer(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"customer": fiber.Map{
				"id":    customer.ID,
				"name":  customer.Name,
				"email": customer.Email,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// LoginEngineer handles POST /auth/engineers/login.
func (h *AuthHandler) LoginEngineer(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if details := dto.Validate(req); details != nil {
		return apperrors.NewValidationError("invalid payload", details)
	}

	engineer, token, exp, err := h.auth.LoginEngineer(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"engineer": fiber.Map{
				"id":    engineer.ID,
				"name":  engineer.Name,
				"email": engineer.Email,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}
