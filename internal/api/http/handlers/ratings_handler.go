package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-core/internal/api/dto"
	"github.com/spec-kit/support-core/internal/auth"
	"github.com/spec-kit/support-core/internal/domain"
	"github.com/spec-kit/support-core/internal/service"
	apperrors "github.com/spec-kit/support-core/pkg/util/errorutil"
)

// RatingsHandler manages rating endpoints.
type RatingsHandler struct {
	service *service.RatingService
}

// NewRatingsHandler constructs handler.
func NewRatingsHandler(ratingService *service.RatingService) *RatingsHandler {
	return &RatingsHandler{service: ratingService}
}

// CreateRating POST /ratings.
func (h *RatingsHandler) CreateRating(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return apperrors.NewUnauthorized("customer required")
	}
	var req dto.CreateRatingRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if details := dto.Validate(req); details != nil {
		return apperrors.NewValidationError("invalid payload", details)
	}

	rating, err := h.service.CreateRating(c.Context(), principal.Customer.ID, service.RatingCreateInput{
		TicketID: req.TicketID,
		Rating:   req.Rating,
		Notes:    req.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ratingResponse(rating)})
}

// UpdateRating PATCH /ratings/:id.
func (h *RatingsHandler) UpdateRating(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return apperrors.NewUnauthorized("customer required")
	}
	var req dto.UpdateRatingRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if details := dto.Validate(req); details != nil {
		return apperrors.NewValidationError("invalid payload", details)
	}

	rating, err := h.service.UpdateRating(c.Context(), principal.Customer.ID, c.Params("id"), service.RatingUpdateInput{
		Rating: req.Rating,
		Notes:  req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ratingResponse(rating)})
}

// GetTicketRating GET /tickets/:id/rating.
func (h *RatingsHandler) GetTicketRating(c *fiber.Ctx) error {
	rating, err := h.service.GetByTicket(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ratingResponse(rating)})
}

// ListMyRatings GET /ratings. Customers see ratings they authored,
// engineers see ratings they received.
func (h *RatingsHandler) ListMyRatings(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var (
		ratings []*domain.Rating
		err     error
	)
	switch {
	case principal.Customer != nil:
		ratings, err = h.service.ListByCustomer(c.Context(), principal.Customer.ID)
	case principal.Engineer != nil:
		ratings, err = h.service.ListForEngineer(c.Context(), principal.Engineer.ID)
	default:
		return apperrors.NewUnauthorized("authentication required")
	}
	if err != nil {
		return err
	}

	items := make([]dto.RatingResponse, 0, len(ratings))
	for _, rating := range ratings {
		items = append(items, ratingResponse(rating))
	}
	return c.JSON(fiber.Map{"data": items})
}

func ratingResponse(rating *domain.Rating) dto.RatingResponse {
	return dto.RatingResponse{
		ID:          rating.ID,
		TicketID:    rating.TicketID,
		RatedUserID: rating.RatedUserID,
		CreatedBy:   rating.CreatedBy,
		Rating:      rating.Rating,
		Notes:       rating.Notes,
		CreatedAt:   rating.CreatedAt,
		UpdatedAt:   rating.UpdatedAt,
	}
}
