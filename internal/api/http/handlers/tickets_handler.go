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

// TicketsHandler manages the ticket lifecycle endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return apperrors.NewUnauthorized("customer required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if details := dto.Validate(req); details != nil {
		return apperrors.NewValidationError("invalid payload", details)
	}

	ticket, err := h.service.CreateTicket(c.Context(), principal.Customer.ID, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": h.ticketResponse(ticket)})
}

// ListTickets GET /tickets. Customers see their own tickets, engineers
// see their claimed ones.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var (
		tickets []*domain.Ticket
		err     error
	)
	switch {
	case principal.Customer != nil:
		tickets, err = h.service.ListCustomerTickets(c.Context(), principal.Customer.ID)
	case principal.Engineer != nil:
		tickets, err = h.service.ListEngineerTickets(c.Context(), principal.Engineer.ID)
	default:
		return apperrors.NewUnauthorized("authentication required")
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.ticketResponses(tickets)})
}

// Queue GET /tickets/queue lists unclaimed tickets for engineers.
func (h *TicketsHandler) Queue(c *fiber.Ctx) error {
	tickets, err := h.service.ListUnclaimedTickets(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.ticketResponses(tickets)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if principal.Customer != nil {
		ticket, err := h.service.GetTicketForCustomer(c.Context(), principal.Customer.ID, c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": h.ticketResponse(ticket)})
	}
	ticket, err := h.service.GetTicket(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.ticketResponse(ticket)})
}

// Claim POST /tickets/:id/claim. Exactly one concurrent caller wins.
func (h *TicketsHandler) Claim(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Engineer == nil {
		return apperrors.NewUnauthorized("engineer required")
	}
	ticket, err := h.service.Claim(c.Context(), c.Params("id"), principal.Engineer.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.ticketResponse(ticket)})
}

// MarkAwaitingConfirmation POST /tickets/:id/awaiting-confirmation.
func (h *TicketsHandler) MarkAwaitingConfirmation(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Engineer == nil {
		return apperrors.NewUnauthorized("engineer required")
	}
	ticket, err := h.service.MarkAwaitingConfirmation(c.Context(), c.Params("id"), principal.Engineer.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.ticketResponse(ticket)})
}

// ConfirmCompletion POST /tickets/:id/confirm.
func (h *TicketsHandler) ConfirmCompletion(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return apperrors.NewUnauthorized("customer required")
	}
	ticket, err := h.service.ConfirmCompletion(c.Context(), c.Params("id"), principal.Customer.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.ticketResponse(ticket)})
}

// MarkPendingPayment POST /tickets/:id/pending-payment.
func (h *TicketsHandler) MarkPendingPayment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Engineer == nil {
		return apperrors.NewUnauthorized("engineer required")
	}
	ticket, err := h.service.MarkPendingPayment(c.Context(), c.Params("id"), principal.Engineer.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.ticketResponse(ticket)})
}

func (h *TicketsHandler) ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:                    ticket.ID,
		Title:                 ticket.Title,
		Description:           ticket.Description,
		CreatedBy:             ticket.CreatedBy,
		ClaimedBy:             ticket.ClaimedBy,
		Status:                h.service.EffectiveStatus(ticket),
		AutoCompleteTimeoutAt: ticket.AutoCompleteTimeoutAt,
		CreatedAt:             ticket.CreatedAt,
		UpdatedAt:             ticket.UpdatedAt,
	}
}

func (h *TicketsHandler) ticketResponses(tickets []*domain.Ticket) []dto.TicketResponse {
	items := make([]dto.TicketResponse, 0, len(tickets))
	for _, ticket := range tickets {
		items = append(items, h.ticketResponse(ticket))
	}
	return items
}
