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

// SessionsHandler exposes chat and code-share session endpoints. Both
// kinds share the same shape; the route group decides which coordinator
// backs the handler.
type SessionsHandler struct {
	chat      *service.ChatCoordinator
	codeShare *service.CodeShareCoordinator
	sessions  *service.SessionService
}

// NewSessionsHandler constructs handler.
func NewSessionsHandler(chat *service.ChatCoordinator, codeShare *service.CodeShareCoordinator, sessions *service.SessionService) *SessionsHandler {
	return &SessionsHandler{chat: chat, codeShare: codeShare, sessions: sessions}
}

// CreateChat POST /sessions/chat.
func (h *SessionsHandler) CreateChat(c *fiber.Ctx) error {
	return h.create(c, func(ctx *fiber.Ctx, ticketID string, actor domain.Actor) (*domain.Session, error) {
		return h.chat.Create(ctx.Context(), ticketID, actor)
	})
}

// CreateCodeShare POST /sessions/code-share.
func (h *SessionsHandler) CreateCodeShare(c *fiber.Ctx) error {
	return h.create(c, func(ctx *fiber.Ctx, ticketID string, actor domain.Actor) (*domain.Session, error) {
		return h.codeShare.Create(ctx.Context(), ticketID, actor)
	})
}

// GetSession GET /sessions/:id.
func (h *SessionsHandler) GetSession(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	session, err := h.sessions.Get(c.Context(), c.Params("id"), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sessionResponse(session)})
}

// CloseSession POST /sessions/:id/close.
func (h *SessionsHandler) CloseSession(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	session, err := h.sessions.Close(c.Context(), c.Params("id"), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sessionResponse(session)})
}

// ListTicketSessions GET /tickets/:id/sessions.
func (h *SessionsHandler) ListTicketSessions(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	sessions, err := h.sessions.ListByTicket(c.Context(), c.Params("id"), actor)
	if err != nil {
		return err
	}
	items := make([]dto.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		items = append(items, sessionResponse(session))
	}
	return c.JSON(fiber.Map{"data": items})
}

func (h *SessionsHandler) create(c *fiber.Ctx, createFn func(*fiber.Ctx, string, domain.Actor) (*domain.Session, error)) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if details := dto.Validate(req); details != nil {
		return apperrors.NewValidationError("invalid payload", details)
	}

	session, err := createFn(c, req.TicketID, actor)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": sessionResponse(session)})
}

func requireActor(c *fiber.Ctx) (domain.Actor, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || (principal.Customer == nil && principal.Engineer == nil) {
		return domain.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return principal.Actor(), nil
}

func sessionResponse(session *domain.Session) dto.SessionResponse {
	return dto.SessionResponse{
		ID:         session.ID,
		Kind:       session.Kind,
		TicketID:   session.TicketID,
		CustomerID: session.CustomerID,
		EngineerID: session.EngineerID,
		Status:     session.Status,
		CreatedAt:  session.CreatedAt,
		UpdatedAt:  session.UpdatedAt,
	}
}
