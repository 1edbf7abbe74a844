package service

import (
	"context"

	"github.com/spec-kit/support-core/internal/clock"
	"github.com/spec-kit/support-core/internal/domain"
	"github.com/spec-kit/support-core/internal/events"
	"github.com/spec-kit/support-core/internal/store"
	apperrors "github.com/spec-kit/support-core/pkg/util/errorutil"
)

// SessionService is the shared core behind the chat and code-share
// coordinators. It never tracks ticket status: every operation queries the
// ticket and derives its effective status on the spot, so a lazily-expired
// ticket rejects new sessions just like an explicitly transitioned one.
type SessionService struct {
	sessions store.Store[domain.Session]
	tickets  store.Store[domain.Ticket]
	emitter  *events.Emitter
	clock    clock.Clock
}

// SessionDependencies bundles collaborators for the session service.
type SessionDependencies struct {
	SessionStore store.Store[domain.Session]
	TicketStore  store.Store[domain.Ticket]
	Emitter      *events.Emitter
	Clock        clock.Clock
}

// NewSessionService constructs the service.
func NewSessionService(deps SessionDependencies) *SessionService {
	return &SessionService{
		sessions: deps.SessionStore,
		tickets:  deps.TicketStore,
		emitter:  deps.Emitter,
		clock:    deps.Clock,
	}
}

// Create opens a session between the ticket's customer and its claiming
// engineer. Fails with TICKET_NOT_ACTIVE unless the ticket's effective
// status is active.
func (s *SessionService) Create(ctx context.Context, kind domain.SessionKind, ticketID string, actor domain.Actor) (*domain.Session, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if domain.EffectiveStatus(ticket, s.clock.Now()) != domain.TicketStatusActive {
		return nil, apperrors.NewTicketNotActive(ticketID)
	}
	if err := requireParticipant(ticket, actor); err != nil {
		return nil, err
	}

	session, err := s.sessions.Create(ctx, &domain.Session{
		Kind:       kind,
		TicketID:   ticket.ID,
		CustomerID: ticket.CreatedBy,
		EngineerID: ticket.ClaimedByID(),
		Status:     domain.SessionStatusOpen,
	})
	if err != nil {
		return nil, err
	}
	s.emitter.EmitCreated(ctx, events.EventSessionCreated, session.ID, actor, events.SessionCreatedPayload{
		Kind:     session.Kind,
		TicketID: session.TicketID,
	})
	return session, nil
}

// Get fetches a session, restricted to its participants.
func (s *SessionService) Get(ctx context.Context, sessionID string, actor domain.Actor) (*domain.Session, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !isParticipant(session, actor) {
		return nil, apperrors.NewForbidden("not a session participant")
	}
	return session, nil
}

// Close marks a session closed. Closing an already-closed session reports
// PRECONDITION_FAILED.
func (s *SessionService) Close(ctx context.Context, sessionID string, actor domain.Actor) (*domain.Session, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !isParticipant(session, actor) {
		return nil, apperrors.NewForbidden("not a session participant")
	}

	updated, err := s.sessions.ConditionalUpdate(ctx, sessionID,
		store.Fields{store.SessionFieldStatus: domain.SessionStatusOpen},
		store.Fields{store.SessionFieldStatus: domain.SessionStatusClosed})
	if err != nil {
		if apperrors.IsPreconditionFailed(err) {
			return nil, apperrors.NewPreconditionFailed("session already closed", map[string]any{
				"session_id": sessionID,
			})
		}
		return nil, err
	}
	s.emitter.EmitUpdated(ctx, events.EventSessionUpdated, updated.ID, actor, events.SessionUpdatedPayload{
		Status: updated.Status,
	})
	return updated, nil
}

// ListByTicket returns the ticket's sessions, restricted to participants.
func (s *SessionService) ListByTicket(ctx context.Context, ticketID string, actor domain.Actor) ([]*domain.Session, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := requireParticipant(ticket, actor); err != nil {
		return nil, err
	}
	return s.sessions.GetByIndex(ctx, store.SessionIndexTicket, ticketID)
}

func requireParticipant(ticket *domain.Ticket, actor domain.Actor) error {
	switch actor.Type {
	case domain.SubjectTypeCustomer:
		if ticket.CreatedBy == actor.ID {
			return nil
		}
	case domain.SubjectTypeEngineer:
		if ticket.ClaimedByID() == actor.ID {
			return nil
		}
	}
	return apperrors.NewForbidden("not a ticket participant")
}

func isParticipant(session *domain.Session, actor domain.Actor) bool {
	switch actor.Type {
	case domain.SubjectTypeCustomer:
		return session.CustomerID == actor.ID
	case domain.SubjectTypeEngineer:
		return session.EngineerID == actor.ID
	default:
		return false
	}
}

// ChatCoordinator is the chat specialization of the session service.
type ChatCoordinator struct {
	sessions *SessionService
}

// NewChatCoordinator constructs the coordinator.
func NewChatCoordinator(sessions *SessionService) *ChatCoordinator {
	return &ChatCoordinator{sessions: sessions}
}

func (c *ChatCoordinator) Create(ctx context.Context, ticketID string, actor domain.Actor) (*domain.Session, error) {
	return c.sessions.Create(ctx, domain.SessionKindChat, ticketID, actor)
}

func (c *ChatCoordinator) Get(ctx context.Context, sessionID string, actor domain.Actor) (*domain.Session, error) {
	return c.sessions.Get(ctx, sessionID, actor)
}

func (c *ChatCoordinator) Close(ctx context.Context, sessionID string, actor domain.Actor) (*domain.Session, error) {
	return c.sessions.Close(ctx, sessionID, actor)
}

// CodeShareCoordinator is the code-share specialization of the session
// service.
type CodeShareCoordinator struct {
	sessions *SessionService
}

// NewCodeShareCoordinator constructs the coordinator.
func NewCodeShareCoordinator(sessions *SessionService) *CodeShareCoordinator {
	return &CodeShareCoordinator{sessions: sessions}
}

func (c *CodeShareCoordinator) Create(ctx context.Context, ticketID string, actor domain.Actor) (*domain.Session, error) {
	return c.sessions.Create(ctx, domain.SessionKindCodeShare, ticketID, actor)
}

func (c *CodeShareCoordinator) Get(ctx context.Context, sessionID string, actor domain.Actor) (*domain.Session, error) {
	return c.sessions.Get(ctx, sessionID, actor)
}

func (c *CodeShareCoordinator) Close(ctx context.Context, sessionID string, actor domain.Actor) (*domain.Session, error) {
	return c.sessions.Close(ctx, sessionID, actor)
}
