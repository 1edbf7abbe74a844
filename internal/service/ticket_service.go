package service

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/support-core/internal/clock"
	"github.com/spec-kit/support-core/internal/domain"
	"github.com/spec-kit/support-core/internal/events"
	"github.com/spec-kit/support-core/internal/store"
	apperrors "github.com/spec-kit/support-core/pkg/util/errorutil"
)

// TicketService is the lifecycle manager: the only component permitted to
// transition a ticket's persisted status. Every transition is a conditional
// update against the expected current status, never a blind overwrite, so
// concurrent actors against one ticket yield exactly one winner.
type TicketService struct {
	tickets       store.Store[domain.Ticket]
	emitter       *events.Emitter
	clock         clock.Clock
	confirmWindow time.Duration
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketStore   store.Store[domain.Ticket]
	Emitter       *events.Emitter
	Clock         clock.Clock
	ConfirmWindow time.Duration
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:       deps.TicketStore,
		emitter:       deps.Emitter,
		clock:         deps.Clock,
		confirmWindow: deps.ConfirmWindow,
	}
}

// CreateTicket opens a new ticket for a customer. A customer may hold only
// one ticket outside the completed family at a time.
func (s *TicketService) CreateTicket(ctx context.Context, customerID string, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}

	existing, err := s.tickets.GetByIndex(ctx, store.TicketIndexCreatedBy, customerID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	for _, t := range existing {
		if !domain.IsCompletedFamily(t, now) {
			return nil, apperrors.NewConflict("customer already has an open ticket", map[string]any{
				"ticket_id": t.ID,
			})
		}
	}

	ticket, err := s.tickets.Create(ctx, &domain.Ticket{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		CreatedBy:   customerID,
		Status:      domain.TicketStatusNew,
	})
	if err != nil {
		return nil, err
	}
	s.emitter.EmitCreated(ctx, events.EventTicketCreated, ticket.ID, domain.CustomerActor(customerID), events.TicketCreatedPayload{
		Title:     ticket.Title,
		CreatedBy: ticket.CreatedBy,
		Status:    ticket.Status,
	})
	return ticket, nil
}

// Claim assigns the ticket to the engineer. When two engineers race, the
// store's compare-and-set lets exactly one through; the loser gets
// PRECONDITION_FAILED surfaced as "already claimed" so callers redirect to
// the now-active ticket instead of retrying.
func (s *TicketService) Claim(ctx context.Context, ticketID, engineerID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.ConditionalUpdate(ctx, ticketID,
		store.Fields{store.TicketFieldStatus: domain.TicketStatusNew},
		store.Fields{
			store.TicketFieldStatus:    domain.TicketStatusActive,
			store.TicketFieldClaimedBy: engineerID,
		})
	if err != nil {
		if apperrors.IsPreconditionFailed(err) {
			return nil, apperrors.NewPreconditionFailed("ticket already claimed", map[string]any{
				"ticket_id": ticketID,
			})
		}
		return nil, err
	}
	s.emitter.EmitUpdated(ctx, events.EventTicketUpdated, ticket.ID, domain.EngineerActor(engineerID), events.TicketUpdatedPayload{
		OldStatus: domain.TicketStatusNew,
		NewStatus: ticket.Status,
		ClaimedBy: ticket.ClaimedBy,
	})
	return ticket, nil
}

// MarkAwaitingConfirmation moves an active ticket claimed by the engineer
// into awaiting-confirmation and stamps the auto-complete deadline. No
// timer is armed: expiry is derived lazily at read time.
func (s *TicketService) MarkAwaitingConfirmation(ctx context.Context, ticketID, engineerID string) (*domain.Ticket, error) {
	timeout := s.clock.Now().Add(s.confirmWindow)
	ticket, err := s.tickets.ConditionalUpdate(ctx, ticketID,
		store.Fields{
			store.TicketFieldStatus:    domain.TicketStatusActive,
			store.TicketFieldClaimedBy: engineerID,
		},
		store.Fields{
			store.TicketFieldStatus:  domain.TicketStatusAwaitingConfirmation,
			store.TicketFieldTimeout: timeout,
		})
	if err != nil {
		if apperrors.IsPreconditionFailed(err) {
			return nil, apperrors.NewPreconditionFailed("ticket is not active or claimed by another engineer", map[string]any{
				"ticket_id": ticketID,
			})
		}
		return nil, err
	}
	s.emitter.EmitUpdated(ctx, events.EventTicketUpdated, ticket.ID, domain.EngineerActor(engineerID), events.TicketUpdatedPayload{
		OldStatus: domain.TicketStatusActive,
		NewStatus: ticket.Status,
		ClaimedBy: ticket.ClaimedBy,
	})
	return ticket, nil
}

// ConfirmCompletion lets the customer confirm while the confirmation window
// is still open. An elapsed window reads as auto-completed and the explicit
// confirmation is rejected.
func (s *TicketService) ConfirmCompletion(ctx context.Context, ticketID, customerID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.CreatedBy != customerID {
		return nil, apperrors.NewForbidden("ticket belongs to another customer")
	}
	if domain.EffectiveStatus(ticket, s.clock.Now()) != domain.TicketStatusAwaitingConfirmation {
		return nil, apperrors.NewPreconditionFailed("ticket is not awaiting confirmation", map[string]any{
			"ticket_id": ticketID,
		})
	}

	updated, err := s.tickets.ConditionalUpdate(ctx, ticketID,
		store.Fields{store.TicketFieldStatus: domain.TicketStatusAwaitingConfirmation},
		store.Fields{
			store.TicketFieldStatus:  domain.TicketStatusCompleted,
			store.TicketFieldTimeout: nil,
		})
	if err != nil {
		return nil, err
	}
	s.emitter.EmitUpdated(ctx, events.EventTicketUpdated, updated.ID, domain.CustomerActor(customerID), events.TicketUpdatedPayload{
		OldStatus: domain.TicketStatusAwaitingConfirmation,
		NewStatus: updated.Status,
		ClaimedBy: updated.ClaimedBy,
	})
	return updated, nil
}

// MarkPendingPayment moves a completed-eligible ticket into pending-payment.
// Restricted to the claiming engineer.
func (s *TicketService) MarkPendingPayment(ctx context.Context, ticketID, engineerID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.ClaimedByID() != engineerID {
		return nil, apperrors.NewForbidden("ticket claimed by another engineer")
	}
	if !domain.IsCompletedFamily(ticket, s.clock.Now()) {
		return nil, apperrors.NewPreconditionFailed("ticket is not completed", map[string]any{
			"ticket_id": ticketID,
		})
	}

	oldStatus := ticket.Status
	updated, err := s.tickets.ConditionalUpdate(ctx, ticketID,
		store.Fields{store.TicketFieldStatus: oldStatus},
		store.Fields{
			store.TicketFieldStatus:  domain.TicketStatusPendingPayment,
			store.TicketFieldTimeout: nil,
		})
	if err != nil {
		return nil, err
	}
	s.emitter.EmitUpdated(ctx, events.EventTicketUpdated, updated.ID, domain.EngineerActor(engineerID), events.TicketUpdatedPayload{
		OldStatus: oldStatus,
		NewStatus: updated.Status,
		ClaimedBy: updated.ClaimedBy,
	})
	return updated, nil
}

// GetTicket fetches a ticket by id.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	return s.tickets.GetByID(ctx, ticketID)
}

// GetTicketForCustomer fetches a ticket ensuring ownership.
func (s *TicketService) GetTicketForCustomer(ctx context.Context, customerID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.CreatedBy != customerID {
		return nil, apperrors.NewForbidden("ticket belongs to another customer")
	}
	return ticket, nil
}

// ListCustomerTickets returns the customer's tickets.
func (s *TicketService) ListCustomerTickets(ctx context.Context, customerID string) ([]*domain.Ticket, error) {
	return s.tickets.GetByIndex(ctx, store.TicketIndexCreatedBy, customerID)
}

// ListEngineerTickets returns tickets claimed by the engineer.
func (s *TicketService) ListEngineerTickets(ctx context.Context, engineerID string) ([]*domain.Ticket, error) {
	return s.tickets.GetByIndex(ctx, store.TicketIndexClaimedBy, engineerID)
}

// ListUnclaimedTickets returns the claimable queue.
func (s *TicketService) ListUnclaimedTickets(ctx context.Context) ([]*domain.Ticket, error) {
	return s.tickets.GetByIndex(ctx, store.TicketIndexStatus, string(domain.TicketStatusNew))
}

// EffectiveStatus derives the status to present for a ticket right now.
// Every read path goes through this before showing status or gating a
// dependent action.
func (s *TicketService) EffectiveStatus(t *domain.Ticket) domain.TicketStatus {
	return domain.EffectiveStatus(t, s.clock.Now())
}
