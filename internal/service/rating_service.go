package service

import (
	"context"

	"github.com/spec-kit/support-core/internal/clock"
	"github.com/spec-kit/support-core/internal/domain"
	"github.com/spec-kit/support-core/internal/events"
	"github.com/spec-kit/support-core/internal/store"
	apperrors "github.com/spec-kit/support-core/pkg/util/errorutil"
)

const (
	ratingMin = 1
	ratingMax = 5
)

// RatingService creates and updates ratings. Eligibility is gated on the
// ticket's effective status belonging to the completed family; the one-
// rating-per-ticket invariant is the store's, surfaced as CONFLICT.
type RatingService struct {
	ratings store.Store[domain.Rating]
	tickets store.Store[domain.Ticket]
	emitter *events.Emitter
	clock   clock.Clock
}

// RatingDependencies bundles collaborators for the rating service.
type RatingDependencies struct {
	RatingStore store.Store[domain.Rating]
	TicketStore store.Store[domain.Ticket]
	Emitter     *events.Emitter
	Clock       clock.Clock
}

// RatingCreateInput describes rating creation payload.
type RatingCreateInput struct {
	TicketID string
	Rating   int
	Notes    *string
}

// RatingUpdateInput describes the mutable rating fields.
type RatingUpdateInput struct {
	Rating int
	Notes  *string
}

// NewRatingService constructs the service.
func NewRatingService(deps RatingDependencies) *RatingService {
	return &RatingService{
		ratings: deps.RatingStore,
		tickets: deps.TicketStore,
		emitter: deps.Emitter,
		clock:   deps.Clock,
	}
}

// CreateRating records the customer's score for the engineer who handled
// the ticket. A duplicate rating for the ticket is terminal for the call,
// never retried.
func (s *RatingService) CreateRating(ctx context.Context, customerID string, input RatingCreateInput) (*domain.Rating, error) {
	if input.Rating < ratingMin || input.Rating > ratingMax {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", nil)
	}

	ticket, err := s.tickets.GetByID(ctx, input.TicketID)
	if err != nil {
		return nil, err
	}
	if ticket.CreatedBy != customerID {
		return nil, apperrors.NewForbidden("ticket belongs to another customer")
	}
	if !domain.IsCompletedFamily(ticket, s.clock.Now()) {
		return nil, apperrors.NewValidationError("ticket is not completed", map[string]any{
			"ticket_id": ticket.ID,
		})
	}

	rating, err := s.ratings.Create(ctx, &domain.Rating{
		TicketID:    ticket.ID,
		RatedUserID: ticket.ClaimedByID(),
		CreatedBy:   customerID,
		Rating:      input.Rating,
		Notes:       input.Notes,
	})
	if err != nil {
		return nil, err
	}
	s.emitter.EmitCreated(ctx, events.EventRatingCreated, rating.ID, domain.CustomerActor(customerID), events.RatingCreatedPayload{
		TicketID:    rating.TicketID,
		RatedUserID: rating.RatedUserID,
		Rating:      rating.Rating,
	})
	return rating, nil
}

// UpdateRating rewrites the score and notes; nothing else is mutable after
// creation. The latest write wins.
func (s *RatingService) UpdateRating(ctx context.Context, customerID, ratingID string, input RatingUpdateInput) (*domain.Rating, error) {
	if input.Rating < ratingMin || input.Rating > ratingMax {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", nil)
	}

	rating, err := s.ratings.GetByID(ctx, ratingID)
	if err != nil {
		return nil, err
	}
	if rating.CreatedBy != customerID {
		return nil, apperrors.NewForbidden("rating belongs to another customer")
	}

	var notes any
	if input.Notes != nil {
		notes = *input.Notes
	}
	updated, err := s.ratings.ConditionalUpdate(ctx, ratingID, store.Fields{}, store.Fields{
		store.RatingFieldRating: input.Rating,
		store.RatingFieldNotes:  notes,
	})
	if err != nil {
		return nil, err
	}
	s.emitter.EmitUpdated(ctx, events.EventRatingUpdated, updated.ID, domain.CustomerActor(customerID), events.RatingUpdatedPayload{
		Rating: updated.Rating,
	})
	return updated, nil
}

// GetByTicket returns the ticket's rating when one exists.
func (s *RatingService) GetByTicket(ctx context.Context, ticketID string) (*domain.Rating, error) {
	ratings, err := s.ratings.GetByIndex(ctx, store.RatingIndexTicket, ticketID)
	if err != nil {
		return nil, err
	}
	if len(ratings) == 0 {
		return nil, apperrors.NewNotFound("rating", map[string]any{"ticket_id": ticketID})
	}
	return ratings[0], nil
}

// ListForEngineer returns the ratings received by an engineer.
func (s *RatingService) ListForEngineer(ctx context.Context, engineerID string) ([]*domain.Rating, error) {
	return s.ratings.GetByIndex(ctx, store.RatingIndexRatedUser, engineerID)
}

// ListByCustomer returns the ratings a customer has written.
func (s *RatingService) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Rating, error) {
	return s.ratings.GetByIndex(ctx, store.RatingIndexCreatedBy, customerID)
}

// GetRatings is the batched multi-id lookup; absent ids are skipped.
func (s *RatingService) GetRatings(ctx context.Context, ids []string) ([]*domain.Rating, error) {
	return s.ratings.GetByIDs(ctx, ids)
}
