package store

import (
	"fmt"
	"time"

	"github.com/spec-kit/support-core/internal/domain"
)

// Field and index names declared per entity type. Stores accept only these;
// everything else is rejected.
const (
	TicketFieldStatus    = "status"
	TicketFieldClaimedBy = "claimed_by"
	TicketFieldTimeout   = "auto_complete_timeout_at"

	TicketIndexCreatedBy = "created_by"
	TicketIndexClaimedBy = "claimed_by"
	TicketIndexStatus    = "status"
	TicketUniqueOpen     = "open_per_customer"

	RatingFieldRating = "rating"
	RatingFieldNotes  = "notes"

	RatingIndexTicket    = "ticket_id"
	RatingIndexRatedUser = "rated_user_id"
	RatingIndexCreatedBy = "created_by"
	RatingUniqueTicket   = "ticket_id"

	SessionFieldStatus = "status"

	SessionIndexTicket = "ticket_id"
	SessionUniqueSlot  = "participant_key"
)

// TicketSchema declares the ticket store layout: the conditionally
// updatable fields and the fixed index set.
func TicketSchema() Schema[domain.Ticket] {
	return Schema[domain.Ticket]{
		Name:  "ticket",
		ID:    func(t *domain.Ticket) string { return t.ID },
		SetID: func(t *domain.Ticket, id string) { t.ID = id },
		Get: map[string]func(*domain.Ticket) any{
			TicketFieldStatus:    func(t *domain.Ticket) any { return t.Status },
			TicketFieldClaimedBy: func(t *domain.Ticket) any { return t.ClaimedByID() },
			TicketFieldTimeout: func(t *domain.Ticket) any {
				if t.AutoCompleteTimeoutAt == nil {
					return nil
				}
				return *t.AutoCompleteTimeoutAt
			},
		},
		Set: map[string]func(*domain.Ticket, any) error{
			TicketFieldStatus: func(t *domain.Ticket, v any) error {
				status, ok := v.(domain.TicketStatus)
				if !ok {
					return fmt.Errorf("status: expected TicketStatus, got %T", v)
				}
				t.Status = status
				return nil
			},
			TicketFieldClaimedBy: func(t *domain.Ticket, v any) error {
				engineerID, ok := v.(string)
				if !ok || engineerID == "" {
					return fmt.Errorf("claimed_by: expected non-empty string, got %T", v)
				}
				t.ClaimedBy = &engineerID
				return nil
			},
			TicketFieldTimeout: func(t *domain.Ticket, v any) error {
				if v == nil {
					t.AutoCompleteTimeoutAt = nil
					return nil
				}
				at, ok := v.(time.Time)
				if !ok {
					return fmt.Errorf("auto_complete_timeout_at: expected time.Time, got %T", v)
				}
				t.AutoCompleteTimeoutAt = &at
				return nil
			},
		},
		Indexes: map[string]func(*domain.Ticket) string{
			TicketIndexCreatedBy: func(t *domain.Ticket) string { return t.CreatedBy },
			TicketIndexClaimedBy: func(t *domain.Ticket) string { return t.ClaimedByID() },
			TicketIndexStatus:    func(t *domain.Ticket) string { return string(t.Status) },
		},
		// One open ticket per customer. The key covers new and active work
		// only; awaiting-confirmation tickets are gated by the manager,
		// which must consult the clock to honor the confirmation deadline.
		Unique: map[string]func(*domain.Ticket) string{
			TicketUniqueOpen: func(t *domain.Ticket) string {
				switch t.Status {
				case domain.TicketStatusNew, domain.TicketStatusActive:
					return t.CreatedBy
				default:
					return ""
				}
			},
		},
		SetCreatedAt: func(t *domain.Ticket, at time.Time) { t.CreatedAt = at },
		SetUpdatedAt: func(t *domain.Ticket, at time.Time) { t.UpdatedAt = at },
	}
}

// RatingSchema declares the rating store layout. The ticket_id uniqueness
// invariant enforces at most one rating per ticket.
func RatingSchema() Schema[domain.Rating] {
	return Schema[domain.Rating]{
		Name:  "rating",
		ID:    func(r *domain.Rating) string { return r.ID },
		SetID: func(r *domain.Rating, id string) { r.ID = id },
		Get: map[string]func(*domain.Rating) any{
			RatingFieldRating: func(r *domain.Rating) any { return r.Rating },
			RatingFieldNotes: func(r *domain.Rating) any {
				if r.Notes == nil {
					return nil
				}
				return *r.Notes
			},
		},
		Set: map[string]func(*domain.Rating, any) error{
			RatingFieldRating: func(r *domain.Rating, v any) error {
				value, ok := v.(int)
				if !ok {
					return fmt.Errorf("rating: expected int, got %T", v)
				}
				r.Rating = value
				return nil
			},
			RatingFieldNotes: func(r *domain.Rating, v any) error {
				if v == nil {
					r.Notes = nil
					return nil
				}
				notes, ok := v.(string)
				if !ok {
					return fmt.Errorf("notes: expected string, got %T", v)
				}
				r.Notes = &notes
				return nil
			},
		},
		Indexes: map[string]func(*domain.Rating) string{
			RatingIndexTicket:    func(r *domain.Rating) string { return r.TicketID },
			RatingIndexRatedUser: func(r *domain.Rating) string { return r.RatedUserID },
			RatingIndexCreatedBy: func(r *domain.Rating) string { return r.CreatedBy },
		},
		Unique: map[string]func(*domain.Rating) string{
			RatingUniqueTicket: func(r *domain.Rating) string { return r.TicketID },
		},
		SetCreatedAt: func(r *domain.Rating, at time.Time) { r.CreatedAt = at },
		SetUpdatedAt: func(r *domain.Rating, at time.Time) { r.UpdatedAt = at },
	}
}

// SessionSchema declares the session store layout. The participant slot
// invariant keeps one live session per kind/ticket/participant pair.
func SessionSchema() Schema[domain.Session] {
	return Schema[domain.Session]{
		Name:  "session",
		ID:    func(s *domain.Session) string { return s.ID },
		SetID: func(s *domain.Session, id string) { s.ID = id },
		Get: map[string]func(*domain.Session) any{
			SessionFieldStatus: func(s *domain.Session) any { return s.Status },
		},
		Set: map[string]func(*domain.Session, any) error{
			SessionFieldStatus: func(s *domain.Session, v any) error {
				status, ok := v.(domain.SessionStatus)
				if !ok {
					return fmt.Errorf("status: expected SessionStatus, got %T", v)
				}
				s.Status = status
				return nil
			},
		},
		Indexes: map[string]func(*domain.Session) string{
			SessionIndexTicket: func(s *domain.Session) string { return s.TicketID },
		},
		Unique: map[string]func(*domain.Session) string{
			SessionUniqueSlot: func(s *domain.Session) string { return s.ParticipantKey() },
		},
		SetCreatedAt: func(s *domain.Session, at time.Time) { s.CreatedAt = at },
		SetUpdatedAt: func(s *domain.Session, at time.Time) { s.UpdatedAt = at },
	}
}
