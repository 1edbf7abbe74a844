package events

import (
	"time"

	"github.com/spec-kit/support-core/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventTicketUpdated  EventType = "ticket_updated"
	EventRatingCreated  EventType = "rating_created"
	EventRatingUpdated  EventType = "rating_updated"
	EventSessionCreated EventType = "session_created"
	EventSessionUpdated EventType = "session_updated"
)

// Event is a best-effort notification that an entity was created or
// updated. It is a cache-invalidation signal, not a ledger: delivery is
// at-most-once and subscribers reconcile by re-reading the store.
type Event struct {
	ID        string       `json:"id"`
	Type      EventType    `json:"type"`
	EntityID  string       `json:"entity_id"`
	Actor     domain.Actor `json:"actor"`
	Timestamp time.Time    `json:"timestamp"`
	Payload   interface{}  `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title     string              `json:"title"`
	CreatedBy string              `json:"created_by"`
	Status    domain.TicketStatus `json:"status"`
}

// TicketUpdatedPayload payload.
type TicketUpdatedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	ClaimedBy *string             `json:"claimed_by,omitempty"`
}

// RatingCreatedPayload payload.
type RatingCreatedPayload struct {
	TicketID    string `json:"ticket_id"`
	RatedUserID string `json:"rated_user_id"`
	Rating      int    `json:"rating"`
}

// RatingUpdatedPayload payload.
type RatingUpdatedPayload struct {
	Rating int `json:"rating"`
}

// SessionCreatedPayload payload.
type SessionCreatedPayload struct {
	Kind     domain.SessionKind `json:"kind"`
	TicketID string             `json:"ticket_id"`
}

// SessionUpdatedPayload payload.
type SessionUpdatedPayload struct {
	Status domain.SessionStatus `json:"status"`
}
