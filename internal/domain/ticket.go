package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew                  TicketStatus = "new"
	TicketStatusActive               TicketStatus = "active"
	TicketStatusAwaitingConfirmation TicketStatus = "awaiting-confirmation"
	TicketStatusPendingPayment       TicketStatus = "pending-payment"
	TicketStatusCompleted            TicketStatus = "completed"
	TicketStatusAutoCompleted        TicketStatus = "auto-completed"
)

// Ticket is the root aggregate for support requests. Status is mutated only
// by the lifecycle manager, and only through conditional updates; a ticket
// is never physically deleted, it transitions into a terminal status.
type Ticket struct {
	ID          string
	Title       string
	Description string
	CreatedBy   string
	// ClaimedBy is set exactly once, by the winning claim. It is non-nil
	// iff the ticket has left the new status.
	ClaimedBy *string
	Status    TicketStatus
	// AutoCompleteTimeoutAt is set iff the persisted status is
	// awaiting-confirmation. The effective status may already read
	// auto-completed once it elapses; see EffectiveStatus.
	AutoCompleteTimeoutAt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// ClaimedByID returns the claiming engineer id, or "" when unclaimed.
func (t *Ticket) ClaimedByID() string {
	if t.ClaimedBy == nil {
		return ""
	}
	return *t.ClaimedBy
}
