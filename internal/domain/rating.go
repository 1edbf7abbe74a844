package domain

import "time"

// Rating is the customer's score for the engineer who handled a ticket.
// At most one rating exists per ticket; after creation only the score and
// notes may change.
type Rating struct {
	ID          string
	TicketID    string
	RatedUserID string
	CreatedBy   string
	Rating      int
	Notes       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
