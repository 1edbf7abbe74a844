package dto

import (
	"time"

	"github.com/spec-kit/support-core/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"required,min=1"`
}

// TicketResponse is the canonical ticket representation. Status always
// reflects the effective status at response time, so a ticket whose
// confirmation window elapsed reads as auto-completed even before any
// write touched the row.
type TicketResponse struct {
	ID                    string              `json:"id"`
	Title                 string              `json:"title"`
	Description           string              `json:"description"`
	CreatedBy             string              `json:"created_by"`
	ClaimedBy             *string             `json:"claimed_by"`
	Status                domain.TicketStatus `json:"status"`
	AutoCompleteTimeoutAt *time.Time          `json:"auto_complete_timeout_at"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
}
