package dto

import (
	"time"

	"github.com/spec-kit/support-core/internal/domain"
)

// CreateSessionRequest payload.
type CreateSessionRequest struct {
	TicketID string `json:"ticket_id" validate:"required"`
}

// SessionResponse representation.
type SessionResponse struct {
	ID         string               `json:"id"`
	Kind       domain.SessionKind   `json:"kind"`
	TicketID   string               `json:"ticket_id"`
	CustomerID string               `json:"customer_id"`
	EngineerID string               `json:"engineer_id"`
	Status     domain.SessionStatus `json:"status"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}
