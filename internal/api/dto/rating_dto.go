package dto

import "time"

// CreateRatingRequest payload.
type CreateRatingRequest struct {
	TicketID string  `json:"ticket_id" validate:"required"`
	Rating   int     `json:"rating" validate:"required,min=1,max=5"`
	Notes    *string `json:"notes" validate:"omitempty,max=2000"`
}

// UpdateRatingRequest payload.
type UpdateRatingRequest struct {
	Rating int     `json:"rating" validate:"required,min=1,max=5"`
	Notes  *string `json:"notes" validate:"omitempty,max=2000"`
}

// RatingResponse representation.
type RatingResponse struct {
	ID          string    `json:"id"`
	TicketID    string    `json:"ticket_id"`
	RatedUserID string    `json:"rated_user_id"`
	CreatedBy   string    `json:"created_by"`
	Rating      int       `json:"rating"`
	Notes       *string   `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
