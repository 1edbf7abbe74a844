package domain

import (
	"strings"
	"time"
)

// SessionKind differentiates the collaboration channels attached to a
// ticket.
type SessionKind string

const (
	SessionKindChat      SessionKind = "chat"
	SessionKindCodeShare SessionKind = "code-share"
)

// SessionStatus enumerates lifecycle states for sessions.
type SessionStatus string

const (
	SessionStatusOpen   SessionStatus = "open"
	SessionStatusClosed SessionStatus = "closed"
)

// Session is an ephemeral collaboration channel between the customer and
// the claiming engineer. It holds a non-owning reference to its ticket and
// is only creatable while that ticket's effective status is active.
type Session struct {
	ID         string
	Kind       SessionKind
	TicketID   string
	CustomerID string
	EngineerID string
	Status     SessionStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ParticipantKey identifies the unique kind/ticket/participant-pair slot a
// session occupies.
func (s *Session) ParticipantKey() string {
	return strings.Join([]string{string(s.Kind), s.TicketID, s.CustomerID, s.EngineerID}, "|")
}
