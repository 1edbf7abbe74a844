package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveStatus_LazyExpiry(t *testing.T) {
	deadline := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engineer := "eng-1"
	ticket := &Ticket{
		ID:                    "t-1",
		Status:                TicketStatusAwaitingConfirmation,
		ClaimedBy:             &engineer,
		AutoCompleteTimeoutAt: &deadline,
	}

	assert.Equal(t, TicketStatusAwaitingConfirmation, EffectiveStatus(ticket, deadline.Add(-time.Second)))
	assert.Equal(t, TicketStatusAwaitingConfirmation, EffectiveStatus(ticket, deadline))
	assert.Equal(t, TicketStatusAutoCompleted, EffectiveStatus(ticket, deadline.Add(time.Second)))
}

func TestEffectiveStatus_Deterministic(t *testing.T) {
	deadline := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ticket := &Ticket{
		Status:                TicketStatusAwaitingConfirmation,
		AutoCompleteTimeoutAt: &deadline,
	}

	at := deadline.Add(time.Minute)
	first := EffectiveStatus(ticket, at)
	second := EffectiveStatus(ticket, at)
	assert.Equal(t, first, second)
	assert.Equal(t, TicketStatusAutoCompleted, first)

	// Derivation never mutates the ticket.
	assert.Equal(t, TicketStatusAwaitingConfirmation, ticket.Status)
}

func TestEffectiveStatus_PassThrough(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, status := range []TicketStatus{
		TicketStatusNew,
		TicketStatusActive,
		TicketStatusPendingPayment,
		TicketStatusCompleted,
		TicketStatusAutoCompleted,
	} {
		ticket := &Ticket{Status: status}
		assert.Equal(t, status, EffectiveStatus(ticket, now))
	}

	// No deadline means awaiting-confirmation never expires.
	ticket := &Ticket{Status: TicketStatusAwaitingConfirmation}
	assert.Equal(t, TicketStatusAwaitingConfirmation, EffectiveStatus(ticket, now))
}

func TestIsCompletedFamily(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, IsCompletedFamily(&Ticket{Status: TicketStatusCompleted}, now))
	assert.True(t, IsCompletedFamily(&Ticket{Status: TicketStatusAutoCompleted}, now))
	assert.True(t, IsCompletedFamily(&Ticket{Status: TicketStatusPendingPayment}, now))
	assert.False(t, IsCompletedFamily(&Ticket{Status: TicketStatusNew}, now))
	assert.False(t, IsCompletedFamily(&Ticket{Status: TicketStatusActive}, now))

	expired := now.Add(-time.Hour)
	assert.True(t, IsCompletedFamily(&Ticket{
		Status:                TicketStatusAwaitingConfirmation,
		AutoCompleteTimeoutAt: &expired,
	}, now))
}
