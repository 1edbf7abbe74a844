package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-core/internal/clock"
	"github.com/spec-kit/support-core/internal/domain"
	"github.com/spec-kit/support-core/internal/store"
	apperrors "github.com/spec-kit/support-core/pkg/util/errorutil"
)

// Full pass through the lifecycle: create, claim, collaborate, resolve,
// confirm, rate.
func TestLifecycle_EndToEnd(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	tickets := store.NewMemory(store.TicketSchema(), clk)

	manager := NewTicketService(TicketDependencies{
		TicketStore:   tickets,
		Clock:         clk,
		ConfirmWindow: confirmWindow,
	})
	ratings := NewRatingService(RatingDependencies{
		RatingStore: store.NewMemory(store.RatingSchema(), clk),
		TicketStore: tickets,
		Clock:       clk,
	})
	sessions := NewSessionService(SessionDependencies{
		SessionStore: store.NewMemory(store.SessionSchema(), clk),
		TicketStore:  tickets,
		Clock:        clk,
	})
	chat := NewChatCoordinator(sessions)

	ctx := context.Background()

	ticket, err := manager.CreateTicket(ctx, "cust-1", TicketCreateInput{
		Title:       "vpn broken",
		Description: "cannot reach internal network",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusNew, ticket.Status)

	// No sessions before a claim.
	_, err = chat.Create(ctx, ticket.ID, domain.CustomerActor("cust-1"))
	require.True(t, apperrors.IsTicketNotActive(err))

	ticket, err = manager.Claim(ctx, ticket.ID, "eng-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusActive, ticket.Status)

	session, err := chat.Create(ctx, ticket.ID, domain.EngineerActor("eng-1"))
	require.NoError(t, err)

	ticket, err = manager.MarkAwaitingConfirmation(ctx, ticket.ID, "eng-1")
	require.NoError(t, err)

	// The open session keeps working, but no new one can start.
	_, err = chat.Get(ctx, session.ID, domain.CustomerActor("cust-1"))
	require.NoError(t, err)
	_, err = chat.Create(ctx, ticket.ID, domain.CustomerActor("cust-1"))
	require.True(t, apperrors.IsTicketNotActive(err))

	clk.Advance(time.Hour)

	ticket, err = manager.ConfirmCompletion(ctx, ticket.ID, "cust-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusCompleted, ticket.Status)

	_, err = chat.Close(ctx, session.ID, domain.EngineerActor("eng-1"))
	require.NoError(t, err)

	rating, err := ratings.CreateRating(ctx, "cust-1", RatingCreateInput{TicketID: ticket.ID, Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, "eng-1", rating.RatedUserID)

	// The customer is free to open the next ticket.
	_, err = manager.CreateTicket(ctx, "cust-1", TicketCreateInput{Title: "next"})
	assert.NoError(t, err)
}

// The auto-complete path: the customer never confirms, the window elapses,
// and downstream consumers all observe auto-completed without a write.
func TestLifecycle_AutoCompletePath(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	tickets := store.NewMemory(store.TicketSchema(), clk)

	manager := NewTicketService(TicketDependencies{
		TicketStore:   tickets,
		Clock:         clk,
		ConfirmWindow: confirmWindow,
	})
	ratings := NewRatingService(RatingDependencies{
		RatingStore: store.NewMemory(store.RatingSchema(), clk),
		TicketStore: tickets,
		Clock:       clk,
	})

	ctx := context.Background()

	ticket, err := manager.CreateTicket(ctx, "cust-1", TicketCreateInput{Title: "x"})
	require.NoError(t, err)
	_, err = manager.Claim(ctx, ticket.ID, "eng-1")
	require.NoError(t, err)
	_, err = manager.MarkAwaitingConfirmation(ctx, ticket.ID, "eng-1")
	require.NoError(t, err)

	clk.Advance(confirmWindow + time.Second)

	current, err := manager.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusAutoCompleted, manager.EffectiveStatus(current))

	// Confirmation missed the window.
	_, err = manager.ConfirmCompletion(ctx, ticket.ID, "cust-1")
	require.True(t, apperrors.IsPreconditionFailed(err))

	// Rating and payment both accept the derived state.
	_, err = ratings.CreateRating(ctx, "cust-1", RatingCreateInput{TicketID: ticket.ID, Rating: 4})
	require.NoError(t, err)

	updated, err := manager.MarkPendingPayment(ctx, ticket.ID, "eng-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusPendingPayment, updated.Status)
}
