package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-core/internal/clock"
	"github.com/spec-kit/support-core/internal/domain"
	"github.com/spec-kit/support-core/internal/events"
	"github.com/spec-kit/support-core/internal/store"
	apperrors "github.com/spec-kit/support-core/pkg/util/errorutil"
)

const confirmWindow = 24 * time.Hour

type ticketFixture struct {
	clk     *clock.FakeClock
	tickets store.Store[domain.Ticket]
	service *TicketService
	events  *eventRecorder
}

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) record(ctx context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *eventRecorder) byType(t events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func newTicketFixture(t *testing.T) *ticketFixture {
	t.Helper()
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	tickets := store.NewMemory(store.TicketSchema(), clk)

	recorder := &eventRecorder{}
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	dispatcher.Subscribe(events.EventTicketCreated, recorder.record)
	dispatcher.Subscribe(events.EventTicketUpdated, recorder.record)

	svc := NewTicketService(TicketDependencies{
		TicketStore:   tickets,
		Emitter:       events.NewEmitter(dispatcher, clk),
		Clock:         clk,
		ConfirmWindow: confirmWindow,
	})
	return &ticketFixture{clk: clk, tickets: tickets, service: svc, events: recorder}
}

func TestTicketService_CreateTicket(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	ticket, err := f.service.CreateTicket(ctx, "cust-1", TicketCreateInput{
		Title:       "  server down  ",
		Description: "prod API unresponsive",
	})
	require.NoError(t, err)
	assert.Equal(t, "server down", ticket.Title)
	assert.Equal(t, domain.TicketStatusNew, ticket.Status)
	assert.Nil(t, ticket.ClaimedBy)
	assert.Nil(t, ticket.AutoCompleteTimeoutAt)

	assert.Len(t, f.events.byType(events.EventTicketCreated), 1)
}

func TestTicketService_CreateTicketRequiresTitle(t *testing.T) {
	f := newTicketFixture(t)

	_, err := f.service.CreateTicket(context.Background(), "cust-1", TicketCreateInput{Title: "   "})
	assert.Error(t, err)
}

func TestTicketService_CreateTicketRejectsSecondOpenTicket(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateTicket(ctx, "cust-1", TicketCreateInput{Title: "first"})
	require.NoError(t, err)

	_, err = f.service.CreateTicket(ctx, "cust-1", TicketCreateInput{Title: "second"})
	assert.True(t, apperrors.IsConflict(err))

	// Another customer is unaffected.
	_, err = f.service.CreateTicket(ctx, "cust-2", TicketCreateInput{Title: "other"})
	assert.NoError(t, err)
}

func TestTicketService_ConcurrentCreateHasExactlyOneWinner(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = f.service.CreateTicket(ctx, "cust-1", TicketCreateInput{
				Title: fmt.Sprintf("attempt %d", n),
			})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		assert.True(t, apperrors.IsConflict(err))
	}
	assert.Equal(t, 1, winners)

	mine, err := f.tickets.GetByIndex(ctx, store.TicketIndexCreatedBy, "cust-1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestTicketService_CreateTicketAllowedAfterCompletion(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	ticket, err := f.service.CreateTicket(ctx, "cust-1", TicketCreateInput{Title: "first"})
	require.NoError(t, err)
	_, err = f.service.Claim(ctx, ticket.ID, "eng-1")
	require.NoError(t, err)
	_, err = f.service.MarkAwaitingConfirmation(ctx, ticket.ID, "eng-1")
	require.NoError(t, err)
	_, err = f.service.ConfirmCompletion(ctx, ticket.ID, "cust-1")
	require.NoError(t, err)

	_, err = f.service.CreateTicket(ctx, "cust-1", TicketCreateInput{Title: "second"})
	assert.NoError(t, err)
}

func TestTicketService_CreateTicketAllowedAfterLazyExpiry(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	ticket, err := f.service.CreateTicket(ctx, "cust-1", TicketCreateInput{Title: "first"})
	require.NoError(t, err)
	_, err = f.service.Claim(ctx, ticket.ID, "eng-1")
	require.NoError(t, err)
	_, err = f.service.MarkAwaitingConfirmation(ctx, ticket.ID, "eng-1")
	require.NoError(t, err)

	// First ticket still reads awaiting-confirmation: blocked.
	_, err = f.service.CreateTicket(ctx, "cust-1", TicketCreateInput{Title: "second"})
	assert.True(t, apperrors.IsConflict(err))

	// Past the window the first ticket reads auto-completed without any
	// write having happened.
	f.clk.Advance(confirmWindow + time.Second)
	_, err = f.service.CreateTicket(ctx, "cust-1", TicketCreateInput{Title: "second"})
	assert.NoError(t, err)
}

func TestTicketService_Claim(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	ticket, err := f.service.CreateTicket(ctx, "cust-1", TicketCreateInput{Title: "x"})
	require.NoError(t, err)

	claimed, err := f.service.Claim(ctx, ticket.ID, "eng-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusActive, claimed.Status)
	assert.Equal(t, "eng-1", claimed.ClaimedByID())

	_, err = f.service.Claim(ctx, ticket.ID, "eng-2")
	assert.True(t, apperrors.IsPreconditionFailed(err))
}

func TestTicketService_ClaimRaceHasExactlyOneWinner(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	ticket, err := f.service.CreateTicket(ctx, "cust-1", TicketCreateInput{Title: "x"})
	require.NoError(t, err)

	const engineers = 16
	var wg sync.WaitGroup
	errs := make([]error, engineers)
	for i := 0; i < engineers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.service.Claim(ctx, ticket.ID, fmt.Sprintf("eng-%d", i))
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.True(t, apperrors.IsPreconditionFailed(err))
		}
	}
	assert.Equal(t, 1, winners)

	current, err := f.service.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusActive, current.Status)
	assert.NotEmpty(t, current.ClaimedByID())
}

func TestTicketService_MarkAwaitingConfirmation(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	ticket, err := f.service.CreateTicket(ctx, "cust-1", TicketCreateInput{Title: "x"})
	require.NoError(t, err)
	_, err = f.service.Claim(ctx, ticket.ID, "eng-1")
	require.NoError(t, err)

	// Another engineer cannot move it.
	_, err = f.service.MarkAwaitingConfirmation(ctx, ticket.ID, "eng-2")
	assert.True(t, apperrors.IsPreconditionFailed(err))

	updated, err := f.service.MarkAwaitingConfirmation(ctx, ticket.ID, "eng-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusAwaitingConfirmation, updated.Status)
	require.NotNil(t, updated.AutoCompleteTimeoutAt)
	assert.Equal(t, f.clk.Now().Add(confirmWindow), *updated.AutoCompleteTimeoutAt)
}

func TestTicketService_ConfirmCompletion(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	ticket, err := f.service.CreateTicket(ctx, "cust-1", TicketCreateInput{Title: "x"})
	require.NoError(t, err)
	_, err = f.service.Claim(ctx, ticket.ID, "eng-1")
	require.NoError(t, err)
	_, err = f.service.MarkAwaitingConfirmation(ctx, ticket.ID, "eng-1")
	require.NoError(t, err)

	// Wrong customer.
	_, err = f.service.ConfirmCompletion(ctx, ticket.ID, "cust-2")
	assert.Error(t, err)

	confirmed, err := f.service.ConfirmCompletion(ctx, ticket.ID, "cust-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusCompleted, confirmed.Status)
	assert.Nil(t, confirmed.AutoCompleteTimeoutAt)
}

func TestTicketService_ConfirmCompletionRejectedAfterExpiry(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	ticket, err := f.service.CreateTicket(ctx, "cust-1", TicketCreateInput{Title: "x"})
	require.NoError(t, err)
	_, err = f.service.Claim(ctx, ticket.ID, "eng-1")
	require.NoError(t, err)
	_, err = f.service.MarkAwaitingConfirmation(ctx, ticket.ID, "eng-1")
	require.NoError(t, err)

	f.clk.Advance(confirmWindow + time.Second)

	_, err = f.service.ConfirmCompletion(ctx, ticket.ID, "cust-1")
	assert.True(t, apperrors.IsPreconditionFailed(err))

	// Reads show auto-completed even though no write happened.
	current, err := f.service.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusAutoCompleted, f.service.EffectiveStatus(current))
	assert.Equal(t, domain.TicketStatusAwaitingConfirmation, current.Status)
}

func TestTicketService_MarkPendingPayment(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	ticket, err := f.service.CreateTicket(ctx, "cust-1", TicketCreateInput{Title: "x"})
	require.NoError(t, err)
	_, err = f.service.Claim(ctx, ticket.ID, "eng-1")
	require.NoError(t, err)

	// Not completed yet.
	_, err = f.service.MarkPendingPayment(ctx, ticket.ID, "eng-1")
	assert.True(t, apperrors.IsPreconditionFailed(err))

	_, err = f.service.MarkAwaitingConfirmation(ctx, ticket.ID, "eng-1")
	require.NoError(t, err)
	_, err = f.service.ConfirmCompletion(ctx, ticket.ID, "cust-1")
	require.NoError(t, err)

	// Only the claiming engineer may move it.
	_, err = f.service.MarkPendingPayment(ctx, ticket.ID, "eng-2")
	assert.Error(t, err)

	updated, err := f.service.MarkPendingPayment(ctx, ticket.ID, "eng-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusPendingPayment, updated.Status)
}

func TestTicketService_MarkPendingPaymentAfterLazyExpiry(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	ticket, err := f.service.CreateTicket(ctx, "cust-1", TicketCreateInput{Title: "x"})
	require.NoError(t, err)
	_, err = f.service.Claim(ctx, ticket.ID, "eng-1")
	require.NoError(t, err)
	_, err = f.service.MarkAwaitingConfirmation(ctx, ticket.ID, "eng-1")
	require.NoError(t, err)

	f.clk.Advance(confirmWindow + time.Second)

	// The ticket is persisted as awaiting-confirmation but effectively
	// auto-completed, which is enough.
	updated, err := f.service.MarkPendingPayment(ctx, ticket.ID, "eng-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusPendingPayment, updated.Status)
	assert.Nil(t, updated.AutoCompleteTimeoutAt)
}

func TestTicketService_ListUnclaimedTickets(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	a, err := f.service.CreateTicket(ctx, "cust-1", TicketCreateInput{Title: "a"})
	require.NoError(t, err)
	_, err = f.service.CreateTicket(ctx, "cust-2", TicketCreateInput{Title: "b"})
	require.NoError(t, err)

	queue, err := f.service.ListUnclaimedTickets(ctx)
	require.NoError(t, err)
	assert.Len(t, queue, 2)

	_, err = f.service.Claim(ctx, a.ID, "eng-1")
	require.NoError(t, err)

	queue, err = f.service.ListUnclaimedTickets(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, "b", queue[0].Title)

	claimed, err := f.service.ListEngineerTickets(ctx, "eng-1")
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, a.ID, claimed[0].ID)
}

func TestTicketService_EventsCarryTransitions(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	ticket, err := f.service.CreateTicket(ctx, "cust-1", TicketCreateInput{Title: "x"})
	require.NoError(t, err)
	_, err = f.service.Claim(ctx, ticket.ID, "eng-1")
	require.NoError(t, err)
	_, err = f.service.MarkAwaitingConfirmation(ctx, ticket.ID, "eng-1")
	require.NoError(t, err)
	_, err = f.service.ConfirmCompletion(ctx, ticket.ID, "cust-1")
	require.NoError(t, err)

	updates := f.events.byType(events.EventTicketUpdated)
	require.Len(t, updates, 3)

	payload, ok := updates[0].Payload.(events.TicketUpdatedPayload)
	require.True(t, ok)
	assert.Equal(t, domain.TicketStatusNew, payload.OldStatus)
	assert.Equal(t, domain.TicketStatusActive, payload.NewStatus)

	last, ok := updates[2].Payload.(events.TicketUpdatedPayload)
	require.True(t, ok)
	assert.Equal(t, domain.TicketStatusCompleted, last.NewStatus)
	assert.Equal(t, domain.SubjectTypeCustomer, updates[2].Actor.Type)
}
