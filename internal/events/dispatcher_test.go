package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-core/internal/clock"
	"github.com/spec-kit/support-core/internal/domain"
)

func TestDispatcher_FanOut(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())

	var first, second []Event
	d.Subscribe(EventTicketCreated, func(ctx context.Context, e Event) error {
		first = append(first, e)
		return nil
	})
	d.Subscribe(EventTicketCreated, func(ctx context.Context, e Event) error {
		second = append(second, e)
		return nil
	})
	d.Subscribe(EventTicketUpdated, func(ctx context.Context, e Event) error {
		t.Fatal("handler for another event type must not run")
		return nil
	})

	d.Publish(context.Background(), Event{ID: "e-1", Type: EventTicketCreated, EntityID: "t-1"})

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, "t-1", first[0].EntityID)
}

func TestDispatcher_HandlerErrorDoesNotStopOthers(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())

	ran := false
	d.Subscribe(EventRatingCreated, func(ctx context.Context, e Event) error {
		return errors.New("boom")
	})
	d.Subscribe(EventRatingCreated, func(ctx context.Context, e Event) error {
		ran = true
		return nil
	})

	d.Publish(context.Background(), Event{Type: EventRatingCreated, EntityID: "r-1"})
	assert.True(t, ran)
}

func TestDispatcher_HandlerPanicIsRecovered(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())

	ran := false
	d.Subscribe(EventSessionCreated, func(ctx context.Context, e Event) error {
		panic("boom")
	})
	d.Subscribe(EventSessionCreated, func(ctx context.Context, e Event) error {
		ran = true
		return nil
	})

	assert.NotPanics(t, func() {
		d.Publish(context.Background(), Event{Type: EventSessionCreated, EntityID: "s-1"})
	})
	assert.True(t, ran)
}

func TestDispatcher_NoSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())

	assert.NotPanics(t, func() {
		d.Publish(context.Background(), Event{Type: EventTicketUpdated, EntityID: "t-1"})
	})
}

func TestEmitter_StampsEventMetadata(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	d := NewInMemoryDispatcher(zap.NewNop())

	var got []Event
	d.Subscribe(EventTicketCreated, func(ctx context.Context, e Event) error {
		got = append(got, e)
		return nil
	})

	emitter := NewEmitter(d, clk)
	emitter.EmitCreated(context.Background(), EventTicketCreated, "t-1", domain.CustomerActor("cust-1"), TicketCreatedPayload{Title: "x"})

	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].ID)
	assert.Equal(t, clk.Now(), got[0].Timestamp)
	assert.Equal(t, domain.SubjectTypeCustomer, got[0].Actor.Type)
	assert.Equal(t, "cust-1", got[0].Actor.ID)
}

func TestEmitter_NilIsSafe(t *testing.T) {
	var emitter *Emitter
	assert.NotPanics(t, func() {
		emitter.EmitCreated(context.Background(), EventTicketCreated, "t-1", domain.Actor{}, nil)
	})
}
