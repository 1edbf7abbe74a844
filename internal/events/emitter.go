package events

import (
	"context"

	"github.com/google/uuid"

	"github.com/spec-kit/support-core/internal/clock"
	"github.com/spec-kit/support-core/internal/domain"
)

// Emitter is the fire-and-forget notification surface services use. A nil
// Emitter is valid and emits nothing, so wiring stays optional in tests.
type Emitter struct {
	dispatcher Dispatcher
	clock      clock.Clock
}

// NewEmitter constructs an emitter over the dispatcher.
func NewEmitter(dispatcher Dispatcher, clk clock.Clock) *Emitter {
	return &Emitter{dispatcher: dispatcher, clock: clk}
}

// EmitCreated notifies subscribers of a created entity.
func (e *Emitter) EmitCreated(ctx context.Context, eventType EventType, entityID string, actor domain.Actor, payload any) {
	e.emit(ctx, eventType, entityID, actor, payload)
}

// EmitUpdated notifies subscribers of an updated entity.
func (e *Emitter) EmitUpdated(ctx context.Context, eventType EventType, entityID string, actor domain.Actor, payload any) {
	e.emit(ctx, eventType, entityID, actor, payload)
}

func (e *Emitter) emit(ctx context.Context, eventType EventType, entityID string, actor domain.Actor, payload any) {
	if e == nil || e.dispatcher == nil {
		return
	}
	e.dispatcher.Publish(ctx, Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		EntityID:  entityID,
		Actor:     actor,
		Timestamp: e.clock.Now(),
		Payload:   payload,
	})
}
