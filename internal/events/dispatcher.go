package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// EventHandler handles a published event. A returned error is logged and
// otherwise ignored; handlers must treat delivery as at-most-once.
type EventHandler func(context.Context, Event) error

// Dispatcher allows event publication/subscription. Publish never reports
// failure back to the caller: the store write is the durable source of
// truth and subscriber failures must not unwind into the write path.
type Dispatcher interface {
	Publish(ctx context.Context, event Event)
	Subscribe(eventType EventType, handler EventHandler)
}

// inMemoryDispatcher is a simple synchronous dispatcher.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	logger    *zap.Logger
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher(logger *zap.Logger) Dispatcher {
	return &inMemoryDispatcher{
		listeners: make(map[EventType][]EventHandler),
		logger:    logger,
	}
}

// Publish invokes handlers for the given event. Handler errors and panics
// are logged and swallowed so remaining handlers still run.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) {
	d.mu.RLock()
	handlers := append([]EventHandler{}, d.listeners[event.Type]...)
	d.mu.RUnlock()

	for _, handler := range handlers {
		d.invoke(ctx, handler, event)
	}
}

func (d *inMemoryDispatcher) invoke(ctx context.Context, handler EventHandler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("event handler panicked",
				zap.String("event_type", string(event.Type)),
				zap.String("entity_id", event.EntityID),
				zap.Any("panic", r))
		}
	}()
	if err := handler(ctx, event); err != nil {
		d.logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("entity_id", event.EntityID),
			zap.Error(err))
	}
}

// Subscribe registers a handler for the given event type.
func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}
