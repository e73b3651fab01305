package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

type CartListener func(ctx context.Context, event domain.CartChanged)

// EventBus delivers cart changes to its subscribers synchronously, in
// subscription order, after the mutation has been committed.
type EventBus struct {
	mu        sync.RWMutex
	nextID    int
	listeners []subscription
}

type subscription struct {
	id int
	fn CartListener
}

func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers fn and returns a function that removes it again.
func (b *EventBus) Subscribe(fn CartListener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, subscription{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.listeners {
			if s.id == id {
				b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
				return
			}
		}
	}
}

func (b *EventBus) Publish(ctx context.Context, event domain.CartChanged) {
	b.mu.RLock()
	listeners := make([]subscription, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.RUnlock()

	for _, s := range listeners {
		s.fn(ctx, event)
	}
}

// PublishTo forwards cart changes to another process. Publish failures are
// logged; the mutation that caused them has already been committed.
func PublishTo(pub port.CartEventPublisher) CartListener {
	return func(ctx context.Context, event domain.CartChanged) {
		if err := pub.PublishCartChanged(ctx, event); err != nil {
			slog.Warn("publish cart change failed", "user", event.UserID, "reason", event.Reason, "error", err)
		}
	}
}

func LogCartChanges(logger *slog.Logger) CartListener {
	return func(ctx context.Context, event domain.CartChanged) {
		logger.DebugContext(ctx, "cart changed", "user", event.UserID, "reason", event.Reason)
	}
}
