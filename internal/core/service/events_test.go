package service

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rl1809/storefront/internal/core/domain"
)

type mockPublisher struct {
	got []domain.CartChanged
	err error
}

func (m *mockPublisher) PublishCartChanged(ctx context.Context, event domain.CartChanged) error {
	m.got = append(m.got, event)
	return m.err
}

func TestEventBus_SubscribeAndUnsubscribe(t *testing.T) {
	bus := NewEventBus()
	var order []string

	unsubA := bus.Subscribe(func(ctx context.Context, ev domain.CartChanged) { order = append(order, "a") })
	bus.Subscribe(func(ctx context.Context, ev domain.CartChanged) { order = append(order, "b") })

	bus.Publish(context.Background(), domain.CartChanged{UserID: "u"})
	assert.Equal(t, []string{"a", "b"}, order)

	unsubA()
	unsubA()
	order = nil
	bus.Publish(context.Background(), domain.CartChanged{UserID: "u"})
	assert.Equal(t, []string{"b"}, order)
}

func TestEventBus_ListenerMayUnsubscribeDuringPublish(t *testing.T) {
	bus := NewEventBus()
	calls := 0

	var unsub func()
	unsub = bus.Subscribe(func(ctx context.Context, ev domain.CartChanged) {
		calls++
		unsub()
	})

	bus.Publish(context.Background(), domain.CartChanged{})
	bus.Publish(context.Background(), domain.CartChanged{})
	assert.Equal(t, 1, calls)
}

func TestPublishTo(t *testing.T) {
	pub := &mockPublisher{err: errBoom}
	ev := domain.CartChanged{UserID: "u", Reason: domain.CartLineRemoved, At: time.Now()}

	PublishTo(pub)(context.Background(), ev)
	assert.Equal(t, []domain.CartChanged{ev}, pub.got)
}

func TestLogCartChanges(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	LogCartChanges(logger)(context.Background(), domain.CartChanged{UserID: "u-1", Reason: domain.CartLineAdded})
	assert.Contains(t, buf.String(), "user=u-1")
	assert.Contains(t, buf.String(), "reason=added")
}
