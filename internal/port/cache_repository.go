package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

type IdempotencyGuard interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ReleaseIdempotency drops a key so a failed attempt can be retried
	ReleaseIdempotency(ctx context.Context, key string) error
}

type CartEventPublisher interface {
	// PublishCartChanged fans a cart change out to other processes
	PublishCartChanged(ctx context.Context, event domain.CartChanged) error
}
