package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

type IdentityVerifier interface {
	// Verify resolves a bearer token to the caller it was issued for
	Verify(ctx context.Context, token string) (domain.Identity, error)
}
