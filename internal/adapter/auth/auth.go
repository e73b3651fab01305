// Package auth resolves bearer tokens into caller identities and carries the
// identity through request contexts.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rl1809/storefront/internal/core/domain"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrUnavailable means the token could not be checked at all.
	ErrUnavailable = errors.New("identity provider unavailable")
)

// Reject reports how a verification failure should be answered: 401 for a
// bad token, 503 when the identity provider could not be reached.
func Reject(err error) (int, error) {
	if errors.Is(err, ErrInvalidToken) {
		return http.StatusUnauthorized, ErrInvalidToken
	}
	return http.StatusServiceUnavailable, ErrUnavailable
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the caller stored in ctx, or the anonymous identity.
func FromContext(ctx context.Context) domain.Identity {
	id, _ := ctx.Value(identityKey{}).(domain.Identity)
	return id
}

// BearerToken extracts the token from an Authorization header value.
// ok is false when the header is empty; a header that is present but not a
// bearer credential yields ErrInvalidToken.
func BearerToken(header string) (token string, ok bool, err error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false, nil
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", true, ErrInvalidToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", true, ErrInvalidToken
	}
	return token, true, nil
}
