package service

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rl1809/storefront/internal/core/domain"
)

// callerError reports whether err is something the caller can act on
// (sign in, fix input, pick another row) rather than an infrastructure fault.
func callerError(err error) bool {
	return errors.Is(err, domain.ErrAuthenticationRequired) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrEmptyCart) ||
		errors.Is(err, domain.ErrInsufficientStock) ||
		errors.Is(err, domain.ErrDuplicateRequest) ||
		domain.IsValidation(err)
}

// storageError passes caller errors through and hides everything else
// behind domain.ErrStorage after logging the cause.
func storageError(op string, err error) error {
	if callerError(err) {
		return err
	}
	slog.Error(op+" failed", "error", err)
	return fmt.Errorf("%s: %w", op, domain.ErrStorage)
}
