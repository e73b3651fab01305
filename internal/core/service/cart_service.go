package service

import (
	"context"
	"time"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

type CartService struct {
	repo   port.CartRepository
	events *EventBus
	now    func() time.Time
}

func NewCartService(repo port.CartRepository, events *EventBus) *CartService {
	if events == nil {
		events = NewEventBus()
	}
	return &CartService{
		repo:   repo,
		events: events,
		now:    time.Now,
	}
}

// AddToCart merges quantity into the caller's line for productID, or opens a
// new line. There is no upper bound here; clamping to stock is up to the caller.
func (s *CartService) AddToCart(ctx context.Context, id domain.Identity, productID string, quantity int) (domain.CartLine, error) {
	if id.Anonymous() {
		return domain.CartLine{}, domain.ErrAuthenticationRequired
	}
	if productID == "" {
		return domain.CartLine{}, domain.NewValidationError("product_id", "is required")
	}
	if quantity < 1 {
		return domain.CartLine{}, domain.NewValidationError("quantity", "must be at least 1")
	}

	line, err := s.repo.UpsertCartLine(ctx, id, productID, quantity)
	if err != nil {
		return domain.CartLine{}, storageError("add to cart", err)
	}

	s.notify(ctx, id, domain.CartLineAdded)
	return line, nil
}

// SetQuantity overwrites a line's quantity. Use RemoveLine to drop a line.
func (s *CartService) SetQuantity(ctx context.Context, id domain.Identity, lineID string, quantity int) error {
	if id.Anonymous() {
		return domain.ErrAuthenticationRequired
	}
	if quantity < 1 {
		return domain.NewValidationError("quantity", "must be at least 1")
	}

	if err := s.repo.SetCartLineQuantity(ctx, id, lineID, quantity); err != nil {
		return storageError("set cart quantity", err)
	}

	s.notify(ctx, id, domain.CartLineUpdated)
	return nil
}

func (s *CartService) RemoveLine(ctx context.Context, id domain.Identity, lineID string) error {
	if id.Anonymous() {
		return domain.ErrAuthenticationRequired
	}

	if err := s.repo.DeleteCartLine(ctx, id, lineID); err != nil {
		return storageError("remove cart line", err)
	}

	s.notify(ctx, id, domain.CartLineRemoved)
	return nil
}

func (s *CartService) Cart(ctx context.Context, id domain.Identity) (domain.Cart, error) {
	if id.Anonymous() {
		return domain.Cart{}, domain.ErrAuthenticationRequired
	}

	lines, err := s.repo.ListCartLines(ctx, id)
	if err != nil {
		return domain.Cart{}, storageError("load cart", err)
	}
	return domain.Cart{UserID: id.UserID, Lines: lines}, nil
}

func (s *CartService) notify(ctx context.Context, id domain.Identity, reason domain.CartChangeReason) {
	s.events.Publish(ctx, domain.CartChanged{
		UserID: id.UserID,
		Reason: reason,
		At:     s.now(),
	})
}
