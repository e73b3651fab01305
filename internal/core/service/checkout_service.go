package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

type CheckoutService struct {
	orders port.OrderRepository
	guard  port.IdempotencyGuard
	events *EventBus
	now    func() time.Time
	newID  func() string
}

func NewCheckoutService(orders port.OrderRepository, guard port.IdempotencyGuard, events *EventBus) *CheckoutService {
	if events == nil {
		events = NewEventBus()
	}
	return &CheckoutService{
		orders: orders,
		guard:  guard,
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// PlaceOrder turns the caller's whole cart into a pending order. The order,
// its lines and the cart clear are committed together or not at all.
//
// A non-empty requestKey guards against the same checkout being submitted twice.
func (s *CheckoutService) PlaceOrder(ctx context.Context, id domain.Identity, customer domain.CustomerInfo, requestKey string) (domain.Receipt, error) {
	if id.Anonymous() {
		return domain.Receipt{}, domain.ErrAuthenticationRequired
	}

	customer = normalizeCustomer(customer)
	if err := validateCustomer(customer); err != nil {
		return domain.Receipt{}, err
	}

	var idempotencyKey string
	if requestKey != "" && s.guard != nil {
		idempotencyKey = fmt.Sprintf("checkout:%s:%s", id.UserID, requestKey)

		ok, err := s.guard.SetIdempotency(ctx, idempotencyKey)
		if err != nil {
			slog.Error("idempotency check failed", "user", id.UserID, "error", err)
			return domain.Receipt{}, domain.ErrOrderPlacementFailed
		}
		if !ok {
			return domain.Receipt{}, domain.ErrDuplicateRequest
		}
	}

	order, err := s.orders.CheckoutCart(ctx, id, func(lines []domain.CartLine) (domain.Order, error) {
		return s.buildOrder(id, customer, lines)
	})
	if err != nil {
		s.release(ctx, idempotencyKey)
		if callerError(err) {
			return domain.Receipt{}, err
		}
		slog.Error("place order failed", "user", id.UserID, "error", err)
		return domain.Receipt{}, domain.ErrOrderPlacementFailed
	}

	slog.Info("order placed", "order", order.ID, "user", id.UserID, "lines", len(order.Lines), "total", order.Total.StringFixed(2))

	s.events.Publish(ctx, domain.CartChanged{
		UserID: id.UserID,
		Reason: domain.CartCheckedOut,
		At:     order.CreatedAt,
	})

	return domain.Receipt{Order: order}, nil
}

// buildOrder prices the cart snapshot at current product prices and checks
// every line against current stock. Stock is not reserved.
func (s *CheckoutService) buildOrder(id domain.Identity, customer domain.CustomerInfo, cart []domain.CartLine) (domain.Order, error) {
	if len(cart) == 0 {
		return domain.Order{}, domain.ErrEmptyCart
	}

	orderID := s.newID()
	now := s.now()
	total := decimal.Zero
	lines := make([]domain.OrderLine, 0, len(cart))

	for _, item := range cart {
		if item.Quantity > item.Stock {
			return domain.Order{}, fmt.Errorf("%w: %s has %d left", domain.ErrInsufficientStock, item.ProductName, item.Stock)
		}

		line := domain.OrderLine{
			ID:           s.newID(),
			OrderID:      orderID,
			ProductID:    item.ProductID,
			Quantity:     item.Quantity,
			Price:        item.Price,
			CreatedAt:    now,
			ProductName:  item.ProductName,
			ProductImage: item.ProductImage,
		}
		total = total.Add(line.Subtotal())
		lines = append(lines, line)
	}

	return domain.Order{
		ID:        orderID,
		UserID:    id.UserID,
		Total:     total,
		Status:    domain.OrderStatusPending,
		Customer:  customer,
		CreatedAt: now,
		Lines:     lines,
	}, nil
}

func (s *CheckoutService) release(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.guard.ReleaseIdempotency(ctx, key); err != nil {
		slog.Warn("release idempotency key failed", "key", key, "error", err)
	}
}

func normalizeCustomer(c domain.CustomerInfo) domain.CustomerInfo {
	return domain.CustomerInfo{
		Name:    strings.TrimSpace(c.Name),
		Email:   strings.TrimSpace(c.Email),
		Address: strings.TrimSpace(c.Address),
	}
}

func validateCustomer(c domain.CustomerInfo) error {
	if c.Name == "" {
		return domain.NewValidationError("name", "is required")
	}
	if c.Email == "" {
		return domain.NewValidationError("email", "is required")
	}
	if addr, err := mail.ParseAddress(c.Email); err != nil || addr.Address != c.Email {
		return domain.NewValidationError("email", "is not a valid address")
	}
	if c.Address == "" {
		return domain.NewValidationError("address", "is required")
	}
	return nil
}
