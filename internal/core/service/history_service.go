package service

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

type OrderHistoryService struct {
	orders port.OrderRepository
}

func NewOrderHistoryService(orders port.OrderRepository) *OrderHistoryService {
	return &OrderHistoryService{orders: orders}
}

// ListOrders returns the caller's orders, newest first, with their lines.
func (s *OrderHistoryService) ListOrders(ctx context.Context, id domain.Identity) ([]domain.Order, error) {
	if id.Anonymous() {
		return nil, domain.ErrAuthenticationRequired
	}

	orders, err := s.orders.ListOrders(ctx, id)
	if err != nil {
		return nil, storageError("list orders", err)
	}
	return orders, nil
}

func (s *OrderHistoryService) GetOrder(ctx context.Context, id domain.Identity, orderID string) (*domain.Order, error) {
	if id.Anonymous() {
		return nil, domain.ErrAuthenticationRequired
	}

	order, err := s.orders.GetOrder(ctx, id, orderID)
	if err != nil {
		return nil, storageError("get order", err)
	}
	return order, nil
}
