package service

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

var errBoom = errors.New("connection reset")

// mockCartRepo keeps cart lines in memory keyed by line id.
type mockCartRepo struct {
	mu     sync.Mutex
	lines  map[string]domain.CartLine
	prices map[string]decimal.Decimal
	err    error
	calls  int
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{
		lines: make(map[string]domain.CartLine),
		prices: map[string]decimal.Decimal{
			"headphones": decimal.RequireFromString("199.99"),
		},
	}
}

func (m *mockCartRepo) UpsertCartLine(ctx context.Context, id domain.Identity, productID string, delta int) (domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return domain.CartLine{}, m.err
	}
	price, ok := m.prices[productID]
	if !ok {
		return domain.CartLine{}, domain.ErrNotFound
	}

	lineID := id.UserID + "/" + productID
	line := m.lines[lineID]
	line.ID, line.UserID, line.ProductID, line.Price = lineID, id.UserID, productID, price
	line.Quantity += delta
	m.lines[lineID] = line
	return line, nil
}

func (m *mockCartRepo) SetCartLineQuantity(ctx context.Context, id domain.Identity, lineID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return m.err
	}
	line, ok := m.lines[lineID]
	if !ok || line.UserID != id.UserID {
		return domain.ErrNotFound
	}
	line.Quantity = quantity
	m.lines[lineID] = line
	return nil
}

func (m *mockCartRepo) DeleteCartLine(ctx context.Context, id domain.Identity, lineID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return m.err
	}
	if line, ok := m.lines[lineID]; ok && line.UserID == id.UserID {
		delete(m.lines, lineID)
	}
	return nil
}

func (m *mockCartRepo) ListCartLines(ctx context.Context, id domain.Identity) ([]domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.CartLine
	for _, l := range m.lines {
		if l.UserID == id.UserID {
			out = append(out, l)
		}
	}
	return out, nil
}

// mockOrderRepo hands a fixed cart snapshot to the builder.
type mockOrderRepo struct {
	mu     sync.Mutex
	cart   []domain.CartLine
	orders []domain.Order
	err    error
}

func (m *mockOrderRepo) CheckoutCart(ctx context.Context, id domain.Identity, build port.OrderBuilder) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.Order{}, m.err
	}
	if len(m.cart) == 0 {
		return domain.Order{}, domain.ErrEmptyCart
	}
	order, err := build(m.cart)
	if err != nil {
		return domain.Order{}, err
	}
	m.orders = append(m.orders, order)
	m.cart = nil
	return order, nil
}

func (m *mockOrderRepo) ListOrders(ctx context.Context, id domain.Identity) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Order
	for _, o := range m.orders {
		if o.UserID == id.UserID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) GetOrder(ctx context.Context, id domain.Identity, orderID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, o := range m.orders {
		if o.ID == orderID && o.UserID == id.UserID {
			return &o, nil
		}
	}
	return nil, domain.ErrNotFound
}

type mockGuard struct {
	mu       sync.Mutex
	keys     map[string]bool
	released []string
	err      error
}

func newMockGuard() *mockGuard {
	return &mockGuard{keys: make(map[string]bool)}
}

func (m *mockGuard) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *mockGuard) ReleaseIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	m.released = append(m.released, key)
	return nil
}

// recorder collects published cart events.
type recorder struct {
	mu     sync.Mutex
	events []domain.CartChanged
}

func (r *recorder) listen(ctx context.Context, ev domain.CartChanged) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) reasons() []domain.CartChangeReason {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.CartChangeReason, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Reason)
	}
	return out
}
