package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

type CatalogRepository interface {
	// ListCategories returns all categories ordered by name
	ListCategories(ctx context.Context) ([]domain.Category, error)

	// ListProducts returns all products, newest first
	ListProducts(ctx context.Context) ([]domain.Product, error)

	// GetProduct returns domain.ErrNotFound when the product does not exist
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
}

type CartRepository interface {
	// UpsertCartLine atomically adds delta to the caller's line for productID, creating it when absent
	UpsertCartLine(ctx context.Context, id domain.Identity, productID string, delta int) (domain.CartLine, error)

	// SetCartLineQuantity overwrites the quantity of a line the caller owns
	SetCartLineQuantity(ctx context.Context, id domain.Identity, lineID string, quantity int) error

	// DeleteCartLine removes a line; removing a missing line is not an error
	DeleteCartLine(ctx context.Context, id domain.Identity, lineID string) error

	// ListCartLines returns the caller's lines joined with current product data
	ListCartLines(ctx context.Context, id domain.Identity) ([]domain.CartLine, error)
}

// OrderBuilder turns a cart snapshot into the order to persist.
type OrderBuilder func(lines []domain.CartLine) (domain.Order, error)

type OrderRepository interface {
	// CheckoutCart snapshots the caller's cart, stores the built order and its lines,
	// and clears the cart, all in one transaction
	CheckoutCart(ctx context.Context, id domain.Identity, build OrderBuilder) (domain.Order, error)

	// ListOrders returns the caller's orders, newest first, each with its lines
	ListOrders(ctx context.Context, id domain.Identity) ([]domain.Order, error)

	// GetOrder returns domain.ErrNotFound for missing orders and orders of other users
	GetOrder(ctx context.Context, id domain.Identity, orderID string) (*domain.Order, error)
}
