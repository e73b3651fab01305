package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

// Orders are created pending; later transitions belong to fulfilment, not checkout.
const OrderStatusPending OrderStatus = "pending"

// CustomerInfo is copied onto the order at checkout, never joined back to a profile.
type CustomerInfo struct {
	Name    string
	Email   string
	Address string
}

type Order struct {
	ID        string
	UserID    string
	Total     decimal.Decimal
	Status    OrderStatus
	Customer  CustomerInfo
	CreatedAt time.Time
	Lines     []OrderLine
}

type OrderLine struct {
	ID        string
	OrderID   string
	ProductID string // empty once the product is deleted
	Quantity  int
	Price     decimal.Decimal // unit price captured at order time
	CreatedAt time.Time

	// display fields joined from the current product row, empty if it is gone
	ProductName  string
	ProductImage string
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Receipt is what a successful checkout hands back to the caller.
type Receipt struct {
	Order Order
}
