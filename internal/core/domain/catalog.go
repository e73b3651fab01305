package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          string
	Name        string
	Slug        string
	Description string
}

type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	ImageURL    string
	CategoryID  string // empty when uncategorised
	Stock       int
	Featured    bool
	CreatedAt   time.Time
}
