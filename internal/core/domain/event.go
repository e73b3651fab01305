package domain

import "time"

type CartChangeReason string

const (
	CartLineAdded   CartChangeReason = "added"
	CartLineUpdated CartChangeReason = "updated"
	CartLineRemoved CartChangeReason = "removed"
	CartCheckedOut  CartChangeReason = "checkout"
)

// CartChanged tells interested views that a user's cart contents moved.
type CartChanged struct {
	UserID string           `json:"user_id"`
	Reason CartChangeReason `json:"reason"`
	At     time.Time        `json:"at"`
}
