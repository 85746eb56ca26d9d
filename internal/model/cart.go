package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultMaxLineQuantity caps the quantity of one cart line when no limit is configured.
const DefaultMaxLineQuantity = 99

// ValidQuantity reports whether q is within [1, max].
func ValidQuantity(q, max int) bool {
	return q >= 1 && q <= max
}

// CartItem is one entry of a shopper's live cart.
type CartItem struct {
	ProductID string  `json:"productId"`
	Variant   Variant `json:"variant"`
	Quantity  int     `json:"quantity"`
}

// Cart is the live, mutable cart of a user.
type Cart struct {
	UserID    uuid.UUID  `json:"userId"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CartSnapshot is an immutable copy of a cart taken when checkout starts.
type CartSnapshot struct {
	UserID  uuid.UUID
	Lines   []CartItem
	TakenAt time.Time
}

// ProductIDs returns the distinct product IDs referenced by the snapshot, in order.
func (s *CartSnapshot) ProductIDs() []string {
	seen := make(map[string]struct{}, len(s.Lines))
	ids := make([]string, 0, len(s.Lines))
	for _, line := range s.Lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	return ids
}

// CartItemRequest is the payload for adding or updating a cart item.
type CartItemRequest struct {
	ProductID string  `json:"productId"`
	Variant   Variant `json:"variant"`
	Quantity  int     `json:"quantity"`
}
