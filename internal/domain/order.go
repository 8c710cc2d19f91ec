package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatusPending is the initial status of every locally created order.
// Order status is a free-form label, distinct from the payment status enum.
const OrderStatusPending = "PENDING"

// Order is an immutable snapshot of the cart at placement time.
type Order struct {
	ID          string     `json:"id"`
	Items       []CartItem `json:"items"`
	TotalAmount int64      `json:"totalAmount"`
	Currency    string     `json:"currency"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// NewOrder creates a pending order from the given items. The item slice is
// copied so subsequent cart mutations cannot reach into the order.
func NewOrder(items []CartItem, totalAmount int64, currency string) Order {
	snapshot := make([]CartItem, len(items))
	copy(snapshot, items)

	return Order{
		ID:          uuid.New().String(),
		Items:       snapshot,
		TotalAmount: totalAmount,
		Currency:    currency,
		Status:      OrderStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
}
