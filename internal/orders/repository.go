package orders

import (
	"context"

	"github.com/utafrali/paystore/internal/domain"
)

// Repository persists a session's placed orders as a single durable blob,
// replaced wholesale whenever the list changes.
type Repository interface {
	SaveOrders(ctx context.Context, sessionID string, orders []domain.Order) error
	GetOrders(ctx context.Context, sessionID string) ([]domain.Order, error)
	DeleteOrders(ctx context.Context, sessionID string) error
}
