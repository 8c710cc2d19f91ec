package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/paystore/internal/domain"
)

const keyPrefix = "orders:"

// OrderRepository stores each session's order history as a JSON blob in Redis.
type OrderRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewOrderRepository creates a Redis-backed order repository. A zero TTL keeps
// order history indefinitely.
func NewOrderRepository(client *redis.Client, ttl time.Duration) *OrderRepository {
	return &OrderRepository{
		client: client,
		ttl:    ttl,
	}
}

// SaveOrders replaces the session's stored order list.
func (r *OrderRepository) SaveOrders(ctx context.Context, sessionID string, orders []domain.Order) error {
	key := keyPrefix + sessionID

	data, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("marshal orders: %w", err)
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set orders: %w", err)
	}

	return nil
}

// GetOrders returns the session's stored orders, most recent first. A session
// with no stored orders yields an empty list, not an error.
func (r *OrderRepository) GetOrders(ctx context.Context, sessionID string) ([]domain.Order, error) {
	key := keyPrefix + sessionID

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return []domain.Order{}, nil
		}
		return nil, fmt.Errorf("redis get orders: %w", err)
	}

	var orders []domain.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("unmarshal orders: %w", err)
	}

	return orders, nil
}

// DeleteOrders removes the session's order history.
func (r *OrderRepository) DeleteOrders(ctx context.Context, sessionID string) error {
	key := keyPrefix + sessionID

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del orders: %w", err)
	}

	return nil
}
