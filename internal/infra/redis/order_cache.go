package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"storefront/internal/domain/model"
)

// OrderCache holds JSON-serialized order lists per buyer under a fixed TTL.
// It is derived, disposable state; a miss or stale entry only costs a slower
// read from postgres.
type OrderCache struct {
	client RedisClient
	ttl    time.Duration
}

func NewOrderCache(client RedisClient, ttl time.Duration) *OrderCache {
	return &OrderCache{client: client, ttl: ttl}
}

func orderKey(buyerID string) string { return "customer_orders:" + buyerID }

func (c *OrderCache) SetOrders(ctx context.Context, buyerID string, orders []*model.Order) error {
	data, err := json.Marshal(orders)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, orderKey(buyerID), data, c.ttl)
}

// GetOrders returns (nil, nil) on a cache miss.
func (c *OrderCache) GetOrders(ctx context.Context, buyerID string) ([]*model.Order, error) {
	data, err := c.client.Get(ctx, orderKey(buyerID))
	if err != nil {
		if errors.Is(err, Nil) {
			return nil, nil
		}
		return nil, err
	}
	var orders []*model.Order
	if err := json.Unmarshal([]byte(data), &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *OrderCache) InvalidateOrders(ctx context.Context, buyerID string) error {
	return c.client.Del(ctx, orderKey(buyerID))
}
