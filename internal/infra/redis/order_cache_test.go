//go:build !integration

package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"storefront/internal/domain/model"
)

// fakeRedis is an in-memory RedisClient for cache tests.
type fakeRedis struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Ping(ctx context.Context) error { return nil }

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	default:
		return fmt.Errorf("unexpected value type %T", value)
	}
	f.ttls[key] = expiration
	return nil
}

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", Nil
	}
	return v, nil
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
		delete(f.ttls, k)
	}
	return nil
}

func (f *fakeRedis) Close() error { return nil }

func TestOrderCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	cache := NewOrderCache(fake, 10*time.Hour)

	orders := []*model.Order{{
		ID:          "order_1",
		BuyerID:     "buyer_1",
		LineItems:   []model.LineItem{{ProductID: "prod_1", Quantity: 2, UnitPrice: 12500}},
		TotalAmount: 25000,
		Status:      model.OrderStatusPending,
	}}
	if err := cache.SetOrders(ctx, "buyer_1", orders); err != nil {
		t.Fatalf("SetOrders: %v", err)
	}

	got, err := cache.GetOrders(ctx, "buyer_1")
	if err != nil {
		t.Fatalf("GetOrders: %v", err)
	}
	if len(got) != 1 || got[0].ID != "order_1" || got[0].TotalAmount != 25000 {
		t.Errorf("round trip lost data: %+v", got)
	}
	if ttl := fake.ttls["customer_orders:buyer_1"]; ttl != 10*time.Hour {
		t.Errorf("ttl = %s, want 10h", ttl)
	}
}

func TestOrderCache_MissIsNotAnError(t *testing.T) {
	cache := NewOrderCache(newFakeRedis(), time.Hour)
	got, err := cache.GetOrders(context.Background(), "buyer_unknown")
	if err != nil {
		t.Fatalf("GetOrders on miss: %v", err)
	}
	if got != nil {
		t.Errorf("miss returned %+v", got)
	}
}

func TestOrderCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	cache := NewOrderCache(fake, time.Hour)

	if err := cache.SetOrders(ctx, "buyer_1", []*model.Order{{ID: "order_1"}}); err != nil {
		t.Fatal(err)
	}
	if err := cache.InvalidateOrders(ctx, "buyer_1"); err != nil {
		t.Fatalf("InvalidateOrders: %v", err)
	}
	got, err := cache.GetOrders(ctx, "buyer_1")
	if err != nil || got != nil {
		t.Errorf("entry survived invalidation: %+v, %v", got, err)
	}
}

func TestOrderCache_KeysAreScopedPerBuyer(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	cache := NewOrderCache(fake, time.Hour)

	cache.SetOrders(ctx, "buyer_1", []*model.Order{{ID: "order_1"}})
	cache.SetOrders(ctx, "buyer_2", []*model.Order{{ID: "order_2"}})
	cache.InvalidateOrders(ctx, "buyer_1")

	got, err := cache.GetOrders(ctx, "buyer_2")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "order_2" {
		t.Errorf("neighbor entry affected: %+v", got)
	}
}
