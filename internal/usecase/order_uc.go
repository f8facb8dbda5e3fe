// File: internal/usecase/order_uc.go
package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"storefront/internal/domain"
	"storefront/internal/domain/model"
	"storefront/internal/domain/ports/repository"
	"storefront/internal/infra/logging"
	"storefront/internal/infra/metrics"
)

// Compile-time check
var _ OrderUseCase = (*orderUC)(nil)

type OrderUseCase interface {
	// ListByBuyer serves the buyer's order history cache-aside: cache hit
	// wins, a miss falls through to the store and refills the cache.
	ListByBuyer(ctx context.Context, buyerID string) ([]*model.Order, error)
	ListAll(ctx context.Context, offset, limit int) ([]*model.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error)
}

type orderUC struct {
	orders repository.OrderRepository
	cache  OrderCache
	log    *zerolog.Logger
}

func NewOrderUseCase(orders repository.OrderRepository, cache OrderCache, logger *zerolog.Logger) *orderUC {
	return &orderUC{orders: orders, cache: cache, log: logger}
}

func (u *orderUC) ListByBuyer(ctx context.Context, buyerID string) ([]*model.Order, error) {
	if buyerID == "" {
		return nil, domain.ErrInvalidArgument
	}

	if cached, err := u.cache.GetOrders(ctx, buyerID); err == nil && cached != nil {
		metrics.IncCacheOp("get", "hit")
		return cached, nil
	}
	metrics.IncCacheOp("get", "miss")

	orders, err := u.orders.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	// Refill is best-effort; the cache is never authoritative.
	if err := u.cache.SetOrders(ctx, buyerID, orders); err != nil {
		metrics.IncCacheOp("set", "error")
		logging.With(ctx, u.log).Warn().Err(err).Str("buyer_id", buyerID).Msg("order cache refill failed")
	} else {
		metrics.IncCacheOp("set", "ok")
	}
	return orders, nil
}

func (u *orderUC) ListAll(ctx context.Context, offset, limit int) ([]*model.Order, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return u.orders.ListAll(ctx, offset, limit)
}

func (u *orderUC) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error) {
	if orderID == "" {
		return nil, domain.ErrInvalidArgument
	}
	o, err := u.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.CanTransitionTo(status) {
		return nil, domain.ErrInvalidStatusTransition
	}
	if err := u.orders.UpdateStatus(ctx, orderID, status); err != nil {
		return nil, err
	}
	o.Status = status

	// Stale cache entries only slow the next read; drop rather than rebuild.
	if err := u.cache.InvalidateOrders(ctx, o.BuyerID); err != nil {
		logging.With(ctx, u.log).Warn().Err(err).Str("buyer_id", o.BuyerID).Msg("order cache invalidation failed")
	}
	return o, nil
}
