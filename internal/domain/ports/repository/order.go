package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// -----------------------------
// Orders
// -----------------------------

type OrderRepository interface {
	// Insert persists a new order. Returns domain.ErrAlreadyExists when an
	// order with the same payment session id is already recorded; callers use
	// that as the authoritative duplicate signal.
	Insert(ctx context.Context, o *model.Order) error
	FindByID(ctx context.Context, id string) (*model.Order, error)
	// FindByPaymentSessionID returns domain.ErrNotFound when absent.
	FindByPaymentSessionID(ctx context.Context, sessionID string) (*model.Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]*model.Order, error)
	ListAll(ctx context.Context, offset, limit int) ([]*model.Order, error)
	UpdateStatus(ctx context.Context, id string, status model.OrderStatus) error
}
