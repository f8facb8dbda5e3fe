package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// -----------------------------
// Coupons
// -----------------------------

type CouponRepository interface {
	Save(ctx context.Context, c *model.Coupon) error
	// FindActive returns the active coupon matching code+buyer or domain.ErrNotFound.
	FindActive(ctx context.Context, code, buyerID string) (*model.Coupon, error)
	// Deactivate flips is_active to false. Returns false (not an error) when
	// no active coupon matched.
	Deactivate(ctx context.Context, code, buyerID string) (bool, error)
	// DeactivateAllForBuyer retires every active coupon of a buyer; used
	// before issuing a replacement.
	DeactivateAllForBuyer(ctx context.Context, buyerID string) error
}
