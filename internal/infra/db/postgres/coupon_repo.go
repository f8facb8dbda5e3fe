package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"storefront/internal/domain"
	"storefront/internal/domain/model"
	"storefront/internal/domain/ports/repository"
)

var _ repository.CouponRepository = (*couponRepo)(nil)

type couponRepo struct{ pool *pgxpool.Pool }

func NewCouponRepo(pool *pgxpool.Pool) *couponRepo {
	return &couponRepo{pool: pool}
}

const couponColumns = `code, buyer_id, discount_percentage, is_active, expires_at, gateway_coupon_id, created_at`

func (r *couponRepo) Save(ctx context.Context, c *model.Coupon) error {
	const q = `
INSERT INTO coupons (code, buyer_id, discount_percentage, is_active, expires_at, gateway_coupon_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (code) DO UPDATE SET
  buyer_id=$2, discount_percentage=$3, is_active=$4, expires_at=$5, gateway_coupon_id=$6;`
	_, err := r.pool.Exec(ctx, q, c.Code, c.BuyerID, c.DiscountPercentage, c.IsActive, c.ExpiresAt, c.GatewayCouponID, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("save coupon: %w", err)
	}
	return nil
}

func (r *couponRepo) FindActive(ctx context.Context, code, buyerID string) (*model.Coupon, error) {
	const q = `SELECT ` + couponColumns + ` FROM coupons WHERE code=$1 AND buyer_id=$2 AND is_active LIMIT 1;`
	c := &model.Coupon{}
	err := r.pool.QueryRow(ctx, q, code, buyerID).Scan(
		&c.Code, &c.BuyerID, &c.DiscountPercentage, &c.IsActive, &c.ExpiresAt, &c.GatewayCouponID, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find coupon: %w", err)
	}
	return c, nil
}

// Deactivate flips is_active in one statement; RowsAffected distinguishes
// "retired now" from "was never active", which callers treat as a boolean.
func (r *couponRepo) Deactivate(ctx context.Context, code, buyerID string) (bool, error) {
	const q = `UPDATE coupons SET is_active=FALSE WHERE code=$1 AND buyer_id=$2 AND is_active;`
	cmd, err := r.pool.Exec(ctx, q, code, buyerID)
	if err != nil {
		return false, fmt.Errorf("deactivate coupon: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *couponRepo) DeactivateAllForBuyer(ctx context.Context, buyerID string) error {
	const q = `UPDATE coupons SET is_active=FALSE WHERE buyer_id=$1 AND is_active;`
	if _, err := r.pool.Exec(ctx, q, buyerID); err != nil {
		return fmt.Errorf("deactivate coupons for buyer: %w", err)
	}
	return nil
}
