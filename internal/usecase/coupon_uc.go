// File: internal/usecase/coupon_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/domain/model"
	"storefront/internal/domain/ports/adapter"
	"storefront/internal/domain/ports/repository"
	"storefront/internal/infra/metrics"
)

// Compile-time check
var _ CouponUseCase = (*couponUC)(nil)

// CouponUseCase is the ledger for discount credentials: it validates and
// retires them on redemption, and issues new ones when a purchase crosses
// the configured threshold.
type CouponUseCase interface {
	// Validate returns the coupon iff it is active and unexpired for this buyer.
	Validate(ctx context.Context, code, buyerID string) (*model.Coupon, error)
	// Deactivate retires the credential. A missing or already-inactive coupon
	// is reported as false, not an error.
	Deactivate(ctx context.Context, code, buyerID string) (bool, error)
	// IssueIfEligible creates and mirrors a new coupon when totalAmount meets
	// the threshold; returns (nil, nil) below it.
	IssueIfEligible(ctx context.Context, buyerID string, totalAmount int64) (*model.Coupon, error)
}

type couponUC struct {
	coupons repository.CouponRepository
	gateway adapter.PaymentGateway
	cfg     config.CouponConfig
	log     *zerolog.Logger
}

func NewCouponUseCase(coupons repository.CouponRepository, gateway adapter.PaymentGateway, cfg config.CouponConfig, logger *zerolog.Logger) *couponUC {
	return &couponUC{coupons: coupons, gateway: gateway, cfg: cfg, log: logger}
}

func (u *couponUC) Validate(ctx context.Context, code, buyerID string) (*model.Coupon, error) {
	if code == "" || buyerID == "" {
		return nil, domain.ErrInvalidArgument
	}
	c, err := u.coupons.FindActive(ctx, code, buyerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrCouponNotFound
		}
		return nil, err
	}
	if !c.Redeemable(time.Now()) {
		return nil, domain.ErrCouponExpired
	}
	return c, nil
}

func (u *couponUC) Deactivate(ctx context.Context, code, buyerID string) (bool, error) {
	if code == "" || buyerID == "" {
		return false, domain.ErrInvalidArgument
	}
	ok, err := u.coupons.Deactivate(ctx, code, buyerID)
	if err != nil {
		return false, err
	}
	if ok {
		metrics.IncCouponDeactivated()
		u.log.Info().Str("code", code).Str("buyer_id", buyerID).Msg("coupon deactivated")
	}
	return ok, nil
}

func (u *couponUC) IssueIfEligible(ctx context.Context, buyerID string, totalAmount int64) (*model.Coupon, error) {
	if buyerID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if totalAmount < u.cfg.IssueThreshold {
		return nil, nil
	}

	// A buyer holds at most one active gift coupon; retire any predecessor.
	if err := u.coupons.DeactivateAllForBuyer(ctx, buyerID); err != nil {
		return nil, err
	}

	now := time.Now()
	c := &model.Coupon{
		Code:               "GIFT" + ulid.Make().String(),
		BuyerID:            buyerID,
		DiscountPercentage: u.cfg.DiscountPercentage,
		IsActive:           true,
		ExpiresAt:          now.AddDate(0, 0, u.cfg.ExpiryDays),
		CreatedAt:          now,
	}

	// Mirror into the provider registry so future checkout sessions can apply it.
	gwID, err := u.gateway.CreateDiscount(ctx, c.DiscountPercentage)
	if err != nil {
		return nil, err
	}
	c.GatewayCouponID = gwID

	if err := u.coupons.Save(ctx, c); err != nil {
		return nil, err
	}
	metrics.IncCouponIssued()
	u.log.Info().Str("code", c.Code).Str("buyer_id", buyerID).Int64("total_amount", totalAmount).Msg("gift coupon issued")
	return c, nil
}
