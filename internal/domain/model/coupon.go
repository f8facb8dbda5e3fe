package model

import "time"

// Coupon is a discount credential redeemable at most once. IsActive is
// flipped to false before (or atomically with) the order that redeems it, so
// a crash mid-checkout can leave a dead coupon but never a reusable one.
type Coupon struct {
	Code               string    `json:"code"`
	BuyerID            string    `json:"buyer_id"`
	DiscountPercentage int       `json:"discount_percentage"`
	IsActive           bool      `json:"is_active"`
	ExpiresAt          time.Time `json:"expires_at"`
	// GatewayCouponID mirrors the credential into the payment provider's own
	// discount registry so future checkout sessions can apply it.
	GatewayCouponID string    `json:"gateway_coupon_id"`
	CreatedAt       time.Time `json:"created_at"`
}

// Redeemable reports whether the coupon can still be applied at `now`.
func (c *Coupon) Redeemable(now time.Time) bool {
	return c.IsActive && now.Before(c.ExpiresAt)
}

// Discount returns the discount in minor units for a given total.
func (c *Coupon) Discount(totalAmount int64) int64 {
	return totalAmount * int64(c.DiscountPercentage) / 100
}
