package adapter

import (
	"context"

	"storefront/internal/domain/model"
)

// PaymentGateway is the hex port for the external checkout provider.
type PaymentGateway interface {
	Name() string

	// CreateSession opens a hosted checkout session for the given amount and
	// metadata and returns the provider session id plus the redirect URL.
	// gatewayCouponID, when non-empty, applies a previously mirrored discount.
	CreateSession(ctx context.Context, amount int64, gatewayCouponID string, meta model.CheckoutMetadata) (sessionID string, payURL string, err error)

	// RetrieveSession fetches the confirmation snapshot for a session.
	// Returns domain.ErrSessionNotFound when the provider does not know it.
	RetrieveSession(ctx context.Context, sessionID string) (*model.PaymentConfirmation, error)

	// CreateDiscount mirrors a percentage discount into the provider's coupon
	// registry and returns the provider-side coupon id.
	CreateDiscount(ctx context.Context, percentage int) (gatewayCouponID string, err error)
}
