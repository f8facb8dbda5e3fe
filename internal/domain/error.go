package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrForbidden       = errors.New("resource belongs to another buyer")

	// Checkout completion errors. ErrSessionNotFound and ErrPaymentIncomplete
	// are rejected before any side effect runs; ErrOrderPersistFailed means the
	// payment is confirmed at the gateway but no local order exists, so the
	// same session id can be retried safely.
	ErrSessionNotFound    = errors.New("checkout session not found")
	ErrPaymentIncomplete  = errors.New("payment not completed")
	ErrOrderPersistFailed = errors.New("order could not be persisted")

	ErrCouponNotFound = errors.New("coupon not found or inactive")
	ErrCouponExpired  = errors.New("coupon has expired")

	ErrInvalidStatusTransition = errors.New("invalid order status transition")
)
