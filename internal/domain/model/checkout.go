package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPaid   PaymentStatus = "paid"
	PaymentStatusUnpaid PaymentStatus = "unpaid"
)

// CheckoutMetadata is the opaque order description we attach when creating a
// gateway session and read back on confirmation.
type CheckoutMetadata struct {
	BuyerID    string     `json:"buyer_id"`
	CouponCode string     `json:"coupon_code,omitempty"`
	LineItems  []LineItem `json:"line_items"`
}

// PaymentConfirmation is the gateway's view of a checkout session. It is
// produced once per checkout attempt and read-only here.
type PaymentConfirmation struct {
	SessionID     string
	PaymentStatus PaymentStatus
	AmountTotal   int64 // minor units, after discounts
	Metadata      CheckoutMetadata
}

// PreDiscountTotal sums the line items at full price. Falls back to the
// charged amount when the gateway returned no line items.
func (p *PaymentConfirmation) PreDiscountTotal() int64 {
	if len(p.Metadata.LineItems) == 0 {
		return p.AmountTotal
	}
	var total int64
	for _, li := range p.Metadata.LineItems {
		total += li.UnitPrice * int64(li.Quantity)
	}
	return total
}

type CheckoutSessionStatus string

const (
	CheckoutSessionPending   CheckoutSessionStatus = "pending"   // created; awaiting confirmation
	CheckoutSessionCompleted CheckoutSessionStatus = "completed" // order recorded
	CheckoutSessionAbandoned CheckoutSessionStatus = "abandoned" // never paid
)

// CheckoutSession is the local journal row written when a gateway session is
// created. The reconcile worker scans stale pending rows to finalize sessions
// whose success callback never arrived.
type CheckoutSession struct {
	SessionID string
	BuyerID   string
	Amount    int64 // minor units
	Status    CheckoutSessionStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
