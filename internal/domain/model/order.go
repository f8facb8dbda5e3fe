package model

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"   // paid and recorded; awaiting fulfilment
	OrderStatusShipped   OrderStatus = "shipped"   // handed to carrier
	OrderStatusDelivered OrderStatus = "delivered" // confirmed delivered
	OrderStatusCancelled OrderStatus = "cancelled" // admin/user cancel
)

// LineItem is one purchased product position inside an order.
type LineItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"` // minor currency units
}

// Order records a completed purchase. One order exists per successful payment
// session; PaymentSessionID is the natural idempotency key and carries a
// unique index in the store.
type Order struct {
	ID               string      `json:"id"` // UUID
	BuyerID          string      `json:"buyer_id"`
	LineItems        []LineItem  `json:"line_items"`
	TotalAmount      int64       `json:"total_amount"` // minor units, to avoid float errors
	PaymentSessionID string      `json:"payment_session_id"`
	Status           OrderStatus `json:"status"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// TotalMajor returns the total in major currency units for display.
func (o *Order) TotalMajor() float64 { return float64(o.TotalAmount) / 100 }

// CanTransitionTo reports whether a status change is legal. Terminal states
// (delivered, cancelled) accept no further transitions.
func (o *Order) CanTransitionTo(next OrderStatus) bool {
	switch o.Status {
	case OrderStatusPending:
		return next == OrderStatusShipped || next == OrderStatusCancelled
	case OrderStatusShipped:
		return next == OrderStatusDelivered || next == OrderStatusCancelled
	default:
		return false
	}
}
