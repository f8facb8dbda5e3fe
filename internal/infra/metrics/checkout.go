package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		checkoutCompletions,
		ordersCreated,
		couponsIssued,
		couponsDeactivated,
		checkoutPhaseFailures,
	)
}

var (
	checkoutCompletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_completions_total",
			Help: "Checkout completion attempts by outcome (completed/duplicate/rejected/failed).",
		},
		[]string{"outcome"},
	)

	ordersCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders durably recorded from confirmed payments.",
		},
	)

	couponsIssued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coupons_issued_total",
			Help: "Gift coupons issued after threshold-crossing purchases.",
		},
	)

	couponsDeactivated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coupons_deactivated_total",
			Help: "Coupons retired on redemption.",
		},
	)

	checkoutPhaseFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_phase_failures_total",
			Help: "Non-fatal checkout phase failures by phase name.",
		},
		[]string{"phase"},
	)
)

func IncCheckout(outcome string) { checkoutCompletions.WithLabelValues(norm(outcome)).Inc() }

func IncOrderCreated() { ordersCreated.Inc() }

func IncCouponIssued() { couponsIssued.Inc() }

func IncCouponDeactivated() { couponsDeactivated.Inc() }

func IncPhaseFailure(phase string) { checkoutPhaseFailures.WithLabelValues(norm(phase)).Inc() }
