package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(orderCacheOps)
}

var orderCacheOps = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "order_cache_ops_total",
		Help: "Order-list cache operations by op (get/set) and result (hit/miss/error/ok).",
	},
	[]string{"op", "result"},
)

func IncCacheOp(op, result string) {
	orderCacheOps.WithLabelValues(norm(op), norm(result)).Inc()
}
