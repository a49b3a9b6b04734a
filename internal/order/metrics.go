package order

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ordersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "scango_unpaid_orders_total",
	Help: "Unpaid order attempts by source and result",
}, []string{"source", "result"})

// sourceLabel bounds label cardinality; source is client-supplied.
func sourceLabel(source string) string {
	switch source {
	case DefaultSource, "till":
		return source
	default:
		return "other"
	}
}
