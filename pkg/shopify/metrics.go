package shopify

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "scango_shopify_request_duration_seconds",
	Help:    "Latency of outbound Shopify Admin API and OAuth calls",
	Buckets: prometheus.DefBuckets,
}, []string{"op", "outcome"})

func observe(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	requestDuration.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
}
