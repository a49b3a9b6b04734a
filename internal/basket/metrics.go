package basket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	basketsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scango_baskets_created_total",
		Help: "Baskets parked for collection at the till",
	})
	basketLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scango_basket_lookups_total",
		Help: "Basket lookups by result",
	}, []string{"result"})
	basketsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scango_baskets_evicted_total",
		Help: "Expired baskets removed by the in-memory sweeper",
	})
	basketsHeld = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scango_baskets_in_memory",
		Help: "Baskets held by the in-memory store after the last sweep",
	})
)
