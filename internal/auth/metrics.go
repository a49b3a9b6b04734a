package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	installRedirects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scango_oauth_install_redirects_total",
		Help: "Install redirects issued, by result",
	}, []string{"result"})

	callbackOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scango_oauth_callbacks_total",
		Help: "OAuth callbacks by terminal state",
	}, []string{"outcome"})
)
