package querier

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	cacheRequests *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	return &metrics{
		cacheRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "tracelens",
			Name:      "view_cache_requests_total",
			Help:      "View stage computations served from or added to the cache.",
		}, []string{"stage", "result"}),
	}
}
