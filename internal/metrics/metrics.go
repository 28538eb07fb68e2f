// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	CacheLookups    *prometheus.CounterVec
	StoreFetches    *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	OpenViews       prometheus.Gauge
}

// New creates the collectors and registers them with reg when it is not nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Entity cache lookups by result.",
		}, []string{"entity", "result"}),
		StoreFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "store_fetches_total",
			Help: "Document store fetches issued by the entity cache.",
		}, []string{"entity", "kind"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		OpenViews: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "open_views",
			Help: "Paginated session views currently open.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.CacheLookups, m.StoreFetches, m.HTTPRequests, m.RequestDuration, m.OpenViews)
	}
	return m
}
