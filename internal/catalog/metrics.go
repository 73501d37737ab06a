package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MetricRequests counts catalog calls by HTTP status (or transport_error)
	MetricRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flora_catalog_requests_total",
		Help: "Total catalog API requests by status",
	}, []string{"status"})

	// MetricRequestDuration tracks catalog round-trip latency
	MetricRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "flora_catalog_request_duration_seconds",
		Help:    "Catalog API request duration in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})
)
