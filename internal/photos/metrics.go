package photos

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricRequests counts photo search calls by HTTP status (or transport_error)
var MetricRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "flora_photos_requests_total",
	Help: "Total photo search API requests by status",
}, []string{"status"})
