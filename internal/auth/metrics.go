package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricRejected counts requests turned away by reason
// (ip_denied, unauthorized, rate_limited).
var MetricRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "flora_auth_rejected_total",
	Help: "Total requests rejected by the auth layer",
}, []string{"reason"})
