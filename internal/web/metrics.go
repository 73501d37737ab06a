package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"flora-advisor/internal/ui"
)

var (
	// MetricHTTPRequests counts requests by route pattern and status code
	MetricHTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flora_http_requests_total",
		Help: "Total HTTP requests by route and status code",
	}, []string{"route", "code"})

	// MetricHTTPDuration tracks handler latency by route pattern
	MetricHTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flora_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	// MetricSearches counts searches by scheme and outcome
	MetricSearches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flora_searches_total",
		Help: "Total plant searches by scheme and outcome",
	}, []string{"scheme", "outcome"})

	// MetricPlantsReturned tracks how many rows a search yields
	MetricPlantsReturned = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "flora_search_plants",
		Help:    "Plants returned per search",
		Buckets: []float64{0, 1, 5, 10, 20, 40},
	})
)

// instrument records request metrics and writes one access log line per
// request. The route label is the chi pattern, so IDs do not blow up the
// label set.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		elapsed := time.Since(start)
		MetricHTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		MetricHTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
		ui.LogRequest(r.Method, r.URL.Path, status, elapsed, r.RemoteAddr)
	})
}

// MetricsServer serves /metrics on its own listener.
type MetricsServer struct {
	server *http.Server
}

// NewMetricsServer creates a metrics server bound to addr.
func NewMetricsServer(addr string) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &MetricsServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start begins serving metrics (non-blocking).
func (m *MetricsServer) Start() {
	go func() {
		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			ui.LogStatus("error", "Metrics server error: "+err.Error())
		}
	}()
}

// Shutdown gracefully stops the metrics server.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return m.server.Shutdown(shutdownCtx)
}
