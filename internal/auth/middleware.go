package auth

import (
	"net/http"

	"flora-advisor/internal/ui"
)

// Realm is sent in the WWW-Authenticate challenge.
const Realm = "flora"

// BasicAuth rejects clients outside the store's IP allowlist and requests
// without valid credentials. Users with a per-user limit are throttled too.
func BasicAuth(store *UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !store.CheckIPAllowed(r.RemoteAddr) {
				MetricRejected.WithLabelValues("ip_denied").Inc()
				ui.LogStatus("warn", "Blocked request from "+ClientIP(r.RemoteAddr))
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}

			username, password, ok := r.BasicAuth()
			if !ok {
				challenge(w)
				return
			}
			if _, valid := store.ValidateCredentials(username, password); !valid {
				MetricRejected.WithLabelValues("unauthorized").Inc()
				ui.LogStatus("warn", "Failed login for "+username+" from "+ClientIP(r.RemoteAddr))
				challenge(w)
				return
			}
			if !store.CheckRateLimit(username) {
				MetricRejected.WithLabelValues("rate_limited").Inc()
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func challenge(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="`+Realm+`", charset="UTF-8"`)
	http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
}

// RateLimit rejects requests once the client IP has used up its bucket.
func RateLimit(limiter *IPRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(ClientIP(r.RemoteAddr)) {
				MetricRejected.WithLabelValues("rate_limited").Inc()
				w.Header().Set("Retry-After", "60")
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
