package auth

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// cleanupThreshold is the map size above which idle entries are pruned.
	cleanupThreshold = 500
	// maxIdleAge is how long an entry may go unused before it can be pruned.
	maxIdleAge = 10 * time.Minute
)

// PerMinute converts a requests-per-minute figure to a rate.Limit.
func PerMinute(rpm int) rate.Limit {
	if rpm <= 0 {
		return rate.Inf
	}
	return rate.Every(time.Minute / time.Duration(rpm))
}

type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	mu  sync.Mutex
	ips map[string]*ipEntry
	r   rate.Limit
	b   int
	now func() time.Time
}

// NewIPRateLimiter creates a limiter allowing r events per second with
// burst b for each IP.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	if b < 1 {
		b = 1
	}
	return &IPRateLimiter{
		ips: make(map[string]*ipEntry),
		r:   r,
		b:   b,
		now: time.Now,
	}
}

// Limiter returns the bucket for ip, pruning idle entries once the map
// grows past cleanupThreshold.
func (l *IPRateLimiter) Limiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.ips) > cleanupThreshold {
		cutoff := now.Add(-maxIdleAge)
		for k, e := range l.ips {
			if e.lastSeen.Before(cutoff) {
				delete(l.ips, k)
			}
		}
	}

	e, ok := l.ips[ip]
	if !ok {
		e = &ipEntry{limiter: rate.NewLimiter(l.r, l.b)}
		l.ips[ip] = e
	}
	e.lastSeen = now
	return e.limiter
}

// Allow reports whether ip may make a request now.
func (l *IPRateLimiter) Allow(ip string) bool {
	return l.Limiter(ip).Allow()
}

// Len returns the number of tracked IPs.
func (l *IPRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ips)
}
