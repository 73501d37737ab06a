package web

import (
	"sync"
	"time"

	"flora-advisor/internal/advisor"
)

// ResultStore keeps recent results in memory so chart and export links can
// refer to them by ID. It holds at most limit entries; each expires ttl after
// it was stored.
type ResultStore struct {
	mu      sync.Mutex
	limit   int
	ttl     time.Duration
	entries map[string]storedResult
	order   []string // oldest first
	now     func() time.Time
}

// NewResultStore creates a store. Non-positive limits fall back to 128
// entries and one hour.
func NewResultStore(limit int, ttl time.Duration) *ResultStore {
	if limit <= 0 {
		limit = 128
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ResultStore{
		limit:   limit,
		ttl:     ttl,
		entries: make(map[string]storedResult),
		now:     time.Now,
	}
}

type storedResult struct {
	res      *advisor.Result
	storedAt time.Time
}

// Put stores res, evicting expired entries and then the oldest ones.
func (s *ResultStore) Put(res *advisor.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireLocked()
	if _, ok := s.entries[res.ID]; ok {
		s.removeLocked(res.ID)
	}
	s.order = append(s.order, res.ID)
	s.entries[res.ID] = storedResult{res: res, storedAt: s.now()}
	for len(s.order) > s.limit {
		delete(s.entries, s.order[0])
		s.order = s.order[1:]
	}
}

// Get returns the result stored under id, if it has not expired.
func (s *ResultStore) Get(id string) (*advisor.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireLocked()
	e, ok := s.entries[id]
	return e.res, ok
}

// Len returns the number of live entries.
func (s *ResultStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireLocked()
	return len(s.entries)
}

func (s *ResultStore) expireLocked() {
	cutoff := s.now().Add(-s.ttl)
	n := 0
	for _, id := range s.order {
		if s.entries[id].storedAt.After(cutoff) {
			break
		}
		delete(s.entries, id)
		n++
	}
	s.order = s.order[n:]
}

func (s *ResultStore) removeLocked(id string) {
	delete(s.entries, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
