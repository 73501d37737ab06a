package web

import (
	"sync"
	"sync/atomic"
	"time"
)

// StatsTracker counts searches for the /api/stats endpoint.
type StatsTracker struct {
	startTime    time.Time
	searches     atomic.Int64
	plantsServed atomic.Int64
	errors       atomic.Int64

	// Hourly samples for the last day.
	history   []HistorySample
	historyMu sync.RWMutex
	now       func() time.Time
}

// HistorySample is one hourly data point.
type HistorySample struct {
	Time     string `json:"time"`
	Searches int64  `json:"searches"`
	Plants   int64  `json:"plants"`
}

// StatsResponse is the JSON body of /api/stats.
type StatsResponse struct {
	TotalSearches int64           `json:"totalSearches"`
	PlantsServed  int64           `json:"plantsServed"`
	Errors        int64           `json:"errors"`
	SuccessRate   float64         `json:"successRate"`
	UptimeSeconds int64           `json:"uptimeSeconds"`
	StoredResults int             `json:"storedResults"`
	History       []HistorySample `json:"history"`
}

// NewStatsTracker starts counting from now.
func NewStatsTracker() *StatsTracker {
	return &StatsTracker{
		startTime: time.Now(),
		history:   make([]HistorySample, 0, 24),
		now:       time.Now,
	}
}

// Run records an hourly sample until done is closed.
func (s *StatsTracker) Run(done <-chan struct{}) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.Sample()
		}
	}
}

// Sample appends the current totals to the history, keeping 24 entries.
func (s *StatsTracker) Sample() {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append(s.history, HistorySample{
		Time:     s.now().Format("15:04"),
		Searches: s.searches.Load(),
		Plants:   s.plantsServed.Load(),
	})
	if len(s.history) > 24 {
		s.history = s.history[1:]
	}
}

// RecordSearch records a completed search that returned plants rows.
func (s *StatsTracker) RecordSearch(plants int) {
	s.searches.Add(1)
	s.plantsServed.Add(int64(plants))
}

// RecordError records a search that failed upstream.
func (s *StatsTracker) RecordError() {
	s.errors.Add(1)
}

// SuccessRate is the percentage of searches that did not fail. It is 100
// before the first search.
func (s *StatsTracker) SuccessRate() float64 {
	ok := s.searches.Load()
	failed := s.errors.Load()

	total := ok + failed
	if total == 0 {
		return 100.0
	}
	return float64(ok) / float64(total) * 100.0
}

// Snapshot returns the current stats. stored is the live result count.
func (s *StatsTracker) Snapshot(stored int) StatsResponse {
	s.historyMu.RLock()
	history := make([]HistorySample, len(s.history))
	copy(history, s.history)
	s.historyMu.RUnlock()

	return StatsResponse{
		TotalSearches: s.searches.Load(),
		PlantsServed:  s.plantsServed.Load(),
		Errors:        s.errors.Load(),
		SuccessRate:   s.SuccessRate(),
		UptimeSeconds: int64(s.now().Sub(s.startTime).Seconds()),
		StoredResults: stored,
		History:       history,
	}
}
