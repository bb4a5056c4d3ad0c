package metrics

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store keeps usage metrics in memory, oldest first.
type Store struct {
	mu      sync.RWMutex
	metrics []Metric
}

// NewStore creates an empty metric store.
func NewStore() *Store {
	return &Store{}
}

// Add appends a metric, assigning an ID and timestamp when missing.
// Returns the metric's ID.
func (s *Store) Add(m Metric) string {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	s.mu.Lock()
	s.metrics = append(s.metrics, m)
	s.mu.Unlock()

	return m.ID
}

// Len returns the number of stored metrics.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.metrics)
}

// List returns metrics matching the filter, oldest first.
// A limit of 0 returns all matches.
func (s *Store) List(f Filter, limit int) []Metric {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Metric
	for _, m := range s.metrics {
		if !matchesFilter(m, f) {
			continue
		}
		matched = append(matched, m)
		if limit > 0 && len(matched) >= limit {
			break
		}
	}
	return matched
}

func matchesFilter(m Metric, f Filter) bool {
	if f.JobID != "" && m.JobID != f.JobID {
		return false
	}
	if f.Unit != "" && m.Unit != f.Unit {
		return false
	}
	if f.Stage != "" && m.Stage != f.Stage {
		return false
	}
	if f.Provider != "" && m.Provider != f.Provider {
		return false
	}
	if f.Model != "" && m.Model != f.Model {
		return false
	}
	if !f.After.IsZero() && !m.CreatedAt.After(f.After) {
		return false
	}
	if !f.Before.IsZero() && !m.CreatedAt.Before(f.Before) {
		return false
	}
	if f.Success != nil && m.Success != *f.Success {
		return false
	}
	return true
}
