package llmcall

import (
	"sync"
	"time"
)

// DefaultCapacity bounds the in-memory call history when no explicit
// capacity is given. Oldest records are evicted first.
const DefaultCapacity = 4096

// Store keeps recorded LLM calls in memory, newest appended last.
type Store struct {
	mu       sync.RWMutex
	capacity int
	calls    []*Call
	byID     map[string]*Call
}

// NewStore creates a call store holding at most capacity records.
// A capacity <= 0 uses DefaultCapacity.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity: capacity,
		byID:     make(map[string]*Call),
	}
}

// QueryFilter specifies filters for listing LLM calls.
type QueryFilter struct {
	JobID     string
	Unit      string
	PromptKey string
	Provider  string
	Model     string
	After     *time.Time
	Before    *time.Time
	Success   *bool
	Limit     int
	Offset    int
}

// Add appends a call record, evicting the oldest when over capacity.
func (s *Store) Add(call *Call) {
	if call == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, call)
	if call.ID != "" {
		s.byID[call.ID] = call
	}

	for len(s.calls) > s.capacity {
		evicted := s.calls[0]
		s.calls = s.calls[1:]
		if evicted.ID != "" {
			delete(s.byID, evicted.ID)
		}
	}
}

// Get retrieves a single LLM call by ID.
func (s *Store) Get(id string) (*Call, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	call, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	copied := *call
	return &copied, true
}

// Len returns the number of stored calls.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.calls)
}

// List retrieves LLM calls matching the filter, oldest first.
func (s *Store) List(filter QueryFilter) []Call {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Call
	for _, c := range s.calls {
		if !matches(c, filter) {
			continue
		}
		matched = append(matched, *c)
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched
}

// CountByPromptKey returns call counts grouped by prompt key.
// An empty jobID counts across all jobs.
func (s *Store) CountByPromptKey(jobID string) map[string]int {
	calls := s.List(QueryFilter{JobID: jobID})

	counts := make(map[string]int)
	for _, c := range calls {
		counts[c.PromptKey]++
	}
	return counts
}

func matches(c *Call, f QueryFilter) bool {
	if f.JobID != "" && c.JobID != f.JobID {
		return false
	}
	if f.Unit != "" && c.Unit != f.Unit {
		return false
	}
	if f.PromptKey != "" && c.PromptKey != f.PromptKey {
		return false
	}
	if f.Provider != "" && c.Provider != f.Provider {
		return false
	}
	if f.Model != "" && c.Model != f.Model {
		return false
	}
	if f.Success != nil && c.Success != *f.Success {
		return false
	}
	if f.After != nil && !c.Timestamp.After(*f.After) {
		return false
	}
	if f.Before != nil && !c.Timestamp.Before(*f.Before) {
		return false
	}
	return true
}
