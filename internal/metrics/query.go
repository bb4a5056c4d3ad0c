package metrics

import "time"

// Query provides queries for metrics.
type Query struct {
	store *Store
}

// NewQuery creates a new metrics query helper.
func NewQuery(store *Store) *Query {
	return &Query{store: store}
}

// Filter specifies query filters.
type Filter struct {
	JobID    string
	Unit     string
	Stage    string
	Provider string
	Model    string
	After    time.Time
	Before   time.Time
	Success  *bool // nil = any, true = success only, false = errors only
}

// List returns metrics matching the filter.
// A limit of 0 returns all matches.
func (q *Query) List(f Filter, limit int) []Metric {
	if q.store == nil {
		return nil
	}
	return q.store.List(f, limit)
}
