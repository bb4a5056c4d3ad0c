package jobs

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound reports a job ID with no record.
var ErrNotFound = errors.New("job not found")

// Store holds job records in memory. It does not execute jobs - that's
// handled by the Runner, which updates job status via the store.
type Store struct {
	mu      sync.RWMutex
	records map[string]*Record
	order   []string
	logger  *slog.Logger
}

// NewStore creates an empty job store.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		records: make(map[string]*Record),
		logger:  logger,
	}
}

// Create registers a new queued job record and returns its ID.
func (s *Store) Create(jobType string, metadata map[string]any) string {
	record := NewRecord(jobType, metadata)
	record.ID = uuid.NewString()

	s.mu.Lock()
	s.records[record.ID] = record
	s.order = append(s.order, record.ID)
	s.mu.Unlock()

	s.logger.Info("job created", "id", record.ID, "type", jobType)
	return record.ID
}

// Get returns a copy of the job record by ID.
func (s *Store) Get(jobID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	return record.clone(), nil
}

// ListFilter specifies criteria for listing jobs.
type ListFilter struct {
	Status  Status // Filter by status (empty = all)
	JobType string // Filter by job type (empty = all)
	Limit   int    // Max results (0 = default 100)
}

// List returns copies of jobs matching the filter, newest first.
func (s *Store) List(filter ListFilter) []*Record {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	records := []*Record{}
	for i := len(s.order) - 1; i >= 0 && len(records) < limit; i-- {
		record := s.records[s.order[i]]
		if filter.Status != "" && record.Status != filter.Status {
			continue
		}
		if filter.JobType != "" && record.JobType != filter.JobType {
			continue
		}
		records = append(records, record.clone())
	}
	return records
}

// UpdateStatus updates a job's status, stamping started_at on the transition
// to running and completed_at on any terminal transition.
func (s *Store) UpdateStatus(jobID string, status Status, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[jobID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}

	record.Status = status
	now := time.Now().UTC()
	switch status {
	case StatusRunning:
		record.StartedAt = &now
	case StatusCompleted, StatusFailed, StatusCancelled:
		record.CompletedAt = &now
	}
	if errMsg != "" {
		record.Error = errMsg
	}

	s.logger.Debug("job status updated", "id", jobID, "status", status)
	return nil
}

// UpdateMetadata replaces a job's metadata (for result and progress data).
func (s *Store) UpdateMetadata(jobID string, metadata map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[jobID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	record.Metadata = metadata
	return nil
}
