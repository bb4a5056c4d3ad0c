// Package jobs provides in-memory job bookkeeping and a bounded worker pool
// for running bundle generations in the background.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/abapscribe/scribe/internal/abap"
	"github.com/abapscribe/scribe/internal/home"
	"github.com/abapscribe/scribe/internal/metrics"
)

// Job is the interface that all job types must implement.
type Job interface {
	// Type returns the job type identifier.
	Type() string

	// Execute runs the job. It should respect context cancellation.
	// Dependencies are retrieved via DepsFromContext(ctx) and the job's
	// record ID via JobIDFromContext(ctx).
	Execute(ctx context.Context) error
}

// Dependencies provides access to shared resources for job execution.
type Dependencies struct {
	Engine  *abap.Engine
	Jobs    *Store
	Metrics *metrics.Store
	Home    *home.Dir
	Logger  *slog.Logger
}

// depsKey is the context key for Dependencies.
type depsKey struct{}

// ContextWithDeps returns a new context with Dependencies attached.
func ContextWithDeps(ctx context.Context, deps Dependencies) context.Context {
	return context.WithValue(ctx, depsKey{}, deps)
}

// DepsFromContext retrieves Dependencies from the context.
// Returns a Dependencies with nil fields if not found.
func DepsFromContext(ctx context.Context) Dependencies {
	deps, ok := ctx.Value(depsKey{}).(Dependencies)
	if !ok {
		return Dependencies{}
	}
	return deps
}

// jobIDKey is the context key for the executing job's record ID.
type jobIDKey struct{}

// ContextWithJobID returns a new context carrying the job record ID.
func ContextWithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, jobIDKey{}, jobID)
}

// JobIDFromContext retrieves the job record ID from the context.
// Returns "" if not found.
func JobIDFromContext(ctx context.Context) string {
	jobID, ok := ctx.Value(jobIDKey{}).(string)
	if !ok {
		return ""
	}
	return jobID
}

// Status represents the current state of a job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status is a final state.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Record represents a job record held by the Store.
type Record struct {
	ID          string         `json:"id"`
	JobType     string         `json:"job_type"`
	Status      Status         `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Error       string         `json:"error,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// NewRecord creates a new job record for submission.
func NewRecord(jobType string, metadata map[string]any) *Record {
	return &Record{
		JobType:   jobType,
		Status:    StatusQueued,
		CreatedAt: time.Now().UTC(),
		Metadata:  metadata,
	}
}

// clone returns a copy of the record that callers may mutate freely.
func (r *Record) clone() *Record {
	out := *r
	if r.StartedAt != nil {
		t := *r.StartedAt
		out.StartedAt = &t
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		out.CompletedAt = &t
	}
	if r.Metadata != nil {
		out.Metadata = make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}
