package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

var (
	// ErrQueueFull reports a submission rejected because the queue is at
	// capacity.
	ErrQueueFull = errors.New("job queue full")

	// ErrStopped reports a submission after the runner began shutting down.
	ErrStopped = errors.New("job runner stopped")
)

// Runner executes submitted jobs on a bounded pool of workers. All workers
// pull from a single shared queue - natural load balancing via Go channel
// semantics.
type Runner struct {
	logger      *slog.Logger
	store       *Store
	deps        Dependencies
	workerCount int

	queue chan queuedJob
	wg    sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool

	// In-flight tracking
	inFlight atomic.Int32
}

type queuedJob struct {
	id  string
	job Job
}

// RunnerConfig configures a new Runner.
type RunnerConfig struct {
	Logger       *slog.Logger
	Store        *Store
	Dependencies Dependencies
	WorkerCount  int // Number of worker goroutines (default: 2)
	QueueSize    int // Queue size (default: 100)
}

// NewRunner creates a new job runner.
func NewRunner(cfg RunnerConfig) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	workerCount := cfg.WorkerCount
	if workerCount <= 0 {
		workerCount = 2
	}

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 100
	}

	return &Runner{
		logger:      logger.With("component", "jobs", "workers", workerCount),
		store:       cfg.Store,
		deps:        cfg.Dependencies,
		workerCount: workerCount,
		queue:       make(chan queuedJob, queueSize),
	}
}

// Start launches the worker goroutines. It does not block; cancel ctx and
// call Stop to shut down.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.mu.Unlock()

	r.logger.Info("job runner starting", "queue_size", cap(r.queue))
	for i := 0; i < r.workerCount; i++ {
		r.wg.Add(1)
		go r.worker(ctx, i)
	}
}

// Submit records job as queued and enqueues it for execution, returning the
// new job ID. When the queue is full the record is marked failed and
// ErrQueueFull returned.
func (r *Runner) Submit(job Job, metadata map[string]any) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return "", ErrStopped
	}

	id := r.store.Create(job.Type(), metadata)
	select {
	case r.queue <- queuedJob{id: id, job: job}:
		r.logger.Debug("job queued", "job_id", id, "job_type", job.Type(), "queue_len", len(r.queue))
		return id, nil
	default:
		r.logger.Warn("job queue full", "job_id", id, "job_type", job.Type())
		r.setStatus(r.logger, id, StatusFailed, ErrQueueFull.Error())
		return "", ErrQueueFull
	}
}

// Stop closes the queue and waits for the workers to drain it.
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	close(r.queue)
	r.mu.Unlock()

	r.logger.Info("job runner draining")
	r.wg.Wait()
	r.logger.Info("job runner stopped")
}

// RunnerStatus is a point-in-time snapshot of the pool.
type RunnerStatus struct {
	Workers    int `json:"workers"`
	InFlight   int `json:"in_flight"`
	QueueDepth int `json:"queue_depth"`
}

// Status returns current pool status.
func (r *Runner) Status() RunnerStatus {
	return RunnerStatus{
		Workers:    r.workerCount,
		InFlight:   int(r.inFlight.Load()),
		QueueDepth: len(r.queue),
	}
}

// worker processes jobs from the shared queue. Once the root context is
// cancelled, remaining queued jobs are drained as cancelled without running.
func (r *Runner) worker(ctx context.Context, id int) {
	defer r.wg.Done()
	r.logger.Debug("worker started", "worker_id", id)
	for qj := range r.queue {
		select {
		case <-ctx.Done():
			r.setStatus(r.logger.With("job_id", qj.id), qj.id, StatusCancelled, "runner shutting down")
			continue
		default:
		}
		r.run(ctx, qj)
	}
	r.logger.Debug("worker stopped", "worker_id", id)
}

// run executes one job and records its terminal status.
func (r *Runner) run(ctx context.Context, qj queuedJob) {
	r.inFlight.Add(1)
	defer r.inFlight.Add(-1)

	logger := r.logger.With("job_id", qj.id, "job_type", qj.job.Type())
	r.setStatus(logger, qj.id, StatusRunning, "")
	logger.Info("job started")

	jobCtx := ContextWithJobID(ContextWithDeps(ctx, r.deps), qj.id)
	err := r.execute(jobCtx, qj.job)

	switch {
	case err == nil:
		r.setStatus(logger, qj.id, StatusCompleted, "")
		logger.Info("job completed")
	case errors.Is(err, context.Canceled):
		r.setStatus(logger, qj.id, StatusCancelled, err.Error())
		logger.Info("job cancelled")
	default:
		r.setStatus(logger, qj.id, StatusFailed, err.Error())
		logger.Error("job failed", "error", err)
	}
}

// execute runs the job, converting panics into errors so one bad job cannot
// take down a worker.
func (r *Runner) execute(ctx context.Context, job Job) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return job.Execute(ctx)
}

func (r *Runner) setStatus(logger *slog.Logger, jobID string, status Status, errMsg string) {
	if err := r.store.UpdateStatus(jobID, status, errMsg); err != nil {
		logger.Warn("failed to update job status", "status", status, "error", err)
	}
}
