package metrics

import (
	"time"

	"github.com/abapscribe/scribe/internal/llmcall"
	"github.com/abapscribe/scribe/internal/providers"
)

// Recorder handles recording metrics to a Store.
type Recorder struct {
	store *Store
}

// NewRecorder creates a new metrics recorder.
func NewRecorder(store *Store) *Recorder {
	return &Recorder{store: store}
}

// RecordOpts provides context for a metric recording.
type RecordOpts struct {
	JobID string
	Unit  string // program unit, e.g. "processing_logic"
	Stage string // pipeline stage, e.g. "unitgen", "review"
}

// Record stores a single metric. Returns the metric's ID.
func (r *Recorder) Record(m Metric) string {
	if r.store == nil {
		return ""
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	return r.store.Add(m)
}

// RecordLLMCall records metrics from an LLM chat result.
func (r *Recorder) RecordLLMCall(opts RecordOpts, result *providers.ChatResult) string {
	if result == nil {
		return ""
	}

	m := Metric{
		// Attribution
		JobID: opts.JobID,
		Unit:  opts.Unit,
		Stage: opts.Stage,

		// Provider info
		Provider: result.Provider,
		Model:    result.ModelUsed,

		// Cost and tokens
		CostUSD:          result.CostUSD,
		PromptTokens:     result.PromptTokens,
		CompletionTokens: result.CompletionTokens,
		ReasoningTokens:  result.ReasoningTokens,
		TotalTokens:      result.TotalTokens,

		// Timing
		ExecutionSeconds: result.ExecutionTime.Seconds(),
		TotalSeconds:     result.TotalTime.Seconds(),

		// Status
		Success:   result.Success,
		ErrorType: result.ErrorType,

		// Metadata
		CreatedAt: time.Now(),
	}

	return r.Record(m)
}

// RecordCall records metrics from an already-stored LLM call record.
func (r *Recorder) RecordCall(c *llmcall.Call) string {
	if c == nil {
		return ""
	}
	return r.Record(FromCall(c))
}

// RecordError records a failed operation as a metric.
func (r *Recorder) RecordError(opts RecordOpts, provider, model, errorType string, duration time.Duration) string {
	m := Metric{
		// Attribution
		JobID: opts.JobID,
		Unit:  opts.Unit,
		Stage: opts.Stage,

		// Provider info
		Provider: provider,
		Model:    model,

		// Timing
		TotalSeconds: duration.Seconds(),

		// Status
		Success:   false,
		ErrorType: errorType,

		// Metadata
		CreatedAt: time.Now(),
	}

	return r.Record(m)
}
