// Package metrics provides cost and usage tracking for LLM operations.
package metrics

import (
	"time"

	"github.com/abapscribe/scribe/internal/llmcall"
)

// Metric represents a single recorded metric for an LLM call.
// Metrics are append-only records with full attribution.
type Metric struct {
	ID string `json:"id,omitempty"`

	// Attribution (for filtering/aggregation)
	JobID string `json:"job_id,omitempty"`
	Unit  string `json:"unit,omitempty"`  // program unit, e.g. "processing_logic"
	Stage string `json:"stage,omitempty"` // pipeline stage, e.g. "unitgen", "review"

	// Provider info
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`

	// Cost and tokens
	CostUSD          float64 `json:"cost_usd,omitempty"`
	PromptTokens     int     `json:"prompt_tokens,omitempty"`
	CompletionTokens int     `json:"completion_tokens,omitempty"`
	ReasoningTokens  int     `json:"reasoning_tokens,omitempty"`
	TotalTokens      int     `json:"total_tokens,omitempty"`

	// Timing
	ExecutionSeconds float64 `json:"execution_seconds,omitempty"`
	TotalSeconds     float64 `json:"total_seconds,omitempty"`

	// Status
	Success   bool   `json:"success"`
	ErrorType string `json:"error_type,omitempty"`

	// Metadata
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// FromCall converts a recorded LLM call into a usage metric.
func FromCall(c *llmcall.Call) Metric {
	m := Metric{
		JobID:            c.JobID,
		Unit:             c.Unit,
		Stage:            c.PromptKey,
		Provider:         c.Provider,
		Model:            c.Model,
		CostUSD:          c.CostUSD,
		PromptTokens:     c.InputTokens,
		CompletionTokens: c.OutputTokens,
		ReasoningTokens:  c.ReasoningTokens,
		TotalTokens:      c.InputTokens + c.OutputTokens,
		ExecutionSeconds: float64(c.LatencyMs) / 1000.0,
		TotalSeconds:     float64(c.LatencyMs) / 1000.0,
		Success:          c.Success,
		CreatedAt:        c.Timestamp,
	}

	if c.Error != "" {
		m.ErrorType = "llm_error"
	}

	return m
}
