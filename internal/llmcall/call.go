// Package llmcall provides LLM call recording and querying for traceability.
// Every LLM API call is recorded with its prompt key, response, and metrics.
package llmcall

import (
	"time"

	"github.com/google/uuid"

	"github.com/abapscribe/scribe/internal/providers"
)

// Call represents a recorded LLM API call.
type Call struct {
	// Unique identifier
	ID string `json:"id"`

	// Timing
	Timestamp time.Time `json:"timestamp"`
	LatencyMs int       `json:"latency_ms"`

	// Context references
	JobID string `json:"job_id,omitempty"`
	Unit  string `json:"unit,omitempty"` // program unit the call generated, e.g. "processing_logic"

	// Prompt traceability
	PromptKey  string `json:"prompt_key"`
	PromptHash string `json:"prompt_hash,omitempty"` // content hash linking to the exact prompt version used

	// Model info
	Provider    string   `json:"provider"`
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature,omitempty"`

	// Token usage and cost
	InputTokens     int     `json:"input_tokens"`
	OutputTokens    int     `json:"output_tokens"`
	ReasoningTokens int     `json:"reasoning_tokens,omitempty"`
	CostUSD         float64 `json:"cost_usd,omitempty"`

	// Response
	Response string `json:"response"`

	// Status
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// RecordOptions provides context for recording an LLM call.
type RecordOptions struct {
	// Context references (all optional)
	JobID string
	Unit  string

	// Prompt identification (required for traceability)
	PromptKey  string
	PromptHash string // content hash linking to exact prompt version

	// Request parameters (pointer to distinguish "not set" from "set to 0")
	Temperature *float64
}

// FromChatResult creates a Call from a ChatResult.
// Returns nil if result is nil.
func FromChatResult(result *providers.ChatResult, opts RecordOptions) *Call {
	if result == nil {
		return nil
	}

	call := &Call{
		ID:              uuid.New().String(),
		Timestamp:       time.Now(),
		LatencyMs:       int(result.ExecutionTime.Milliseconds()),
		JobID:           opts.JobID,
		Unit:            opts.Unit,
		PromptKey:       opts.PromptKey,
		PromptHash:      opts.PromptHash,
		Provider:        result.Provider,
		Model:           result.ModelUsed,
		InputTokens:     result.PromptTokens,
		OutputTokens:    result.CompletionTokens,
		ReasoningTokens: result.ReasoningTokens,
		CostUSD:         result.CostUSD,
		Response:        result.Content,
		Success:         result.Success,
	}

	if opts.Temperature != nil {
		call.Temperature = opts.Temperature
	}

	if !result.Success {
		call.Error = result.ErrorMessage
	}

	return call
}
