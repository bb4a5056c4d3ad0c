package abap

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"text/template"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/abapscribe/scribe/internal/llmcall"
	"github.com/abapscribe/scribe/internal/metrics"
	"github.com/abapscribe/scribe/internal/prompts"
	"github.com/abapscribe/scribe/internal/prompts/draft"
	"github.com/abapscribe/scribe/internal/prompts/refine"
	"github.com/abapscribe/scribe/internal/prompts/review"
	"github.com/abapscribe/scribe/internal/prompts/unitgen"
	"github.com/abapscribe/scribe/internal/providers"
)

// Pipeline stage names, used in call records and usage metrics.
const (
	StageUnitGen = "unitgen"
	StageDraft   = "draft"
	StageRefine  = "refine"
	StageReview  = "review"
)

const (
	defaultAttempts   = 3
	defaultRetryDelay = 1 * time.Second
)

// Config assembles an Engine. Client is required; everything else is
// optional or has a default.
type Config struct {
	// Client executes the chat requests.
	Client providers.LLMClient

	// Model overrides the client's default model when set.
	Model string

	// Resolver supplies prompt text, overrides and hashes. A fresh
	// resolver is created when nil; either way the generation prompts are
	// registered on it.
	Resolver *prompts.Resolver

	// Calls receives a traceability record per LLM call.
	Calls *llmcall.Recorder

	// Usage receives a usage metric per LLM call.
	Usage *metrics.Recorder

	Logger *slog.Logger

	// Attempts bounds tries per LLM call; RetryDelay is the base delay
	// between them.
	Attempts   uint
	RetryDelay time.Duration
}

// Engine runs the ABAP generation pipeline against one LLM client.
type Engine struct {
	client   providers.LLMClient
	model    string
	resolver *prompts.Resolver
	calls    *llmcall.Recorder
	usage    *metrics.Recorder
	logger   *slog.Logger
	attempts uint
	delay    time.Duration
}

// NewEngine builds an Engine from cfg and registers the generation prompts
// on its resolver.
func NewEngine(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = prompts.NewResolver(logger)
	}
	unitgen.RegisterPrompts(resolver)
	draft.RegisterPrompts(resolver)
	refine.RegisterPrompts(resolver)
	review.RegisterPrompts(resolver)

	attempts := cfg.Attempts
	if attempts == 0 {
		attempts = defaultAttempts
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	return &Engine{
		client:   cfg.Client,
		model:    cfg.Model,
		resolver: resolver,
		calls:    cfg.Calls,
		usage:    cfg.Usage,
		logger:   logger,
		attempts: attempts,
		delay:    delay,
	}
}

// Resolver returns the prompt resolver the engine renders prompts through.
func (e *Engine) Resolver() *prompts.Resolver {
	return e.resolver
}

// callMeta attributes one LLM call for recording.
type callMeta struct {
	jobID string
	unit  string
	stage string
	key   string // user prompt key, hashed for traceability
}

// chat sends one request through the client with bounded retries on
// transient provider errors, then records the call. Structured requests go
// through the validating helper.
func (e *Engine) chat(ctx context.Context, req *providers.ChatRequest, meta callMeta) (*providers.ChatResult, error) {
	if req.Model == "" {
		req.Model = e.model
	}

	start := time.Now()
	var result *providers.ChatResult
	err := retry.Do(
		func() error {
			var callErr error
			if req.ResponseFormat != nil {
				result, callErr = providers.ChatStructured(ctx, e.client, req)
			} else {
				result, callErr = e.client.Chat(ctx, req)
			}
			return callErr
		},
		retry.Context(ctx),
		retry.Attempts(e.attempts),
		retry.Delay(e.delay),
		retry.RetryIf(providers.IsRetryable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			e.logger.Debug("LLM request failed, retrying",
				"stage", meta.stage, "unit", meta.unit, "attempt", n+1, "error", err)
		}),
	)

	e.record(req, result, meta, time.Since(start), err)

	if err != nil {
		return result, err
	}
	if !result.Success {
		return result, fmt.Errorf("llm response unsuccessful: %s", result.ErrorMessage)
	}
	return result, nil
}

// record captures the call for traceability and usage accounting.
func (e *Engine) record(req *providers.ChatRequest, result *providers.ChatResult, meta callMeta, elapsed time.Duration, callErr error) {
	opts := metrics.RecordOpts{JobID: meta.jobID, Unit: meta.unit, Stage: meta.stage}

	if result == nil {
		if callErr != nil && e.usage != nil {
			e.usage.RecordError(opts, e.client.Name(), req.Model, "request_error", elapsed)
		}
		return
	}

	if e.calls != nil {
		var hash string
		if p, err := e.resolver.Resolve(meta.key); err == nil {
			hash = p.Hash
		}
		temp := req.Temperature
		e.calls.Record(result, llmcall.RecordOptions{
			JobID:       meta.jobID,
			Unit:        meta.unit,
			PromptKey:   meta.key,
			PromptHash:  hash,
			Temperature: &temp,
		})
	}
	if e.usage != nil {
		e.usage.RecordLLMCall(opts, result)
	}
}

// systemOverride returns the operator override for a system prompt key, or
// "" when none is set so the embedded prompt applies.
func (e *Engine) systemOverride(key string) string {
	p, err := e.resolver.Resolve(key)
	if err != nil || !p.IsOverride {
		return ""
	}
	return p.Text
}

// renderOverride renders an operator override template for key with data.
// Returns "" when no override is set or it fails to render, in which case
// the embedded prompt applies.
func (e *Engine) renderOverride(key string, data any) string {
	p, err := e.resolver.Resolve(key)
	if err != nil || !p.IsOverride {
		return ""
	}
	tmpl, err := template.New(key).Parse(p.Text)
	if err != nil {
		e.logger.Warn("prompt override failed to parse", "key", key, "error", err)
		return ""
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		e.logger.Warn("prompt override failed to render", "key", key, "error", err)
		return ""
	}
	return buf.String()
}

// applyUserOverride swaps the request's user message for a rendered
// operator override of key, when one is set.
func (e *Engine) applyUserOverride(req *providers.ChatRequest, key string, data any) {
	text := e.renderOverride(key, data)
	if text == "" {
		return
	}
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			req.Messages[i].Content = text
			return
		}
	}
}
