package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

const (
	GeminiName         = "gemini"
	geminiDefaultModel = "gemini-2.5-flash"

	// Pricing approximations, USD per 1M tokens.
	geminiFlashInputCostPer1M  = 0.30
	geminiFlashOutputCostPer1M = 2.50
)

// GeminiConfig holds configuration for the Gemini chat client.
type GeminiConfig struct {
	APIKey       string
	DefaultModel string
	Timeout      time.Duration
	// Rate limiting
	RPS        float64       // Requests per second (default: 1)
	MaxRetries int           // Retry attempts advertised to callers
	RetryDelay time.Duration // Base retry delay for caller backoff
	HTTPClient *http.Client  // Optional (tests)
}

// GeminiClient implements LLMClient using the Google Gen AI SDK.
type GeminiClient struct {
	apiKey       string
	defaultModel string
	rps          float64
	maxRetries   int
	retryDelay   time.Duration
	limiter      *RateLimiter
	client       *genai.Client
}

// NewGeminiClient creates a new Gemini chat client.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = geminiDefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 1.0
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiClient{
		apiKey:       cfg.APIKey,
		defaultModel: cfg.DefaultModel,
		rps:          cfg.RPS,
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
		limiter:      NewRateLimiter(int(cfg.RPS * 60)),
		client:       client,
	}, nil
}

// Name returns the client identifier.
func (c *GeminiClient) Name() string {
	return GeminiName
}

// RequestsPerSecond returns the configured rate limit.
func (c *GeminiClient) RequestsPerSecond() float64 {
	return c.rps
}

// MaxRetries returns the maximum retry attempts.
func (c *GeminiClient) MaxRetries() int {
	return c.maxRetries
}

// RetryDelayBase returns the base delay between retries.
func (c *GeminiClient) RetryDelayBase() time.Duration {
	return c.retryDelay
}

// Model returns the configured default model.
func (c *GeminiClient) Model() string {
	return c.defaultModel
}

// Chat sends a chat completion request.
//
// Gemini keeps system text separate from the conversation, so system messages
// become the system instruction and the remaining messages are joined into a
// single user turn.
func (c *GeminiClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	result := &ChatResult{
		RequestID: requestID,
		Provider:  GeminiName,
		ModelUsed: model,
		Attempts:  1,
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		result.Success = false
		result.ErrorType = "context_cancelled"
		result.ErrorMessage = err.Error()
		result.TotalTime = time.Since(start)
		return result, err
	}

	genCfg := &genai.GenerateContentConfig{}
	if sys := req.SystemPrompt(); sys != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(sys, genai.RoleUser)
	}
	if req.Temperature > 0 {
		genCfg.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.ResponseFormat != nil {
		genCfg.ResponseMIMEType = "application/json"
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, genai.Text(req.UserPrompt()), genCfg)
	if err != nil {
		err = c.mapError(err)
		result.Success = false
		result.ErrorType = errorTypeOf(err)
		result.ErrorMessage = err.Error()
		if rle, ok := IsRateLimitError(err); ok {
			result.RetryAfter = rle.RetryAfter
		}
		result.TotalTime = time.Since(start)
		return result, err
	}

	content := resp.Text()

	result.Success = true
	result.Content = content
	if resp.ModelVersion != "" {
		result.ModelUsed = resp.ModelVersion
	}
	if usage := resp.UsageMetadata; usage != nil {
		result.PromptTokens = int(usage.PromptTokenCount)
		result.CompletionTokens = int(usage.CandidatesTokenCount)
		result.ReasoningTokens = int(usage.ThoughtsTokenCount)
		result.TotalTokens = int(usage.TotalTokenCount)
		result.CostUSD = estimateGeminiChatCostUSD(result.PromptTokens, result.CompletionTokens)
	}
	result.ExecutionTime = time.Since(start)
	result.TotalTime = result.ExecutionTime

	// Parse JSON if structured output was requested
	if req.ResponseFormat != nil && content != "" {
		parsed, perr := parseStructuredJSON(content)
		if perr == nil {
			result.ParsedJSON = parsed
		} else {
			result.Success = false
			result.ErrorType = "json_parse"
			result.ErrorMessage = fmt.Sprintf("failed to parse JSON response: %v", perr)
		}
	}

	return result, nil
}

func (c *GeminiClient) mapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests {
			c.limiter.Record429(0)
			return &RateLimitError{
				Message:    fmt.Sprintf("Gemini rate limited: %s", apiErr.Message),
				StatusCode: apiErr.Code,
			}
		}
		return &StatusError{
			Provider:   "Gemini",
			StatusCode: apiErr.Code,
			Message:    apiErr.Message,
		}
	}
	return err
}

func estimateGeminiChatCostUSD(promptTokens, completionTokens int) float64 {
	inputCost := float64(promptTokens) * (geminiFlashInputCostPer1M / 1_000_000.0)
	outputCost := float64(completionTokens) * (geminiFlashOutputCostPer1M / 1_000_000.0)
	return inputCost + outputCost
}

var _ LLMClient = (*GeminiClient)(nil)
