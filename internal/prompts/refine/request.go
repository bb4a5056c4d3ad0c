package refine

import (
	"github.com/abapscribe/scribe/internal/providers"
)

const defaultTemperature = 0.2

// Input contains the data needed for a refinement request.
type Input struct {
	// Code is the drafted ABAP program to refine.
	Code string

	// SystemPromptOverride allows using a resolver-level prompt override.
	// If empty, uses the embedded default.
	SystemPromptOverride string
}

// CreateChatRequest builds the chat request for the refine pass.
// The caller must set Model on the returned request.
func CreateChatRequest(input Input) *providers.ChatRequest {
	systemPrompt := input.SystemPromptOverride
	if systemPrompt == "" {
		systemPrompt = SystemPrompt()
	}

	return &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: UserPrompt(input.Code)},
		},
		Temperature: defaultTemperature,
	}
}
