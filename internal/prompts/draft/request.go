package draft

import (
	"github.com/abapscribe/scribe/internal/providers"
)

const defaultTemperature = 0.2

// Input contains the data needed for a whole-program draft request.
type Input struct {
	// Requirements is the combined requirement text across all mapped sections.
	Requirements string

	// SystemPromptOverride allows using a resolver-level prompt override.
	// If empty, uses the embedded default.
	SystemPromptOverride string
}

// CreateChatRequest builds the chat request for the draft pass.
// The caller must set Model on the returned request.
func CreateChatRequest(input Input) *providers.ChatRequest {
	systemPrompt := input.SystemPromptOverride
	if systemPrompt == "" {
		systemPrompt = SystemPrompt()
	}

	return &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: UserPrompt(input.Requirements)},
		},
		Temperature: defaultTemperature,
	}
}
