package unitgen

import (
	"strings"

	"github.com/abapscribe/scribe/internal/providers"
)

// defaultTemperature keeps unit output deterministic enough to assemble.
const defaultTemperature = 0.2

// Input contains the data needed for a unit generation request.
type Input struct {
	// Unit is the program unit key, e.g. "processing_logic".
	Unit string

	// Requirements is the requirement text mapped to this unit.
	Requirements string

	// ContextCode is the code generated for earlier units, if any.
	ContextCode string

	// SystemPromptOverride allows using a resolver-level prompt override.
	// If empty, uses the embedded default.
	SystemPromptOverride string
}

// UnitTitle converts a unit key to its prompt form ("processing_logic"
// becomes "processing logic").
func UnitTitle(unit string) string {
	return strings.ReplaceAll(unit, "_", " ")
}

// CreateChatRequest builds the chat request for one program unit.
// The caller must set Model on the returned request.
func CreateChatRequest(input Input) *providers.ChatRequest {
	systemPrompt := input.SystemPromptOverride
	if systemPrompt == "" {
		systemPrompt = SystemPrompt()
	}

	userPrompt := UserPrompt(UserPromptData{
		UnitTitle:    UnitTitle(input.Unit),
		ContextCode:  input.ContextCode,
		Requirements: input.Requirements,
	})

	return &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: defaultTemperature,
	}
}
