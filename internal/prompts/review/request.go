package review

import (
	"encoding/json"

	"github.com/abapscribe/scribe/internal/providers"
)

const defaultTemperature = 0.2

// Input contains the data needed for a coverage review request.
type Input struct {
	// Requirements is the combined requirement text the code was built from.
	Requirements string

	// Code is the generated ABAP program under review.
	Code string

	// SystemPromptOverride allows using a resolver-level prompt override.
	// If empty, uses the embedded default.
	SystemPromptOverride string
}

// CreateChatRequest builds the chat request for coverage review.
// The response format carries the coverage schema so the structured output
// helper can validate and repair the model's JSON.
// The caller must set Model on the returned request.
func CreateChatRequest(input Input) *providers.ChatRequest {
	systemPrompt := input.SystemPromptOverride
	if systemPrompt == "" {
		systemPrompt = SystemPrompt()
	}

	return &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: UserPrompt(input.Requirements, input.Code)},
		},
		ResponseFormat: buildResponseFormat(),
		Temperature:    defaultTemperature,
	}
}

// ParseResult parses the LLM response into a Result.
func ParseResult(parsedJSON any) (*Result, error) {
	jsonBytes, err := json.Marshal(parsedJSON)
	if err != nil {
		return nil, err
	}
	var result Result
	if err := json.Unmarshal(jsonBytes, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func buildResponseFormat() *providers.ResponseFormat {
	jsonSchema, _ := json.Marshal(CoverageSchema["json_schema"])
	return &providers.ResponseFormat{
		Type:       "json_schema",
		JSONSchema: jsonSchema,
	}
}
