// Package review holds the prompts for LLM-based requirement coverage
// validation of a generated ABAP program.
package review

import (
	"bytes"
	_ "embed"
	"text/template"

	"github.com/abapscribe/scribe/internal/prompts"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPromptTmpl string

var userTemplate = template.Must(template.New("user").Parse(userPromptTmpl))

// SystemPrompt returns the system prompt for coverage review.
func SystemPrompt() string {
	return systemPrompt
}

// UserPrompt builds the user prompt from the requirements and the code
// under review.
func UserPrompt(requirements, code string) string {
	var buf bytes.Buffer
	data := struct{ Requirements, Code string }{Requirements: requirements, Code: code}
	if err := userTemplate.Execute(&buf, data); err != nil {
		// Fallback to raw template on error
		return userPromptTmpl
	}
	return buf.String()
}

// Prompt keys
const (
	SystemPromptKey = "abap.review.system"
	UserPromptKey   = "abap.review.user"
)

// RegisterPrompts registers the review prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemPromptKey,
		Text:        systemPrompt,
		Description: "Coverage review system prompt - solution architect persona",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         UserPromptKey,
		Text:        userPromptTmpl,
		Description: "Coverage review user prompt - per-requirement implementation status as strict JSON",
	})
}
