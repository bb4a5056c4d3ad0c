// Package draft holds the prompts for generating a complete ABAP report in
// a single pass from the combined requirement text.
package draft

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

// SystemPrompt returns the system prompt for whole-program drafting.
func SystemPrompt() string {
	return systemPrompt
}

// UserPrompt builds the user prompt from the combined requirement text.
func UserPrompt(requirements string) string {
	var buf bytes.Buffer
	data := struct{ Requirements string }{Requirements: requirements}
	if err := userTemplate.Execute(&buf, data); err != nil {
		// Fallback to raw template on error
		return userPromptTmpl
	}
	return buf.String()
}

// Prompt keys
const (
	SystemPromptKey = "abap.draft.system"
	UserPromptKey   = "abap.draft.user"
)

// RegisterPrompts registers the draft prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemPromptKey,
		Text:        systemPrompt,
		Description: "Draft system prompt - senior ABAP developer persona for the whole-program pass",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         UserPromptKey,
		Text:        userPromptTmpl,
		Description: "Draft user prompt - complete report from combined requirements",
	})
}
