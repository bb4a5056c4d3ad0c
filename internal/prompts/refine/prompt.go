// Package refine holds the prompts for the second-pass cleanup of a drafted
// ABAP program (naming conventions, indentation, comments).
package refine

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

// SystemPrompt returns the system prompt for code refinement.
func SystemPrompt() string {
	return systemPrompt
}

// UserPrompt builds the user prompt around the code to refine.
func UserPrompt(code string) string {
	var buf bytes.Buffer
	data := struct{ Code string }{Code: code}
	if err := userTemplate.Execute(&buf, data); err != nil {
		// Fallback to raw template on error
		return userPromptTmpl
	}
	return buf.String()
}

// Prompt keys
const (
	SystemPromptKey = "abap.refine.system"
	UserPromptKey   = "abap.refine.user"
)

// RegisterPrompts registers the refine prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemPromptKey,
		Text:        systemPrompt,
		Description: "Refine system prompt - ABAP reviewer persona",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         UserPromptKey,
		Text:        userPromptTmpl,
		Description: "Refine user prompt - standards and readability pass over drafted code",
	})
}
