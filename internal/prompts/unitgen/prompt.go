// Package unitgen holds the prompts for generating one program unit of an
// ABAP report (global declarations, selection screen, processing logic,
// output display).
package unitgen

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

// SystemPrompt returns the system prompt for unit generation.
func SystemPrompt() string {
	return systemPrompt
}

// UserPromptData carries the values rendered into the user prompt.
type UserPromptData struct {
	UnitTitle    string // unit name with spaces, e.g. "processing logic"
	ContextCode  string // code generated for earlier units, may be empty
	Requirements string // requirement text mapped to this unit
}

// UserPrompt builds the user prompt for one program unit.
func UserPrompt(data UserPromptData) string {
	var buf bytes.Buffer
	if err := userTemplate.Execute(&buf, data); err != nil {
		// Fallback to raw template on error
		return userPromptTmpl
	}
	return buf.String()
}

// Prompt keys
const (
	SystemPromptKey = "abap.unitgen.system"
	UserPromptKey   = "abap.unitgen.user"
)

// RegisterPrompts registers the unit generation prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemPromptKey,
		Text:        systemPrompt,
		Description: "Unit generation system prompt - ABAP developer persona",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         UserPromptKey,
		Text:        userPromptTmpl,
		Description: "Unit generation user prompt - one program unit from mapped requirements plus prior unit code",
	})
}
