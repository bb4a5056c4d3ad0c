// Package prompts provides prompt management with embedded defaults and
// file-based overrides.
//
// Embedded .tmpl files in code are the source of truth for defaults. A
// prompts directory under the scribe home can override any key by file
// name (<key>.tmpl).
//
// Resolution order for a key:
//  1. Override file (if loaded)
//  2. Embedded default (from .tmpl files in code)
//
// Every resolved prompt carries a content hash so LLM call records can be
// linked to the exact prompt version used.
package prompts

// EmbeddedPrompt represents a prompt loaded from an embedded .tmpl file.
type EmbeddedPrompt struct {
	Key         string   // Hierarchical key: abap.unitgen.system
	Text        string   // The prompt text (Go template)
	Description string   // Human-readable description
	Variables   []string // Extracted template variables
	Hash        string   // SHA256 hash of the text for change detection
}

// ResolvedPrompt is the result of resolving a prompt key.
type ResolvedPrompt struct {
	Key        string   `json:"key"`
	Text       string   `json:"text"`
	Variables  []string `json:"variables,omitempty"`
	IsOverride bool     `json:"is_override"` // true if from an override file
	Hash       string   `json:"hash"`        // content hash for traceability
}
