package prompts

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
)

// variablePattern matches Go template variable references like {{.Requirements}}
// or {{ .ContextCode }}, including nested fields like {{.Job.ID}}.
var variablePattern = regexp.MustCompile(`\{\{\s*\.([a-zA-Z_][a-zA-Z0-9_.]*)\s*\}\}`)

// ExtractVariables extracts template variable names from a Go template string,
// deduplicated and sorted. For example, "Unit {{.UnitTitle}}:\n{{.Requirements}}"
// returns ["Requirements", "UnitTitle"].
func ExtractVariables(text string) []string {
	seen := make(map[string]bool)
	var vars []string

	for _, match := range variablePattern.FindAllStringSubmatch(text, -1) {
		name := match[1]
		if !seen[name] {
			seen[name] = true
			vars = append(vars, name)
		}
	}

	sort.Strings(vars)
	return vars
}

// HashText returns a SHA256 hash of the text for change detection.
func HashText(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
