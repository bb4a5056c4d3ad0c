package review

// Coverage status values the model may assign to a requirement.
const (
	StatusFullyImplemented     = "Fully Implemented"
	StatusPartiallyImplemented = "Partially Implemented"
	StatusNotImplemented       = "Not Implemented"
)

// CoverageSchema is the JSON schema for the coverage review output.
var CoverageSchema = map[string]any{
	"type": "json_schema",
	"json_schema": map[string]any{
		"name":   "requirement_coverage",
		"strict": true,
		"schema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"requirement_coverage": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"requirement": map[string]any{
								"type":        "string",
								"description": "Short summary of the requirement",
							},
							"status": map[string]any{
								"type": "string",
								"enum": []string{
									StatusFullyImplemented,
									StatusPartiallyImplemented,
									StatusNotImplemented,
								},
							},
							"explanation": map[string]any{
								"type":        "string",
								"description": "Short reason for the status",
							},
						},
						"required":             []string{"requirement", "status", "explanation"},
						"additionalProperties": false,
					},
				},
				"final_summary": map[string]any{
					"type":        "string",
					"description": "Overall assessment of requirement fulfillment",
				},
			},
			"required":             []string{"requirement_coverage", "final_summary"},
			"additionalProperties": false,
		},
	},
}

// CoverageItem is one requirement's implementation status.
type CoverageItem struct {
	Requirement string `json:"requirement"`
	Status      string `json:"status"`
	Explanation string `json:"explanation"`
}

// Result represents the parsed result from the coverage review LLM call.
type Result struct {
	RequirementCoverage []CoverageItem `json:"requirement_coverage"`
	FinalSummary        string         `json:"final_summary"`
}

// Counts tallies coverage statuses.
func (r *Result) Counts() (full, partial, missing int) {
	for _, item := range r.RequirementCoverage {
		switch item.Status {
		case StatusFullyImplemented:
			full++
		case StatusPartiallyImplemented:
			partial++
		case StatusNotImplemented:
			missing++
		}
	}
	return full, partial, missing
}
