package review

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestCreateChatRequest(t *testing.T) {
	req := CreateChatRequest(Input{
		Requirements: "Display flight data.",
		Code:         "REPORT zflights.",
	})

	if len(req.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(req.Messages))
	}
	if req.Messages[0].Content != SystemPrompt() {
		t.Error("expected embedded system prompt")
	}
	user := req.Messages[1].Content
	if !strings.Contains(user, "Functional Requirements:\nDisplay flight data.") {
		t.Errorf("missing requirements in user prompt:\n%s", user)
	}
	if !strings.Contains(user, "ABAP Code:\nREPORT zflights.") {
		t.Errorf("missing code in user prompt:\n%s", user)
	}
	if !strings.Contains(user, `"requirement_coverage"`) {
		t.Error("user prompt should show the expected JSON format")
	}

	if req.ResponseFormat == nil {
		t.Fatal("expected a response format")
	}
	var wrapper struct {
		Name   string `json:"name"`
		Schema struct {
			Required []string `json:"required"`
		} `json:"schema"`
	}
	if err := json.Unmarshal(req.ResponseFormat.JSONSchema, &wrapper); err != nil {
		t.Fatalf("schema not valid JSON: %v", err)
	}
	if wrapper.Name != "requirement_coverage" {
		t.Errorf("schema name = %q", wrapper.Name)
	}
	if len(wrapper.Schema.Required) != 2 {
		t.Errorf("schema required = %v, want coverage list and summary", wrapper.Schema.Required)
	}
}

func TestParseResult(t *testing.T) {
	raw := json.RawMessage(`{
		"requirement_coverage": [
			{"requirement": "Display flights", "status": "Fully Implemented", "explanation": "ALV output present"},
			{"requirement": "Authorization check", "status": "Not Implemented", "explanation": "No AUTHORITY-CHECK"}
		],
		"final_summary": "Mostly complete."
	}`)

	result, err := ParseResult(raw)
	if err != nil {
		t.Fatalf("ParseResult: %v", err)
	}
	if len(result.RequirementCoverage) != 2 {
		t.Fatalf("coverage items = %d, want 2", len(result.RequirementCoverage))
	}
	if result.RequirementCoverage[0].Status != StatusFullyImplemented {
		t.Errorf("status = %q", result.RequirementCoverage[0].Status)
	}
	if result.FinalSummary != "Mostly complete." {
		t.Errorf("final summary = %q", result.FinalSummary)
	}

	full, partial, missing := result.Counts()
	if full != 1 || partial != 0 || missing != 1 {
		t.Errorf("Counts = %d/%d/%d, want 1/0/1", full, partial, missing)
	}
}

func TestParseResultRejectsGarbage(t *testing.T) {
	if _, err := ParseResult(json.RawMessage(`{"requirement_coverage": "not a list"}`)); err == nil {
		t.Error("expected error for wrong shape")
	}
}
