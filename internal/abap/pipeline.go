package abap

import (
	"context"

	"github.com/abapscribe/scribe/internal/prompts/review"
	"github.com/abapscribe/scribe/internal/section"
)

// ProgramResult is the outcome of a full generation run.
type ProgramResult struct {
	// Units holds the per-unit code on the unit path, keyed by unit name.
	// Nil on the whole-document path.
	Units map[string]string `json:"units,omitempty"`

	// Code is the assembled (unit path) or refined (whole-document path)
	// program source.
	Code string `json:"abap_code"`

	// Requirements is the combined requirement text the analyses ran on.
	Requirements string `json:"-"`

	Fields   *FieldComparison `json:"field_analysis,omitempty"`
	Coverage *review.Result   `json:"requirement_validation,omitempty"`
}

// GenerateProgram runs the unit path over a split requirement document:
// group requirements per unit, generate each unit with the code of earlier
// units as context, assemble, then run field analysis and coverage review
// against the combined requirement text. A nil mapping means
// DefaultUnitMapping.
func (e *Engine) GenerateProgram(ctx context.Context, jobID string, m *section.Map, mapping UnitMapping) (*ProgramResult, error) {
	if mapping == nil {
		mapping = DefaultUnitMapping
	}
	combined, err := CombineRequirements(m, mapping)
	if err != nil {
		return nil, err
	}

	grouped := GroupRequirements(m, mapping)
	units, err := e.GenerateUnits(ctx, jobID, grouped)
	if err != nil {
		return nil, err
	}
	code := AssembleProgram(units)
	e.logger.Info("program assembled", "job_id", jobID, "units", len(units), "bytes", len(code))

	return e.analyze(ctx, jobID, &ProgramResult{
		Units:        units,
		Code:         code,
		Requirements: combined,
	})
}

// GenerateWhole runs the whole-document path: one draft over the combined
// requirement text, a refine pass, then the same analyses as the unit path.
func (e *Engine) GenerateWhole(ctx context.Context, jobID string, m *section.Map, mapping UnitMapping) (*ProgramResult, error) {
	if mapping == nil {
		mapping = DefaultUnitMapping
	}
	combined, err := CombineRequirements(m, mapping)
	if err != nil {
		return nil, err
	}

	draftCode, err := e.GenerateDraft(ctx, jobID, combined)
	if err != nil {
		return nil, err
	}
	code, err := e.Refine(ctx, jobID, draftCode)
	if err != nil {
		return nil, err
	}

	return e.analyze(ctx, jobID, &ProgramResult{
		Code:         code,
		Requirements: combined,
	})
}

// analyze fills in the field comparison and coverage review for a generated
// program.
func (e *Engine) analyze(ctx context.Context, jobID string, res *ProgramResult) (*ProgramResult, error) {
	res.Fields = CompareFields(res.Requirements, res.Code)
	if len(res.Fields.Missing) > 0 {
		e.logger.Warn("fields missing from generated program",
			"job_id", jobID, "missing", res.Fields.Missing)
	}

	coverage, err := e.ReviewCoverage(ctx, jobID, res.Requirements, res.Code)
	if err != nil {
		return nil, err
	}
	res.Coverage = coverage
	return res, nil
}
