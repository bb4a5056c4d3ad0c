package abap

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/abapscribe/scribe/internal/prompts/draft"
	"github.com/abapscribe/scribe/internal/prompts/refine"
	"github.com/abapscribe/scribe/internal/prompts/unitgen"
)

// fencePattern matches markdown code fence markers, with or without the
// abap language tag. Models emit them despite being asked not to.
var fencePattern = regexp.MustCompile("```(?:abap)?")

// stripFences removes fence markers anywhere in code and trims the result.
func stripFences(code string) string {
	return strings.TrimSpace(fencePattern.ReplaceAllString(code, ""))
}

// GenerateUnit produces the ABAP code for one program unit. contextCode
// carries the code of previously generated units so later units reference
// the declarations and screens already emitted.
func (e *Engine) GenerateUnit(ctx context.Context, jobID, unit, requirements, contextCode string) (string, error) {
	req := unitgen.CreateChatRequest(unitgen.Input{
		Unit:                 unit,
		Requirements:         requirements,
		ContextCode:          contextCode,
		SystemPromptOverride: e.systemOverride(unitgen.SystemPromptKey),
	})
	e.applyUserOverride(req, unitgen.UserPromptKey, unitgen.UserPromptData{
		UnitTitle:    unitgen.UnitTitle(unit),
		ContextCode:  contextCode,
		Requirements: requirements,
	})

	e.logger.Info("generating program unit", "job_id", jobID, "unit", unit)
	result, err := e.chat(ctx, req, callMeta{jobID: jobID, unit: unit, stage: StageUnitGen, key: unitgen.UserPromptKey})
	if err != nil {
		return "", fmt.Errorf("generate unit %s: %w", unit, err)
	}
	return stripFences(result.Content), nil
}

// GenerateUnits generates code for every unit in grouped, in UnitOrder,
// feeding each unit the code generated before it. Units holding the
// requirement sentinel keep it as their output and contribute no context.
func (e *Engine) GenerateUnits(ctx context.Context, jobID string, grouped map[string]string) (map[string]string, error) {
	parts := make(map[string]string, len(grouped))
	var generated []string
	for _, unit := range UnitOrder {
		requirements, ok := grouped[unit]
		if !ok {
			continue
		}
		if requirements == NoRequirementsSentinel {
			parts[unit] = NoRequirementsSentinel
			continue
		}

		code, err := e.GenerateUnit(ctx, jobID, unit, requirements, strings.Join(generated, "\n\n"))
		if err != nil {
			return nil, err
		}
		parts[unit] = code
		if code != "" {
			generated = append(generated, code)
		}
	}
	return parts, nil
}

const bannerRule = "*&---------------------------------------------------------------------*"

// unitBanner renders the comment banner introducing a unit in the
// assembled source.
func unitBanner(unit string) string {
	return bannerRule + "\n*& " + strings.ToUpper(unitgen.UnitTitle(unit)) + "\n" + bannerRule
}

// AssembleProgram joins the generated unit parts into one ABAP source text,
// in unit order, each under its banner comment. Units absent from parts are
// skipped; sentinel entries are carried through so the output shows which
// units had no requirements.
func AssembleProgram(parts map[string]string) string {
	var segments []string
	for _, unit := range UnitOrder {
		part, ok := parts[unit]
		if !ok {
			continue
		}
		segments = append(segments, unitBanner(unit)+"\n"+part)
	}
	return strings.Join(segments, "\n\n")
}

// GenerateDraft produces a complete ABAP program from the combined
// requirement text in a single pass.
func (e *Engine) GenerateDraft(ctx context.Context, jobID, requirements string) (string, error) {
	req := draft.CreateChatRequest(draft.Input{
		Requirements:         requirements,
		SystemPromptOverride: e.systemOverride(draft.SystemPromptKey),
	})
	e.applyUserOverride(req, draft.UserPromptKey, draft.Input{Requirements: requirements})

	e.logger.Info("generating program draft", "job_id", jobID)
	result, err := e.chat(ctx, req, callMeta{jobID: jobID, stage: StageDraft, key: draft.UserPromptKey})
	if err != nil {
		return "", fmt.Errorf("generate draft: %w", err)
	}
	return stripFences(result.Content), nil
}

// Refine runs the review-and-improve pass over drafted code: consistent
// indentation, local variable prefixes, comments per logic block.
func (e *Engine) Refine(ctx context.Context, jobID, code string) (string, error) {
	req := refine.CreateChatRequest(refine.Input{
		Code:                 code,
		SystemPromptOverride: e.systemOverride(refine.SystemPromptKey),
	})
	e.applyUserOverride(req, refine.UserPromptKey, refine.Input{Code: code})

	e.logger.Info("refining program", "job_id", jobID)
	result, err := e.chat(ctx, req, callMeta{jobID: jobID, stage: StageRefine, key: refine.UserPromptKey})
	if err != nil {
		return "", fmt.Errorf("refine program: %w", err)
	}
	return stripFences(result.Content), nil
}
