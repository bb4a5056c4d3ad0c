package abap

import (
	"context"
	"fmt"

	"github.com/abapscribe/scribe/internal/prompts/review"
)

// ReviewCoverage asks the model how well code covers the requirement text
// and returns the parsed coverage report. The response is schema-validated
// structured JSON; malformed output is repaired or rejected by the
// structured chat helper before it gets here.
func (e *Engine) ReviewCoverage(ctx context.Context, jobID, requirements, code string) (*review.Result, error) {
	req := review.CreateChatRequest(review.Input{
		Requirements:         requirements,
		Code:                 code,
		SystemPromptOverride: e.systemOverride(review.SystemPromptKey),
	})
	e.applyUserOverride(req, review.UserPromptKey, review.Input{Requirements: requirements, Code: code})

	e.logger.Info("reviewing requirement coverage", "job_id", jobID)
	result, err := e.chat(ctx, req, callMeta{jobID: jobID, stage: StageReview, key: review.UserPromptKey})
	if err != nil {
		return nil, fmt.Errorf("review coverage: %w", err)
	}
	if len(result.ParsedJSON) == 0 {
		return nil, fmt.Errorf("review coverage: empty structured response")
	}

	parsed, err := review.ParseResult(result.ParsedJSON)
	if err != nil {
		return nil, fmt.Errorf("review coverage: %w", err)
	}
	return parsed, nil
}
