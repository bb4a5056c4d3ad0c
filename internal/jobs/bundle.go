package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/abapscribe/scribe/internal/abap"
	"github.com/abapscribe/scribe/internal/config"
	"github.com/abapscribe/scribe/internal/docx"
	"github.com/abapscribe/scribe/internal/markdown"
	"github.com/abapscribe/scribe/internal/metrics"
	"github.com/abapscribe/scribe/internal/render"
	"github.com/abapscribe/scribe/internal/section"
)

// TypeBundle identifies the requirement-to-ABAP bundle job.
const TypeBundle = "bundle"

// Artifact document titles.
const (
	SpecDocTitle = "FUNCTIONAL SPECIFICATION"
	CodeDocTitle = "ABAP Code"
)

// Metadata keys set by a completed bundle job.
const (
	MetaSpecPath   = "spec_path"
	MetaCodePath   = "code_path"
	MetaUsage      = "usage"
	MetaFields     = "field_analysis"
	MetaValidation = "requirement_validation"
)

// BundleJob generates the full requirement-to-ABAP bundle for one payload:
// section split, unit generation, assembly, field and coverage analysis, and
// both DOCX artifacts written to the home data directory.
type BundleJob struct {
	// Payload is the requirement envelope: a JSON object (raw bytes or
	// decoded map) carrying the requirement document.
	Payload any

	// Mapping overrides the default unit mapping when non-nil.
	Mapping abap.UnitMapping

	// Strategy selects the generation pipeline. Empty or
	// config.StrategyUnits runs the per-unit pipeline;
	// config.StrategyWhole drafts the whole program in one pass.
	Strategy string

	// Engine overrides the runner's engine when non-nil, capturing the
	// provider settings in effect at submit time.
	Engine *abap.Engine
}

// Type returns the job type identifier.
func (j *BundleJob) Type() string { return TypeBundle }

// Execute runs the bundle pipeline and stores artifact paths, usage and
// analysis results on the job record.
func (j *BundleJob) Execute(ctx context.Context) error {
	deps := DepsFromContext(ctx)
	engine := j.Engine
	if engine == nil {
		engine = deps.Engine
	}
	if engine == nil || deps.Jobs == nil || deps.Home == nil {
		return errors.New("bundle job dependencies not configured")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	jobID := JobIDFromContext(ctx)

	m, err := section.Split(j.Payload)
	if err != nil {
		return fmt.Errorf("split sections: %w", err)
	}
	requirement, err := section.RequirementText(j.Payload)
	if err != nil {
		return fmt.Errorf("read requirement text: %w", err)
	}

	var res *abap.ProgramResult
	if j.Strategy == config.StrategyWhole {
		res, err = engine.GenerateWhole(ctx, jobID, m, j.Mapping)
	} else {
		res, err = engine.GenerateProgram(ctx, jobID, m, j.Mapping)
	}
	if err != nil {
		return err
	}

	if err := deps.Home.EnsureExists(); err != nil {
		return err
	}

	specDoc, err := BuildSpecDoc(requirement)
	if err != nil {
		return err
	}
	specPath := deps.Home.SpecDocPath(jobID)
	if err := writeDoc(specDoc, specPath); err != nil {
		return fmt.Errorf("write specification document: %w", err)
	}

	codePath := deps.Home.CodeDocPath(jobID)
	if err := writeDoc(BuildCodeDoc(res.Code), codePath); err != nil {
		return fmt.Errorf("write code document: %w", err)
	}

	// UpdateMetadata replaces the whole map, so carry the submission
	// metadata (strategy, provider, model) forward.
	meta := make(map[string]any)
	if record, err := deps.Jobs.Get(jobID); err == nil {
		for k, v := range record.Metadata {
			meta[k] = v
		}
	}
	meta[MetaSpecPath] = specPath
	meta[MetaCodePath] = codePath
	if res.Fields != nil {
		meta[MetaFields] = res.Fields
	}
	if res.Coverage != nil {
		meta[MetaValidation] = res.Coverage
	}
	if deps.Metrics != nil {
		meta[MetaUsage] = metrics.NewQuery(deps.Metrics).GetSummary(metrics.Filter{JobID: jobID})
	}
	if err := deps.Jobs.UpdateMetadata(jobID, meta); err != nil {
		return fmt.Errorf("store job metadata: %w", err)
	}

	logger.Info("bundle generated",
		"job_id", jobID, "spec_path", specPath, "code_path", codePath)
	return nil
}

// BuildSpecDoc renders the requirement document as the formatted
// specification DOCX. The text is normalized first so section markers land
// on their own lines.
func BuildSpecDoc(requirement string) (*docx.Builder, error) {
	doc := markdown.NewParser().Parse(section.Normalize(requirement))
	b := docx.NewBuilder(SpecDocTitle)
	if err := render.Render(doc, b); err != nil {
		return nil, fmt.Errorf("render specification document: %w", err)
	}
	return b, nil
}

// BuildCodeDoc wraps a generated ABAP source listing in the code DOCX.
func BuildCodeDoc(code string) *docx.Builder {
	return docx.NewCodeDocument(CodeDocTitle, code)
}

func writeDoc(b *docx.Builder, path string) error {
	data, err := b.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
