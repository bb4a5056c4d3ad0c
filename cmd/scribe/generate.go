package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/abapscribe/scribe/internal/abap"
	"github.com/abapscribe/scribe/internal/api"
	"github.com/abapscribe/scribe/internal/config"
	"github.com/abapscribe/scribe/internal/docx"
	"github.com/abapscribe/scribe/internal/home"
	"github.com/abapscribe/scribe/internal/jobs"
	"github.com/abapscribe/scribe/internal/llmcall"
	"github.com/abapscribe/scribe/internal/metrics"
	"github.com/abapscribe/scribe/internal/prompts/review"
	"github.com/abapscribe/scribe/internal/providers"
	"github.com/abapscribe/scribe/internal/section"
	"github.com/abapscribe/scribe/internal/svcctx"
)

var (
	generateFile string
	generateDir  string
)

// generateSummary is the run report printed after a local generation.
type generateSummary struct {
	JobID    string                `json:"job_id" yaml:"job_id"`
	SpecPath string                `json:"spec_path" yaml:"spec_path"`
	CodePath string                `json:"code_path" yaml:"code_path"`
	Usage    metrics.Summary       `json:"usage" yaml:"usage"`
	Fields   *abap.FieldComparison `json:"field_analysis,omitempty" yaml:"field_analysis,omitempty"`
	Coverage *review.Result        `json:"requirement_validation,omitempty" yaml:"requirement_validation,omitempty"`
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the spec document and ABAP program from a requirement file",
	Long: `Generate the full bundle locally without a running server.

The requirement file is a JSON object carrying the requirement document
(usually under the REQUIREMENT key). Both DOCX artifacts are written to
the output directory and a usage summary is printed.

Examples:
  scribe generate -f requirement.json
  scribe generate -f requirement.json -d ./out -o json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Logs go to stderr so the summary stays parseable on stdout
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		payload, err := os.ReadFile(generateFile)
		if err != nil {
			return fmt.Errorf("read requirement file: %w", err)
		}

		manager, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}

		registry := providers.NewRegistry()
		registry.SetLogger(logger)
		registry.Reload(ctx, manager.Get().ToProviderRegistryConfig())

		h, err := home.New(homeDir)
		if err != nil {
			return err
		}

		services := &svcctx.Services{
			ConfigManager: manager,
			Registry:      registry,
			Metrics:       metrics.NewStore(),
			Calls:         llmcall.NewStore(0),
			Logger:        logger,
			Home:          h,
		}
		engine, err := services.BuildEngine()
		if err != nil {
			return err
		}

		m, err := section.Split(payload)
		if err != nil {
			return err
		}
		requirement, err := section.RequirementText(payload)
		if err != nil {
			return err
		}

		jobID := uuid.NewString()
		var res *abap.ProgramResult
		if manager.Get().Generation.Strategy == config.StrategyWhole {
			res, err = engine.GenerateWhole(ctx, jobID, m, nil)
		} else {
			res, err = engine.GenerateProgram(ctx, jobID, m, nil)
		}
		if err != nil {
			return err
		}

		if err := os.MkdirAll(generateDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}

		specDoc, err := jobs.BuildSpecDoc(requirement)
		if err != nil {
			return err
		}
		specPath := filepath.Join(generateDir, fmt.Sprintf("Functional_Spec_%s.docx", jobID))
		if err := writeDoc(specDoc, specPath); err != nil {
			return err
		}

		codePath := filepath.Join(generateDir, fmt.Sprintf("ABAP_Code_%s.docx", jobID))
		if err := writeDoc(jobs.BuildCodeDoc(res.Code), codePath); err != nil {
			return err
		}

		return api.Output(generateSummary{
			JobID:    jobID,
			SpecPath: specPath,
			CodePath: codePath,
			Usage:    *metrics.NewQuery(services.Metrics).GetSummary(metrics.Filter{JobID: jobID}),
			Fields:   res.Fields,
			Coverage: res.Coverage,
		})
	},
}

func writeDoc(b *docx.Builder, path string) error {
	data, err := b.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func init() {
	generateCmd.Flags().StringVarP(&generateFile, "file", "f", "", "Requirement JSON file (required)")
	generateCmd.Flags().StringVarP(&generateDir, "dir", "d", ".", "Output directory for the DOCX artifacts")
	_ = generateCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(generateCmd)
}
