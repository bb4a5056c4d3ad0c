package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/abapscribe/scribe/internal/abap"
	"github.com/abapscribe/scribe/internal/api"
	"github.com/abapscribe/scribe/internal/config"
	"github.com/abapscribe/scribe/internal/docx"
	"github.com/abapscribe/scribe/internal/jobs"
	"github.com/abapscribe/scribe/internal/section"
	"github.com/abapscribe/scribe/internal/svcctx"
)

// docxContentType is the MIME type for DOCX downloads.
const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// BundleEndpoint handles POST /v1/bundles. The generation runs synchronously
// and the response streams the specification DOCX; both artifacts are also
// written to the data directory. The X-Job-ID header carries the generation
// ID for usage queries.
type BundleEndpoint struct{}

func (e *BundleEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/v1/bundles", e.handler
}

func (e *BundleEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Generate a bundle synchronously
//	@Description	Run the full requirement-to-ABAP generation and stream the specification document back
//	@Tags			bundles
//	@Accept			json
//	@Produce		octet-stream
//	@Param			payload	body		map[string]string	true	"Requirement payload"
//	@Success		200		{file}		file
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/v1/bundles [post]
func (e *BundleEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	m, err := section.Split(body)
	if err != nil {
		if errors.Is(err, section.ErrInvalidPayload) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	services := svcctx.ServicesFrom(r.Context())
	if services == nil {
		writeError(w, http.StatusServiceUnavailable, "services not initialized")
		return
	}

	engine, err := services.BuildEngine()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	bundleID := uuid.NewString()
	strategy := services.ConfigManager.Get().Generation.Strategy

	var res *abap.ProgramResult
	if strategy == config.StrategyWhole {
		res, err = engine.GenerateWhole(r.Context(), bundleID, m, nil)
	} else {
		res, err = engine.GenerateProgram(r.Context(), bundleID, m, nil)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	requirement, err := section.RequirementText(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := services.Home.EnsureExists(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	specDoc, err := jobs.BuildSpecDoc(requirement)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	specPath := services.Home.SpecDocPath(bundleID)
	if err := writeDocFile(specDoc, specPath); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	codePath := services.Home.CodeDocPath(bundleID)
	if err := writeDocFile(jobs.BuildCodeDoc(res.Code), codePath); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", docxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filepath.Base(specPath)))
	w.Header().Set("X-Job-ID", bundleID)
	http.ServeFile(w, r, specPath)
}

func (e *BundleEndpoint) Command(getServerURL func() string) *cobra.Command {
	var file, outputPath string
	cmd := &cobra.Command{
		Use:   "bundle",
		Short: "Generate a bundle and download the specification document",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			payload, err := os.ReadFile(file)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client := api.NewClient(getServerURL())
			data, err := client.PostRaw(ctx, "/v1/bundles", json.RawMessage(payload))
			if err != nil {
				return err
			}

			if outputPath == "" {
				outputPath = "Functional_Spec.docx"
			}
			if err := os.WriteFile(outputPath, data, 0644); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}

			fmt.Printf("Downloaded to: %s\n", outputPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Requirement payload JSON file (required)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path")
	return cmd
}

// writeDocFile serializes a document builder to path.
func writeDocFile(b *docx.Builder, path string) error {
	data, err := b.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
