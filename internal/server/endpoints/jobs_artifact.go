package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abapscribe/scribe/internal/api"
	"github.com/abapscribe/scribe/internal/home"
	"github.com/abapscribe/scribe/internal/jobs"
	"github.com/abapscribe/scribe/internal/svcctx"
)

// Artifact kinds served by the download endpoint.
const (
	ArtifactSpec = "spec"
	ArtifactCode = "code"
)

// JobArtifactEndpoint handles GET /v1/jobs/{id}/artifacts/{kind}. It serves
// the specification or code DOCX of a completed job.
type JobArtifactEndpoint struct{}

func (e *JobArtifactEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/v1/jobs/{id}/artifacts/{kind}", e.handler
}

func (e *JobArtifactEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Download a job artifact
//	@Description	Download the specification or code DOCX once the job has completed
//	@Tags			jobs
//	@Produce		octet-stream
//	@Param			id		path		string	true	"Job ID"
//	@Param			kind	path		string	true	"Artifact kind (spec or code)"
//	@Success		200		{file}		file
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		410		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/v1/jobs/{id}/artifacts/{kind} [get]
func (e *JobArtifactEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	kind := r.PathValue("kind")
	if kind != ArtifactSpec && kind != ArtifactCode {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown artifact kind %q, want %q or %q", kind, ArtifactSpec, ArtifactCode))
		return
	}

	store := svcctx.JobStoreFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "job store not initialized")
		return
	}

	job, err := store.Get(id)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	switch job.Status {
	case jobs.StatusCompleted:
	case jobs.StatusQueued, jobs.StatusRunning:
		writeError(w, http.StatusConflict, fmt.Sprintf("artifact not ready: job is %s", job.Status))
		return
	default:
		writeError(w, http.StatusConflict, fmt.Sprintf("job did not complete (status: %s)", job.Status))
		return
	}

	path := artifactPath(job, kind, svcctx.HomeFrom(r.Context()))
	if path == "" {
		writeError(w, http.StatusGone, "artifact path not recorded")
		return
	}
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusGone, "artifact file no longer exists")
		return
	}

	w.Header().Set("Content-Type", docxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filepath.Base(path)))
	http.ServeFile(w, r, path)
}

// artifactPath resolves the artifact file from job metadata, falling back to
// the conventional home layout when the metadata key is absent.
func artifactPath(job *jobs.Record, kind string, dir *home.Dir) string {
	metaKey := jobs.MetaSpecPath
	if kind == ArtifactCode {
		metaKey = jobs.MetaCodePath
	}
	if p, ok := job.Metadata[metaKey].(string); ok && p != "" {
		return p
	}
	if dir == nil {
		return ""
	}
	if kind == ArtifactCode {
		return dir.CodeDocPath(job.ID)
	}
	return dir.SpecDocPath(job.ID)
}

func (e *JobArtifactEndpoint) Command(getServerURL func() string) *cobra.Command {
	var outputPath string
	cmd := &cobra.Command{
		Use:   "artifact <id> <kind>",
		Short: "Download a job artifact (spec or code DOCX)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, kind := args[0], args[1]

			client := api.NewClient(getServerURL())
			data, err := client.GetRaw(ctx, fmt.Sprintf("/v1/jobs/%s/artifacts/%s", id, kind))
			if err != nil {
				return err
			}

			if outputPath == "" {
				if kind == ArtifactCode {
					outputPath = fmt.Sprintf("ABAP_Code_%s.docx", id)
				} else {
					outputPath = fmt.Sprintf("Functional_Spec_%s.docx", id)
				}
			}

			if err := os.WriteFile(outputPath, data, 0644); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}

			fmt.Printf("Downloaded to: %s\n", outputPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path")
	return cmd
}
