package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/abapscribe/scribe/internal/api"
	"github.com/abapscribe/scribe/internal/config"
	"github.com/abapscribe/scribe/internal/jobs"
	"github.com/abapscribe/scribe/internal/section"
	"github.com/abapscribe/scribe/internal/svcctx"
)

// CreateJobResponse is the response for creating a bundle job.
type CreateJobResponse struct {
	JobID string `json:"job_id"`
}

// CreateJobEndpoint handles POST /v1/jobs. The request body is the
// requirement payload itself; the job runs the full bundle generation in the
// background.
type CreateJobEndpoint struct{}

func (e *CreateJobEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/v1/jobs", e.handler
}

func (e *CreateJobEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Create a bundle job
//	@Description	Enqueue a background bundle generation for the requirement payload
//	@Tags			jobs
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		map[string]string	true	"Requirement payload"
//	@Success		202		{object}	CreateJobResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/v1/jobs [post]
func (e *CreateJobEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	// Reject malformed payloads before queueing so the caller hears about
	// them synchronously.
	if _, err := section.Split(body); err != nil {
		if errors.Is(err, section.ErrInvalidPayload) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	services := svcctx.ServicesFrom(r.Context())
	if services == nil || services.Runner == nil {
		writeError(w, http.StatusServiceUnavailable, "job runner not initialized")
		return
	}

	engine, err := services.BuildEngine()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	gen := services.ConfigManager.Get().Generation
	strategy := gen.Strategy
	if strategy == "" {
		strategy = config.StrategyUnits
	}

	job := &jobs.BundleJob{
		Payload:  json.RawMessage(body),
		Strategy: strategy,
		Engine:   engine,
	}
	metadata := map[string]any{
		"strategy": strategy,
		"provider": gen.Provider,
		"model":    gen.Model,
	}

	id, err := services.Runner.Submit(job, metadata)
	if err != nil {
		if errors.Is(err, jobs.ErrQueueFull) || errors.Is(err, jobs.ErrStopped) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, CreateJobResponse{JobID: id})
}

func (e *CreateJobEndpoint) Command(getServerURL func() string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a bundle generation job",
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
			var resp CreateJobResponse
			if err := client.Post(ctx, "/v1/jobs", json.RawMessage(payload), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Requirement payload JSON file (required)")
	return cmd
}
