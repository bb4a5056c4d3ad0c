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
	"github.com/abapscribe/scribe/internal/section"
)

// Section is one labeled section of a split requirement document.
type Section struct {
	Label string `json:"label"`
	Body  string `json:"body"`
}

// SectionsEndpoint handles POST /v1/sections. It exposes the section split
// directly so callers can preview how a payload will be mapped before
// spending a generation run on it.
type SectionsEndpoint struct{}

func (e *SectionsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/v1/sections", e.handler
}

func (e *SectionsEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Split a requirement payload into sections
//	@Description	Normalize the requirement document and split it into ordered canonical sections without running a generation
//	@Tags			sections
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		map[string]string	true	"Requirement payload"
//	@Success		200		{array}		Section
//	@Failure		400		{object}	ErrorResponse
//	@Router			/v1/sections [post]
func (e *SectionsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
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

	sections := []Section{}
	m.Each(func(label, body string) bool {
		sections = append(sections, Section{Label: label, Body: body})
		return true
	})

	writeJSON(w, http.StatusOK, sections)
}

func (e *SectionsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "sections",
		Short: "Preview the section split for a requirement payload",
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
			var resp []Section
			if err := client.Post(ctx, "/v1/sections", json.RawMessage(payload), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Requirement payload JSON file (required)")
	return cmd
}
