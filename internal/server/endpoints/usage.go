package endpoints

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/abapscribe/scribe/internal/api"
	"github.com/abapscribe/scribe/internal/metrics"
	"github.com/abapscribe/scribe/internal/svcctx"
)

// UsageResponse is the aggregated usage for a filter.
type UsageResponse struct {
	Count            int     `json:"count"`
	TotalCostUSD     float64 `json:"total_cost_usd"`
	TotalTokens      int     `json:"total_tokens"`
	TotalTimeSeconds float64 `json:"total_time_seconds"`
	SuccessCount     int     `json:"success_count"`
	ErrorCount       int     `json:"error_count"`
	AvgCostUSD       float64 `json:"avg_cost_usd"`
	AvgTokens        float64 `json:"avg_tokens"`
	AvgTimeSeconds   float64 `json:"avg_time_seconds"`
}

// UsageEndpoint handles GET /v1/usage.
type UsageEndpoint struct{}

func (e *UsageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/v1/usage", e.handler
}

func (e *UsageEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get aggregated usage metrics
//	@Description	Aggregate cost, token and timing metrics over recorded LLM calls, narrowed by the query filters
//	@Tags			usage
//	@Produce		json
//	@Param			job_id		query		string	false	"Filter by job ID"
//	@Param			unit		query		string	false	"Filter by program unit"
//	@Param			stage		query		string	false	"Filter by pipeline stage"
//	@Param			provider	query		string	false	"Filter by provider"
//	@Param			model		query		string	false	"Filter by model"
//	@Success		200			{object}	UsageResponse
//	@Failure		503			{object}	ErrorResponse
//	@Router			/v1/usage [get]
func (e *UsageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.MetricsFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "metrics store not initialized")
		return
	}

	// Build filter from query params
	q := r.URL.Query()
	f := metrics.Filter{
		JobID:    q.Get("job_id"),
		Unit:     q.Get("unit"),
		Stage:    q.Get("stage"),
		Provider: q.Get("provider"),
		Model:    q.Get("model"),
	}

	summary := metrics.NewQuery(store).GetSummary(f)

	writeJSON(w, http.StatusOK, UsageResponse{
		Count:            summary.Count,
		TotalCostUSD:     summary.TotalCostUSD,
		TotalTokens:      summary.TotalTokens,
		TotalTimeSeconds: summary.TotalTime.Seconds(),
		SuccessCount:     summary.SuccessCount,
		ErrorCount:       summary.ErrorCount,
		AvgCostUSD:       summary.AvgCostUSD,
		AvgTokens:        summary.AvgTokens,
		AvgTimeSeconds:   summary.AvgTimeSeconds,
	})
}

func (e *UsageEndpoint) Command(getServerURL func() string) *cobra.Command {
	var jobID, unit, stage, provider, model string

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Get aggregated usage metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())

			path := "/v1/usage"
			params := url.Values{}
			if jobID != "" {
				params.Set("job_id", jobID)
			}
			if unit != "" {
				params.Set("unit", unit)
			}
			if stage != "" {
				params.Set("stage", stage)
			}
			if provider != "" {
				params.Set("provider", provider)
			}
			if model != "" {
				params.Set("model", model)
			}
			if len(params) > 0 {
				path += "?" + params.Encode()
			}

			var resp UsageResponse
			if err := client.Get(ctx, path, &resp); err != nil {
				return err
			}

			fmt.Printf("Usage Summary\n")
			fmt.Printf("=============\n")
			fmt.Printf("  Count:       %d\n", resp.Count)
			fmt.Printf("  Success:     %d\n", resp.SuccessCount)
			fmt.Printf("  Errors:      %d\n", resp.ErrorCount)
			fmt.Println()
			fmt.Printf("  Total Cost:  $%.4f\n", resp.TotalCostUSD)
			fmt.Printf("  Avg Cost:    $%.6f\n", resp.AvgCostUSD)
			fmt.Println()
			fmt.Printf("  Total Tokens: %d\n", resp.TotalTokens)
			fmt.Printf("  Avg Tokens:   %.1f\n", resp.AvgTokens)
			fmt.Println()
			fmt.Printf("  Total Time:   %s\n", time.Duration(resp.TotalTimeSeconds*float64(time.Second)))
			fmt.Printf("  Avg Time:     %.2fs\n", resp.AvgTimeSeconds)

			return nil
		},
	}

	cmd.Flags().StringVar(&jobID, "job", "", "Filter by job ID")
	cmd.Flags().StringVar(&unit, "unit", "", "Filter by program unit")
	cmd.Flags().StringVar(&stage, "stage", "", "Filter by pipeline stage")
	cmd.Flags().StringVar(&provider, "provider", "", "Filter by provider")
	cmd.Flags().StringVar(&model, "model", "", "Filter by model")

	return cmd
}
