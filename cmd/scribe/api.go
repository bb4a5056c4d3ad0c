package main

import (
	"github.com/spf13/cobra"

	"github.com/abapscribe/scribe/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running Scribe server via HTTP.

These commands require a running server (scribe serve).
Use --server to specify a custom server URL.

Examples:
  scribe api health             # Check server health
  scribe api sections -f r.json # Preview the section split
  scribe api jobs list          # List all jobs
  scribe api jobs get <id>      # Get a specific job`,
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Job management commands",
}

var callsCmd = &cobra.Command{
	Use:   "calls",
	Short: "LLM call history commands",
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)

	// Health and pipeline endpoints at top level of api
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.StatusEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.SectionsEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.BundleEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.UsageEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.SwaggerEndpoint{}).Command(getServerURL))

	// Jobs as subcommand group
	for _, ep := range endpoints.JobCommands() {
		jobsCmd.AddCommand(ep.Command(getServerURL))
	}

	// LLM calls as subcommand group
	for _, ep := range endpoints.CallCommands() {
		callsCmd.AddCommand(ep.Command(getServerURL))
	}

	apiCmd.AddCommand(jobsCmd)
	apiCmd.AddCommand(callsCmd)
	rootCmd.AddCommand(apiCmd)
}
