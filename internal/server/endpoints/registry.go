package endpoints

import (
	"github.com/abapscribe/scribe/internal/api"
)

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&StatusEndpoint{},

		// Core pipeline endpoints
		&SectionsEndpoint{},
		&BundleEndpoint{},

		// Job endpoints
		&CreateJobEndpoint{},
		&ListJobsEndpoint{},
		&GetJobEndpoint{},
		&JobArtifactEndpoint{},

		// Usage metrics endpoints
		&UsageEndpoint{},

		// LLM call history endpoints
		&ListCallsEndpoint{},
		&GetCallEndpoint{},
		&CallCountsEndpoint{},

		// Swagger/OpenAPI endpoints
		&SwaggerEndpoint{},
		&SwaggerUIEndpoint{},
	}
}

// JobCommands returns endpoints for job operations.
// This groups job-related commands under the "jobs" subcommand.
func JobCommands() []api.Endpoint {
	return []api.Endpoint{
		&CreateJobEndpoint{},
		&ListJobsEndpoint{},
		&GetJobEndpoint{},
		&JobArtifactEndpoint{},
	}
}

// CallCommands returns endpoints for LLM call history operations.
// This groups call-related commands under the "calls" subcommand.
func CallCommands() []api.Endpoint {
	return []api.Endpoint{
		&ListCallsEndpoint{},
		&GetCallEndpoint{},
		&CallCountsEndpoint{},
	}
}
