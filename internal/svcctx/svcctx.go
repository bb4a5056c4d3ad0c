// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abapscribe/scribe/internal/abap"
	"github.com/abapscribe/scribe/internal/config"
	"github.com/abapscribe/scribe/internal/home"
	"github.com/abapscribe/scribe/internal/jobs"
	"github.com/abapscribe/scribe/internal/llmcall"
	"github.com/abapscribe/scribe/internal/metrics"
	"github.com/abapscribe/scribe/internal/prompts"
	"github.com/abapscribe/scribe/internal/providers"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	ConfigManager *config.Manager
	Registry      *providers.Registry
	JobStore      *jobs.Store
	Runner        *jobs.Runner
	Metrics       *metrics.Store
	Calls         *llmcall.Store
	Logger        *slog.Logger
	Home          *home.Dir
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// ConfigManagerFrom extracts the config manager from context.
func ConfigManagerFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.ConfigManager
	}
	return nil
}

// RegistryFrom extracts the provider registry from context.
func RegistryFrom(ctx context.Context) *providers.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.Registry
	}
	return nil
}

// JobStoreFrom extracts the job store from context.
func JobStoreFrom(ctx context.Context) *jobs.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.JobStore
	}
	return nil
}

// RunnerFrom extracts the job runner from context.
func RunnerFrom(ctx context.Context) *jobs.Runner {
	if s := ServicesFrom(ctx); s != nil {
		return s.Runner
	}
	return nil
}

// MetricsFrom extracts the usage metrics store from context.
func MetricsFrom(ctx context.Context) *metrics.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Metrics
	}
	return nil
}

// CallStoreFrom extracts the LLM call store from context.
func CallStoreFrom(ctx context.Context) *llmcall.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Calls
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// BuildEngine assembles a generation engine from the current configuration.
// Resolving the client here rather than at startup keeps hot-reloaded
// provider settings in effect; the engine itself is cheap to construct.
func (s *Services) BuildEngine() (*abap.Engine, error) {
	cfg := s.ConfigManager.Get()
	gen := cfg.Generation

	client, err := s.Registry.GetLLM(gen.Provider)
	if err != nil {
		return nil, fmt.Errorf("resolve llm provider %q: %w", gen.Provider, err)
	}

	engineCfg := abap.Config{
		Client:     client,
		Model:      gen.Model,
		Logger:     s.Logger,
		RetryDelay: time.Duration(gen.RetryDelaySeconds) * time.Second,
	}
	if gen.Attempts > 0 {
		engineCfg.Attempts = uint(gen.Attempts)
	}
	if s.Metrics != nil {
		engineCfg.Usage = metrics.NewRecorder(s.Metrics)
	}
	if s.Calls != nil {
		engineCfg.Calls = llmcall.NewRecorder(s.Calls)
	}
	if s.Home != nil {
		// Operator prompt overrides live under the home prompts directory
		// and are re-read per engine build, same as the provider settings.
		resolver := prompts.NewResolver(s.Logger)
		if _, err := resolver.LoadOverrideDir(s.Home.PromptsPath()); err != nil && s.Logger != nil {
			s.Logger.Warn("failed to load prompt overrides", "dir", s.Home.PromptsPath(), "error", err)
		}
		engineCfg.Resolver = resolver
	}
	return abap.NewEngine(engineCfg), nil
}

// JobDependencies derives the dependency set handed to background jobs.
func (s *Services) JobDependencies(engine *abap.Engine) jobs.Dependencies {
	return jobs.Dependencies{
		Engine:  engine,
		Jobs:    s.JobStore,
		Metrics: s.Metrics,
		Home:    s.Home,
		Logger:  s.Logger,
	}
}
