package config

// Generation strategies.
const (
	StrategyUnits = "units" // generate the four program units with progressive context
	StrategyWhole = "whole" // single draft over the combined requirement, then refine
)

// Config holds scribe configuration.
// Stored at: ~/.scribe/config.yaml
type Config struct {
	LLMProviders map[string]LLMProviderCfg `mapstructure:"llm_providers" yaml:"llm_providers"`
	Generation   GenerationCfg             `mapstructure:"generation" yaml:"generation"`
	Server       ServerCfg                 `mapstructure:"server" yaml:"server"`
	Jobs         JobsCfg                   `mapstructure:"jobs" yaml:"jobs"`
}

// LLMProviderCfg configures an LLM provider.
type LLMProviderCfg struct {
	Type      string  `mapstructure:"type" yaml:"type"`             // "openai", "gemini", "mock"
	Model     string  `mapstructure:"model" yaml:"model"`           // Default model name
	APIKey    string  `mapstructure:"api_key" yaml:"api_key"`       // API key (supports ${ENV_VAR} syntax)
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per second
	Enabled   bool    `mapstructure:"enabled" yaml:"enabled"`
}

// GenerationCfg specifies how programs are generated.
type GenerationCfg struct {
	Provider          string `mapstructure:"provider" yaml:"provider"`                       // Default LLM provider name
	Model             string `mapstructure:"model" yaml:"model"`                             // Optional model override
	Strategy          string `mapstructure:"strategy" yaml:"strategy"`                       // "units" or "whole"
	Attempts          int    `mapstructure:"attempts" yaml:"attempts"`                       // Attempts per LLM call
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds" yaml:"retry_delay_seconds"` // Base delay between attempts
}

// ServerCfg configures the HTTP server.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
}

// JobsCfg configures the background job runner.
type JobsCfg struct {
	Workers   int `mapstructure:"workers" yaml:"workers"`       // Worker goroutines
	QueueSize int `mapstructure:"queue_size" yaml:"queue_size"` // Pending job capacity
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLMProviders: map[string]LLMProviderCfg{
			"openai": {
				Type:      "openai",
				Model:     "gpt-5",
				APIKey:    "${OPENAI_API_KEY}",
				RateLimit: 2.0,
				Enabled:   true,
			},
			"gemini": {
				Type:      "gemini",
				Model:     "gemini-2.5-flash",
				APIKey:    "${GEMINI_API_KEY}",
				RateLimit: 1.0,
				Enabled:   false,
			},
		},
		Generation: GenerationCfg{
			Provider:          "openai",
			Strategy:          StrategyUnits,
			Attempts:          3,
			RetryDelaySeconds: 1,
		},
		Server: ServerCfg{
			Host: "127.0.0.1",
			Port: "8080",
		},
		Jobs: JobsCfg{
			Workers:   2,
			QueueSize: 100,
		},
	}
}

// GetLLMProvider returns an LLM provider config by name.
func (c *Config) GetLLMProvider(name string) (LLMProviderCfg, bool) {
	cfg, ok := c.LLMProviders[name]
	return cfg, ok
}

// EnabledLLMProviders returns all enabled LLM providers.
func (c *Config) EnabledLLMProviders() map[string]LLMProviderCfg {
	result := make(map[string]LLMProviderCfg)
	for name, cfg := range c.LLMProviders {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}
