package llm

import (
	"fmt"
	"os"
	"time"
)

// Config selects and tunes the provider used for question generation.
type Config struct {
	// Provider is one of "anthropic", "openai", "openrouter", "gemini",
	// "mock", or "" to disable generation.
	Provider string `mapstructure:"provider"`

	// Model is a friendly name or a raw model id. Empty picks the provider
	// default.
	Model string `mapstructure:"model"`

	// APIKey overrides the provider's standard key variable.
	APIKey string `mapstructure:"api_key"`

	// BaseURL overrides the endpoint for OpenAI-compatible providers.
	BaseURL string `mapstructure:"base_url"`

	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Retry       RetryConfig   `mapstructure:"retry"`
}

// RetryConfig controls backoff for transient failures.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	InitialWait time.Duration `mapstructure:"initial_wait"`
	MaxWait     time.Duration `mapstructure:"max_wait"`
	Multiplier  float64       `mapstructure:"multiplier"`
}

// DefaultConfig leaves generation disabled.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   1024,
		Temperature: 0.7,
		Timeout:     30 * time.Second,
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2,
		},
	}
}

// Enabled reports whether a provider is selected.
func (c Config) Enabled() bool { return c.Provider != "" }

// Info describes a supported provider.
type Info struct {
	Name         string
	DefaultModel string
	KeyEnv       string
	Models       map[string]string
}

var providers = []Info{
	{
		Name: "anthropic", DefaultModel: "claude-haiku", KeyEnv: "ANTHROPIC_API_KEY",
		Models: map[string]string{
			"claude-haiku":  "claude-haiku-4-5-20251001",
			"claude-sonnet": "claude-sonnet-4-5-20250929",
		},
	},
	{
		Name: "openai", DefaultModel: "gpt-4o-mini", KeyEnv: "OPENAI_API_KEY",
		Models: map[string]string{"gpt-4o-mini": "gpt-4o-mini", "gpt-4.1-mini": "gpt-4.1-mini"},
	},
	{
		Name: "openrouter", DefaultModel: "google/gemini-2.0-flash-001", KeyEnv: "OPENROUTER_API_KEY",
	},
	{
		Name: "gemini", DefaultModel: "gemini-flash", KeyEnv: "GEMINI_API_KEY",
		Models: map[string]string{"gemini-flash": "gemini-2.0-flash", "gemini-pro": "gemini-2.5-pro"},
	},
	{Name: "mock", DefaultModel: "mock"},
}

// Providers lists the supported providers.
func Providers() []Info { return providers }

func lookup(name string) (Info, bool) {
	for _, p := range providers {
		if p.Name == name {
			return p, true
		}
	}
	return Info{}, false
}

// ResolvedModel maps the configured model to a provider model id.
func (c Config) ResolvedModel() string {
	info, _ := lookup(c.Provider)
	name := c.Model
	if name == "" {
		name = info.DefaultModel
	}
	if id, ok := info.Models[name]; ok {
		return id
	}
	return name
}

// ResolvedKey returns APIKey or the provider's standard variable.
func (c Config) ResolvedKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	if info, ok := lookup(c.Provider); ok && info.KeyEnv != "" {
		return os.Getenv(info.KeyEnv)
	}
	return ""
}

// Discover picks the first provider whose standard key is set when no
// provider was configured.
func (c Config) Discover() Config {
	if c.Provider != "" {
		return c
	}
	for _, p := range providers {
		if p.KeyEnv != "" && os.Getenv(p.KeyEnv) != "" {
			c.Provider = p.Name
			return c
		}
	}
	return c
}

// Validate checks the provider name and key.
func (c Config) Validate() error {
	if !c.Enabled() {
		return nil
	}
	info, ok := lookup(c.Provider)
	if !ok {
		return fmt.Errorf("unknown llm provider %q", c.Provider)
	}
	if info.KeyEnv != "" && c.ResolvedKey() == "" {
		return fmt.Errorf("%s provider needs an api key (set %s or PAL_LLM_API_KEY)", c.Provider, info.KeyEnv)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("llm retry max_attempts must be at least 1")
	}
	return nil
}
