package llm

import (
	"fmt"
	"os"
	"time"
)

// Provider names accepted by MEMOIR_LLM_PROVIDER.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config selects and configures the keyword extraction model.
type Config struct {
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds a single logical request including retries.
	Timeout time.Duration
}

type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig configures backoff for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns the built-in defaults. Keyword extraction is short
// and latency sensitive, so the small models are the defaults.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderAnthropic,
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.0-flash-001"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     8 * time.Second,
			Multiplier:  2,
		},
		Timeout: 30 * time.Second,
	}
}

// envBindings maps MEMOIR_ variables onto Config fields.
func envBindings(c *Config) map[string]*string {
	return map[string]*string{
		"MEMOIR_LLM_PROVIDER":       &c.Provider,
		"MEMOIR_ANTHROPIC_API_KEY":  &c.Anthropic.APIKey,
		"MEMOIR_ANTHROPIC_MODEL":    &c.Anthropic.Model,
		"MEMOIR_ANTHROPIC_BASE_URL": &c.Anthropic.BaseURL,
		"MEMOIR_OPENAI_API_KEY":     &c.OpenAI.APIKey,
		"MEMOIR_OPENAI_MODEL":       &c.OpenAI.Model,
		"MEMOIR_OPENAI_BASE_URL":    &c.OpenAI.BaseURL,
		"MEMOIR_GEMINI_API_KEY":     &c.Gemini.APIKey,
		"MEMOIR_GEMINI_MODEL":       &c.Gemini.Model,
		"MEMOIR_OPENROUTER_API_KEY": &c.OpenRouter.APIKey,
		"MEMOIR_OPENROUTER_MODEL":   &c.OpenRouter.Model,
	}
}

// ConfigFromEnv overlays MEMOIR_ environment variables on the defaults.
// An unparseable MEMOIR_LLM_TIMEOUT is ignored with a warning.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	for name, field := range envBindings(&cfg) {
		if v := os.Getenv(name); v != "" {
			*field = v
		}
	}
	if v := os.Getenv("MEMOIR_LLM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			fmt.Fprintf(os.Stderr, "warning: ignoring MEMOIR_LLM_TIMEOUT=%q\n", v)
		} else {
			cfg.Timeout = d
		}
	}
	return cfg
}

// configured reports whether any MEMOIR_ LLM variable is set.
func configured() bool {
	for name := range envBindings(&Config{}) {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

// DiscoverConfig looks for a vendor's standard API key variable, in the
// order Anthropic, OpenAI, Gemini, OpenRouter, and returns a Config for the
// first one found.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()
	probes := []struct {
		env      string
		provider string
		key      *string
	}{
		{"ANTHROPIC_API_KEY", ProviderAnthropic, &cfg.Anthropic.APIKey},
		{"OPENAI_API_KEY", ProviderOpenAI, &cfg.OpenAI.APIKey},
		{"GEMINI_API_KEY", ProviderGemini, &cfg.Gemini.APIKey},
		{"OPENROUTER_API_KEY", ProviderOpenRouter, &cfg.OpenRouter.APIKey},
	}
	for _, p := range probes {
		if k := os.Getenv(p.env); k != "" {
			cfg.Provider = p.provider
			*p.key = k
			return cfg, true
		}
	}
	return Config{}, false
}

// Validate checks the selected provider has an API key.
func (c Config) Validate() error {
	var key, env string
	switch c.Provider {
	case ProviderAnthropic:
		key, env = c.Anthropic.APIKey, "MEMOIR_ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		key, env = c.OpenAI.APIKey, "MEMOIR_OPENAI_API_KEY"
	case ProviderGemini:
		key, env = c.Gemini.APIKey, "MEMOIR_GEMINI_API_KEY"
	case ProviderOpenRouter:
		key, env = c.OpenRouter.APIKey, "MEMOIR_OPENROUTER_API_KEY"
	case ProviderMock:
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("%s is required for the %s provider", env, c.Provider)
	}
	return nil
}
