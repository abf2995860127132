package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/memoir/internal/store"
)

// NewProvider builds the configured provider wrapped as
// caller -> retry -> logging -> base, so every attempt is logged.
func NewProvider(ctx context.Context, cfg Config, events store.EventRepo) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderMock:
		base = NewMockProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("initialize %s provider: %w", cfg.Provider, err)
	}

	if events != nil {
		base = WithLogging(base, cfg.Provider, events)
	}
	return WithRetry(base, cfg.Retry), nil
}

// NewProviderFromEnv uses MEMOIR_ variables when any are set and falls
// back to DiscoverConfig otherwise. ok is false when no provider could be
// configured; callers then run without an LLM.
func NewProviderFromEnv(ctx context.Context, events store.EventRepo) (p Provider, cfg Config, ok bool, err error) {
	cfg = ConfigFromEnv()
	if !configured() {
		discovered, found := DiscoverConfig()
		if !found {
			return nil, cfg, false, nil
		}
		cfg = discovered
	}
	p, err = NewProvider(ctx, cfg, events)
	if err != nil {
		return nil, cfg, false, err
	}
	return p, cfg, true, nil
}
