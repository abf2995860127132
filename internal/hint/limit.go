package hint

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/abhisek/memoir/internal/recall"
)

// Limited throttles an image generator. A caller that cannot get a token
// before its context ends gets an error and shows no hint.
type Limited struct {
	inner   recall.HintGenerator
	limiter *rate.Limiter
}

// WithLimit wraps g so at most perMinute requests start per minute, with
// bursts of up to perMinute. perMinute <= 0 returns g unchanged.
func WithLimit(g recall.HintGenerator, perMinute int) recall.HintGenerator {
	if perMinute <= 0 {
		return g
	}
	return &Limited{
		inner:   g,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
	}
}

func (l *Limited) GenerateHintImage(ctx context.Context, kws []string) (string, error) {
	if len(kws) == 0 {
		return "", ErrNoKeywords
	}
	if err := l.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("wait for image quota: %w", err)
	}
	return l.inner.GenerateHintImage(ctx, kws)
}

// Prompt forwards to the wrapped generator when it reports prompts.
func (l *Limited) Prompt(kws []string) string {
	if p, ok := l.inner.(recall.Prompter); ok {
		return p.Prompt(kws)
	}
	return Prompt(kws)
}

// FromEnv builds the rate-limited generator from the environment. ok is
// false when no key is configured; the app then runs without hint images.
func FromEnv() (g recall.HintGenerator, ok bool) {
	cfg := ConfigFromEnv()
	gen, err := New(cfg)
	if err != nil {
		return nil, false
	}
	return WithLimit(gen, cfg.PerMinute), true
}
