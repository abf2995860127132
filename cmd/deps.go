package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/abhisek/memoir/internal/hint"
	"github.com/abhisek/memoir/internal/keywords"
	"github.com/abhisek/memoir/internal/llm"
	"github.com/abhisek/memoir/internal/recall"
	"github.com/abhisek/memoir/internal/schedule"
	"github.com/abhisek/memoir/internal/session"
	"github.com/abhisek/memoir/internal/store"
)

// newService wires the session service with whatever collaborators the
// environment configures. Keyword extraction always has the heuristic as
// a fallback; hint images are optional.
func newService(ctx context.Context, st *store.Store) (*session.Service, error) {
	policy := schedule.PolicyFromEnv()
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("phase policy: %w", err)
	}
	recallCfg := recall.ConfigFromEnv()
	if err := recallCfg.Validate(); err != nil {
		return nil, fmt.Errorf("recall config: %w", err)
	}

	var extractor keywords.Extractor = keywords.Heuristic{Limit: keywords.MaxKeywordsPerAnswer}
	provider, _, ok, err := llm.NewProviderFromEnv(ctx, st.EventRepo())
	switch {
	case err != nil:
		fmt.Fprintf(os.Stderr, "warning: LLM provider unavailable, using heuristic keywords: %v\n", err)
	case !ok:
		fmt.Fprintln(os.Stderr, "warning: no LLM provider configured, using heuristic keywords")
	default:
		extractor = keywords.Fallback{
			keywords.NewLLMExtractor(provider, keywords.DefaultLLMConfig()),
			extractor,
		}
	}

	opts := session.Options{
		Policy:    policy,
		Recall:    recallCfg,
		Extractor: extractor,
	}
	if gen, ok := hint.FromEnv(); ok {
		opts.Hints = gen
	} else {
		fmt.Fprintln(os.Stderr, "warning: no image API key configured, memory checks run without hint images")
	}
	return session.New(st, opts), nil
}
