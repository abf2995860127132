// Package keywords extracts the scored keyword set from a participant's
// initial answer.
package keywords

import (
	"context"
	"errors"
	"strings"
)

// MaxKeywordsPerAnswer caps how many keywords are stored per initial answer.
const MaxKeywordsPerAnswer = 6

// Extractor pulls keywords out of free answer text.
type Extractor interface {
	ExtractKeywords(ctx context.Context, text string) ([]string, error)
}

// ErrEmptyText is returned for blank input.
var ErrEmptyText = errors.New("answer text is empty")

// Normalize lowercases and trims each keyword, drops blanks and duplicates,
// and keeps at most limit entries in their original order. limit <= 0 means
// MaxKeywordsPerAnswer. The result is never nil.
func Normalize(raw []string, limit int) []string {
	if limit <= 0 {
		limit = MaxKeywordsPerAnswer
	}
	out := make([]string, 0, min(len(raw), limit))
	seen := make(map[string]bool, len(raw))
	for _, k := range raw {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
		if len(out) == limit {
			break
		}
	}
	return out
}

// Fallback tries each extractor in order and returns the first non-empty
// result. If every extractor fails, the last error is returned.
type Fallback []Extractor

func (f Fallback) ExtractKeywords(ctx context.Context, text string) ([]string, error) {
	var lastErr error
	for _, e := range f {
		kws, err := e.ExtractKeywords(ctx, text)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		if len(kws) > 0 {
			return kws, nil
		}
	}
	if lastErr != nil {
		return []string{}, lastErr
	}
	return []string{}, nil
}
