package keywords

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Copula endings follow a noun ("여행이었어요"), so stripping them keeps
// the noun.
var copulaEndings = []string{"이었어요", "였어요", "이었다", "였다", "이에요", "예요", "이요"}

// Predicate endings mark verbs and adjectives, which are never keywords.
var predicateEndings = []string{
	"습니다", "니다", "어요", "아요", "해요", "었고", "았고", "었다", "았다", "했다",
	"거요", "는데", "어서", "아서", "었던", "았던",
}

// Particles, multi-rune first so "에서" wins over "에".
var particles = []string{
	"에서는", "에게서", "이랑은", "으로는",
	"에서", "에게", "한테", "으로", "이랑", "하고", "처럼", "까지", "부터", "이나", "들이", "들과",
	"은", "는", "이", "가", "을", "를", "에", "와", "과", "로", "랑", "의", "만",
}

var stopwords = map[string]bool{
	"그리고": true, "그래서": true, "그때": true, "정말": true, "너무": true, "아주": true,
	"제가": true, "저는": true, "우리": true, "거기": true, "그것": true, "이것": true,
	"we": true, "to": true, "went": true, "my": true, "our": true, "the": true, "and": true,
	"with": true, "was": true, "were": true, "that": true, "this": true, "had": true,
	"for": true, "from": true, "there": true, "then": true, "very": true,
}

// Heuristic extracts keywords without a model. It splits on anything that
// is not a letter or digit, drops predicates and stopwords, strips Korean
// particles, and keeps the first Limit distinct stems of two or more runes.
type Heuristic struct {
	Limit int
}

func (h Heuristic) ExtractKeywords(ctx context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return []string{}, ErrEmptyText
	}
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	var stems []string
	for _, f := range fields {
		s, ok := stem(f)
		if !ok || utf8.RuneCountInString(s) < 2 || stopwords[s] || stopwords[f] {
			continue
		}
		stems = append(stems, s)
	}
	return Normalize(stems, h.Limit), nil
}

// stem returns the noun part of token, or ok=false when token is a
// predicate. Stripping never leaves fewer than two runes.
func stem(token string) (string, bool) {
	if s, ok := cutLongest(token, copulaEndings); ok {
		return s, true
	}
	for _, e := range predicateEndings {
		if strings.HasSuffix(token, e) {
			return "", false
		}
	}
	if s, ok := cutLongest(token, particles); ok {
		return s, true
	}
	return token, true
}

func cutLongest(token string, suffixes []string) (string, bool) {
	for _, suf := range suffixes {
		if base, ok := strings.CutSuffix(token, suf); ok && utf8.RuneCountInString(base) >= 2 {
			return base, true
		}
	}
	return token, false
}
