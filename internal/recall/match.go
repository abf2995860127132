package recall

import "strings"

// KeywordMatchThreshold is the default number of keywords a recall must
// contain to pass. It is an absolute count, not a ratio.
const KeywordMatchThreshold = 3

// MatchCount counts the distinct keywords (case-insensitive) that appear
// as substrings of text.
func MatchCount(keywords []string, text string) int {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return 0
	}

	seen := make(map[string]bool, len(keywords))
	n := 0
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		if strings.Contains(t, k) {
			n++
		}
	}
	return n
}

// Passes applies the threshold rule. Empty text or an empty keyword set
// never passes.
func Passes(keywords []string, text string, threshold int) (matchCount int, ok bool) {
	matchCount = MatchCount(keywords, text)
	if len(keywords) == 0 || strings.TrimSpace(text) == "" {
		return matchCount, false
	}
	return matchCount, matchCount >= threshold
}
