package normalizer

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalize trims surrounding whitespace and lowercases word. No other
// Unicode normalization is applied.
func Normalize(word string) string {
	word = strings.TrimSpace(word)
	if word == "" {
		return ""
	}
	// A Caser keeps state between calls, so each call gets its own.
	return cases.Lower(language.Und).String(word)
}

// NormalizeTokens normalizes every token and drops the ones that end up empty.
func NormalizeTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t = Normalize(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
