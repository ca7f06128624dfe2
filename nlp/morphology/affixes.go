package morphology

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Affix lists, in declaration order. Equal-length entries keep this order
// after sorting, so "in" is tried before "im" and "er" before "ed".
var defaultPrefixes = []string{
	"counter", "inter", "trans", "super", "under", "anti", "over", "post", "semi",
	"dis", "mis", "non", "pre", "sub", "out",
	"un", "re", "in", "im", "il", "ir", "de", "en", "em",
}

var defaultSuffixes = []string{
	"ization", "ation", "ition", "ment", "ness", "ship", "able", "ible", "less",
	"ful", "ous", "ive", "ism", "ist", "ity", "ing", "est", "ize", "ise", "ify",
	"ed", "er", "ly", "al", "es",
	"s",
}

// AffixTable holds prefix and suffix lists sorted longest-first.
// It is never mutated after NewAffixTable returns.
type AffixTable struct {
	prefixes [][]rune
	suffixes [][]rune
}

// NewAffixTable lowercases, de-duplicates and stable-sorts both lists by
// descending length. Ties keep declaration order.
func NewAffixTable(prefixes, suffixes []string) *AffixTable {
	return &AffixTable{
		prefixes: longestFirst(prefixes),
		suffixes: longestFirst(suffixes),
	}
}

// DefaultAffixTable returns the built-in English heuristic table.
func DefaultAffixTable() *AffixTable {
	return NewAffixTable(defaultPrefixes, defaultSuffixes)
}

// Prefixes returns a copy of the sorted prefix list.
func (t *AffixTable) Prefixes() []string { return toStrings(t.prefixes) }

// Suffixes returns a copy of the sorted suffix list.
func (t *AffixTable) Suffixes() []string { return toStrings(t.suffixes) }

func longestFirst(list []string) [][]rune {
	seen := make(map[string]struct{}, len(list))
	out := make([][]rune, 0, len(list))
	for _, a := range list {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, []rune(a))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i]) > len(out[j])
	})
	return out
}

func toStrings(list [][]rune) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = string(a)
	}
	return out
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
