// Package stopwords holds function-word lists used to keep closed-class words
// out of segmentation datasets.
package stopwords

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/oarkflow/segtag/nlp/normalizer"
)

var english = []string{
	"a", "about", "above", "after", "again", "against", "all", "am", "an", "and",
	"any", "are", "as", "at", "be", "because", "been", "before", "being", "below",
	"between", "both", "but", "by", "can", "did", "do", "does", "doing", "down",
	"during", "each", "few", "for", "from", "further", "had", "has", "have",
	"having", "he", "her", "here", "hers", "herself", "him", "himself", "his",
	"how", "i", "if", "in", "into", "is", "it", "its", "itself", "just", "me",
	"more", "most", "my", "myself", "no", "nor", "not", "now", "of", "off", "on",
	"once", "only", "or", "other", "our", "ours", "ourselves", "out", "over",
	"own", "same", "she", "should", "so", "some", "such", "than", "that", "the",
	"their", "theirs", "them", "themselves", "then", "there", "these", "they",
	"this", "those", "through", "to", "too", "under", "until", "up", "very",
	"was", "we", "were", "what", "when", "where", "which", "while", "who", "whom",
	"why", "will", "with", "you", "your", "yours", "yourself", "yourselves",
}

// Set is a normalized stopword list.
type Set map[string]struct{}

func New(words ...string) Set {
	s := make(Set, len(words))
	for _, w := range words {
		if w = normalizer.Normalize(w); w != "" {
			s[w] = struct{}{}
		}
	}
	return s
}

// English returns the built-in English list.
func English() Set { return New(english...) }

// Load reads one word per line; blank lines and lines starting with # are
// skipped.
func Load(r io.Reader) (Set, error) {
	s := make(Set)
	scan := bufio.NewScanner(r)
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		s[normalizer.Normalize(line)] = struct{}{}
	}
	return s, scan.Err()
}

// LoadFile reads a list from path, or returns English for "english".
func LoadFile(path string) (Set, error) {
	if path == "english" {
		return English(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Contains normalizes word before the lookup.
func (s Set) Contains(word string) bool {
	_, ok := s[normalizer.Normalize(word)]
	return ok
}

// Filter removes any token present in the set.
func (s Set) Filter(tokens []string) []string {
	var out []string
	for _, t := range tokens {
		if !s.Contains(t) {
			out = append(out, t)
		}
	}
	return out
}
