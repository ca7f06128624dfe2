// Package bio converts typed spans into per-character BIO labels and back.
//
// The tag vocabulary is fixed and matched by exact string downstream, so only
// the seven tags in Tags are ever produced.
package bio

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/oarkflow/segtag/nlp/morphology"
)

const (
	Outside = "O"

	BPrefix = "B-PREFIX"
	IPrefix = "I-PREFIX"
	BRoot   = "B-ROOT"
	IRoot   = "I-ROOT"
	BSuffix = "B-SUFFIX"
	ISuffix = "I-SUFFIX"
)

// Tags is the label vocabulary in id order.
var Tags = []string{Outside, BPrefix, IPrefix, BRoot, IRoot, BSuffix, ISuffix}

var tagIndex = func() map[string]int {
	m := make(map[string]int, len(Tags))
	for i, t := range Tags {
		m[t] = i
	}
	return m
}()

var typeTag = map[morphology.MorphemeType]string{
	morphology.Prefix: "PREFIX",
	morphology.Root:   "ROOT",
	morphology.Suffix: "SUFFIX",
}

var (
	ErrLabelLengthMismatch = errors.New("label length mismatch")
	ErrUnknownSpanType     = errors.New("unknown span type")
	ErrMalformedLabels     = errors.New("malformed BIO labels")
	ErrSpanOutOfBounds     = errors.New("span out of bounds")
)

// LabelLengthMismatchError reports a label sequence whose length differs from
// the word it labels.
type LabelLengthMismatchError struct {
	Word   string
	Want   int
	Labels int
}

func (e *LabelLengthMismatchError) Error() string {
	return fmt.Sprintf("label length mismatch for %q: %d labels, word has %d characters", e.Word, e.Labels, e.Want)
}

func (e *LabelLengthMismatchError) Is(target error) bool {
	return target == ErrLabelLengthMismatch
}

// Span is a typed half-open range of character offsets.
type Span struct {
	Type  morphology.MorphemeType `json:"type" msgpack:"type"`
	Start int                     `json:"start" msgpack:"start"`
	End   int                     `json:"end" msgpack:"end"`
}

// SpansOf drops the text of each morpheme.
func SpansOf(morphemes []morphology.Morpheme) []Span {
	spans := make([]Span, len(morphemes))
	for i, m := range morphemes {
		spans[i] = Span{Type: m.Type, Start: m.Start, End: m.End}
	}
	return spans
}

// TagIndex returns the id of tag in Tags.
func TagIndex(tag string) (int, bool) {
	i, ok := tagIndex[tag]
	return i, ok
}

// IsTag reports whether tag belongs to the vocabulary.
func IsTag(tag string) bool {
	_, ok := tagIndex[tag]
	return ok
}

// Encode labels every character of word. Positions outside all spans are "O";
// spans are applied in order and clipped to the word. The result always has
// one label per character or an error wrapping ErrLabelLengthMismatch.
func Encode(word string, spans []Span) ([]string, error) {
	n := utf8.RuneCountInString(word)
	labels := make([]string, n)
	for i := range labels {
		labels[i] = Outside
	}
	for _, s := range spans {
		tag, ok := typeTag[s.Type]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSpanType, s.Type)
		}
		if s.Start >= 0 && s.Start < n && s.Start < s.End {
			labels[s.Start] = "B-" + tag
		}
		for i := max(s.Start+1, 0); i < s.End && i < n; i++ {
			labels[i] = "I-" + tag
		}
	}
	return labels, CheckLength(word, labels)
}

// CheckSpans reports the first span that Encode would silently clip or skip:
// an unknown type, or bounds outside [0, len(word)] with Start <= End.
func CheckSpans(word string, spans []Span) error {
	n := utf8.RuneCountInString(word)
	for i, s := range spans {
		if _, ok := typeTag[s.Type]; !ok {
			return fmt.Errorf("%w: span %d has type %q", ErrUnknownSpanType, i, s.Type)
		}
		if s.Start < 0 || s.End > n || s.Start > s.End {
			return fmt.Errorf("%w: span %d is [%d,%d) in word of length %d", ErrSpanOutOfBounds, i, s.Start, s.End, n)
		}
	}
	return nil
}

// CheckLength fails when labels does not have one entry per character of word.
func CheckLength(word string, labels []string) error {
	if n := utf8.RuneCountInString(word); len(labels) != n {
		return &LabelLengthMismatchError{Word: word, Want: n, Labels: len(labels)}
	}
	return nil
}

// Decode rebuilds spans from a label sequence. Runs of "O" are skipped; an
// I- tag must continue a span of the same type.
func Decode(labels []string) ([]Span, error) {
	var spans []Span
	open := -1
	for i, l := range labels {
		if l == Outside {
			open = -1
			continue
		}
		if !IsTag(l) {
			return nil, fmt.Errorf("%w: label %d is %q", ErrMalformedLabels, i, l)
		}
		kind, name, _ := strings.Cut(l, "-")
		t := morphology.MorphemeType(strings.ToLower(name))
		switch kind {
		case "B":
			spans = append(spans, Span{Type: t, Start: i, End: i + 1})
			open = len(spans) - 1
		case "I":
			if open < 0 || spans[open].Type != t {
				return nil, fmt.Errorf("%w: %s at %d does not continue a %s span", ErrMalformedLabels, l, i, t)
			}
			spans[open].End = i + 1
		}
	}
	return spans, nil
}
