package dataset

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/oarkflow/segtag/nlp/bio"
	"github.com/oarkflow/segtag/nlp/morphology"
)

var ErrInvalidRecord = errors.New("invalid dataset record")

// Validate checks a record the way training code consumes it: one valid tag
// per character, morphemes that tile the word, and labels that agree with the
// morpheme spans.
func Validate(rec Record) error {
	if err := bio.CheckLength(rec.Word, rec.Labels); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	for i, l := range rec.Labels {
		if !bio.IsTag(l) {
			return fmt.Errorf("%w: label %d is %q", ErrInvalidRecord, i, l)
		}
	}
	if err := morphology.VerifySpans(rec.Word, rec.Morphemes); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	decoded, err := bio.Decode(rec.Labels)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	// An empty root leaves no label behind, so it never decodes.
	want := slices.DeleteFunc(bio.SpansOf(rec.Morphemes), func(s bio.Span) bool { return s.Start == s.End })
	if !slices.Equal(decoded, want) {
		return fmt.Errorf("%w: labels disagree with morphemes for %q", ErrInvalidRecord, rec.Word)
	}
	if rec.Spans != nil && !slices.Equal(rec.Spans, bio.SpansOf(rec.Morphemes)) {
		return fmt.Errorf("%w: spans disagree with morphemes for %q", ErrInvalidRecord, rec.Word)
	}
	if rec.Complexity == 0 && rec.Confidence == 0 {
		// Minimal records carry only word, labels and morphemes.
		return nil
	}
	affixes := 0
	for _, m := range rec.Morphemes {
		if m.Type != morphology.Root {
			affixes++
		}
	}
	if rec.Complexity != affixes {
		return fmt.Errorf("%w: complexity %d, morphemes carry %d affixes", ErrInvalidRecord, rec.Complexity, affixes)
	}
	if math.Abs(rec.Confidence-morphology.Confidence(rec.Complexity)) > 1e-9 {
		return fmt.Errorf("%w: confidence %v does not match complexity %d", ErrInvalidRecord, rec.Confidence, rec.Complexity)
	}
	return nil
}
