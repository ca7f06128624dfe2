package morphology

import (
	"errors"
	"fmt"
)

// ErrInvalidSpans is wrapped by every VerifySpans failure.
var ErrInvalidSpans = errors.New("invalid morpheme spans")

// VerifySpans checks that morphemes partition word in Prefix*, Root, Suffix*
// order and that each span's text is the slice of word it points at.
func VerifySpans(word string, morphemes []Morpheme) error {
	runes := []rune(word)
	if len(morphemes) == 0 {
		return fmt.Errorf("%w: no morphemes", ErrInvalidSpans)
	}
	cursor := 0
	roots := 0
	stage := Prefix
	for i, m := range morphemes {
		if m.Start != cursor {
			return fmt.Errorf("%w: morpheme %d starts at %d, want %d", ErrInvalidSpans, i, m.Start, cursor)
		}
		if m.End < m.Start || m.End > len(runes) {
			return fmt.Errorf("%w: morpheme %d has bounds [%d,%d) in word of length %d", ErrInvalidSpans, i, m.Start, m.End, len(runes))
		}
		if got := string(runes[m.Start:m.End]); got != m.Text {
			return fmt.Errorf("%w: morpheme %d text %q, word has %q", ErrInvalidSpans, i, m.Text, got)
		}
		switch m.Type {
		case Prefix:
			if stage != Prefix {
				return fmt.Errorf("%w: prefix at %d after %s", ErrInvalidSpans, i, stage)
			}
		case Root:
			if stage != Prefix {
				return fmt.Errorf("%w: root at %d after %s", ErrInvalidSpans, i, stage)
			}
			stage = Root
			roots++
		case Suffix:
			if stage == Prefix {
				return fmt.Errorf("%w: suffix at %d before root", ErrInvalidSpans, i)
			}
			stage = Suffix
		default:
			return fmt.Errorf("%w: morpheme %d has unknown type %q", ErrInvalidSpans, i, m.Type)
		}
		cursor = m.End
	}
	if roots != 1 {
		return fmt.Errorf("%w: %d root spans", ErrInvalidSpans, roots)
	}
	if cursor != len(runes) {
		return fmt.Errorf("%w: spans end at %d, word length %d", ErrInvalidSpans, cursor, len(runes))
	}
	return nil
}
