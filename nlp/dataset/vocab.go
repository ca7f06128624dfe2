package dataset

import (
	"fmt"
	"maps"
	"slices"

	"github.com/oarkflow/segtag/nlp/bio"
)

const (
	PadID = 0
	UnkID = 1
)

// CharVocab maps characters to ids for character-level taggers. Ids 0 and 1
// are reserved for padding and unknown characters; the rest follow sorted
// character order.
type CharVocab struct {
	ids map[rune]int
}

// BuildCharVocab collects every character of words.
func BuildCharVocab(words []string) *CharVocab {
	seen := make(map[rune]struct{})
	for _, w := range words {
		for _, r := range w {
			seen[r] = struct{}{}
		}
	}
	chars := make([]rune, 0, len(seen))
	for r := range seen {
		chars = append(chars, r)
	}
	slices.Sort(chars)
	v := &CharVocab{ids: make(map[rune]int, len(chars))}
	for i, r := range chars {
		v.ids[r] = i + 2
	}
	return v
}

// Size counts the reserved ids too.
func (v *CharVocab) Size() int { return len(v.ids) + 2 }

// ID returns UnkID for characters outside the vocabulary.
func (v *CharVocab) ID(r rune) int {
	if id, ok := v.ids[r]; ok {
		return id
	}
	return UnkID
}

// Encode returns one id per character of word.
func (v *CharVocab) Encode(word string) []int {
	out := make([]int, 0, len(word))
	for _, r := range word {
		out = append(out, v.ID(r))
	}
	return out
}

// Table returns the vocabulary as a string-keyed map, reserved ids included.
func (v *CharVocab) Table() map[string]int {
	m := make(map[string]int, v.Size())
	m["<PAD>"] = PadID
	m["<UNK>"] = UnkID
	for r, id := range v.ids {
		m[string(r)] = id
	}
	return m
}

// LabelIDs maps labels to their index in bio.Tags.
func LabelIDs(labels []string) ([]int, error) {
	out := make([]int, len(labels))
	for i, l := range labels {
		id, ok := bio.TagIndex(l)
		if !ok {
			return nil, fmt.Errorf("%w: label %d is %q", ErrInvalidRecord, i, l)
		}
		out[i] = id
	}
	return out, nil
}

// AffixVocab indexes every prefix and suffix seen in records, in sorted order
// starting at 0. A prefix and suffix with the same spelling share an id.
type AffixVocab struct {
	ids map[string]int
}

func BuildAffixVocab(records []Record) *AffixVocab {
	seen := make(map[string]struct{})
	for _, rec := range records {
		for _, a := range rec.Prefixes {
			seen[a] = struct{}{}
		}
		for _, a := range rec.Suffixes {
			seen[a] = struct{}{}
		}
	}
	affixes := make([]string, 0, len(seen))
	for a := range seen {
		affixes = append(affixes, a)
	}
	slices.Sort(affixes)
	v := &AffixVocab{ids: make(map[string]int, len(affixes))}
	for i, a := range affixes {
		v.ids[a] = i
	}
	return v
}

func (v *AffixVocab) Size() int { return len(v.ids) }

func (v *AffixVocab) Table() map[string]int {
	return maps.Clone(v.ids)
}

// Counts returns how often each vocabulary affix occurs in rec. Affixes
// outside the vocabulary are ignored.
func (v *AffixVocab) Counts(rec Record) []int {
	out := make([]int, len(v.ids))
	for _, list := range [][]string{rec.Prefixes, rec.Suffixes} {
		for _, a := range list {
			if id, ok := v.ids[a]; ok {
				out[id]++
			}
		}
	}
	return out
}
