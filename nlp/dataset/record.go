// Package dataset turns segmentations into supervised training records and
// checks records read back from disk.
package dataset

import (
	"github.com/oarkflow/segtag/nlp/bio"
	"github.com/oarkflow/segtag/nlp/morphology"
	"github.com/oarkflow/segtag/nlp/normalizer"
)

// Record is one line of a segmentation dataset. Word, Labels and Morphemes are
// the fields every consumer relies on; the rest feed the affix-count models.
// Original is the normalized input word, which differs from Word when stem
// repair dropped characters ("ageing" is labelled as "aging").
type Record struct {
	Original   string                `json:"original,omitempty" msgpack:"original,omitempty"`
	Word       string                `json:"word" msgpack:"word"`
	Labels     []string              `json:"labels" msgpack:"labels"`
	Morphemes  []morphology.Morpheme `json:"morphemes" msgpack:"morphemes"`
	Spans      []bio.Span            `json:"spans,omitempty" msgpack:"spans,omitempty"`
	Prefixes   []string              `json:"prefixes,omitempty" msgpack:"prefixes,omitempty"`
	Root       string                `json:"root,omitempty" msgpack:"root,omitempty"`
	Suffixes   []string              `json:"suffixes,omitempty" msgpack:"suffixes,omitempty"`
	Complexity int                   `json:"complexity" msgpack:"complexity"`
	Confidence float64               `json:"confidence" msgpack:"confidence"`
}

// FromResult labels a segmentation. The only possible failure is a label
// length mismatch, which cannot happen for spans produced by Analyze.
func FromResult(r morphology.Result) (Record, error) {
	spans := bio.SpansOf(r.Morphemes)
	labels, err := bio.Encode(r.Word, spans)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Original:   normalizer.Normalize(r.Original),
		Word:       r.Word,
		Labels:     labels,
		Morphemes:  r.Morphemes,
		Spans:      spans,
		Prefixes:   r.Prefixes,
		Root:       r.Root,
		Suffixes:   r.Suffixes,
		Complexity: r.Complexity,
		Confidence: r.Confidence,
	}, nil
}

// Key identifies the record by the word it was produced from, falling back to
// Word for records that carry no Original.
func (r Record) Key() string {
	if r.Original != "" {
		return r.Original
	}
	return r.Word
}
