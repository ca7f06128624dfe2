// Package morphology segments a word into prefix, root and suffix morphemes
// with character spans into the normalized word.
//
// Segmentation is a fixed heuristic: affixes come from an AffixTable matched
// longest-first, the remaining root may be rewritten by a StemRepairer, and
// spans are rebuilt from the final strings so that every span's text is the
// slice of Result.Word it points at. An Analyzer is immutable after New and
// safe for concurrent use.
package morphology

import (
	"io"
	"log/slog"
	"strings"

	"github.com/oarkflow/segtag/nlp/normalizer"
)

// MorphemeType classifies a span.
type MorphemeType string

const (
	Prefix MorphemeType = "prefix"
	Root   MorphemeType = "root"
	Suffix MorphemeType = "suffix"
)

// Morpheme is a typed span of the normalized word. Start and End are rune
// offsets; End is exclusive.
type Morpheme struct {
	Type  MorphemeType `json:"type" msgpack:"type"`
	Text  string       `json:"text" msgpack:"text"`
	Start int          `json:"start" msgpack:"start"`
	End   int          `json:"end" msgpack:"end"`
}

// Result is the segmentation of one word. It is built fresh per call and
// shares no state with the Analyzer.
type Result struct {
	Original   string        `json:"original"`
	Word       string        `json:"word"`
	Prefixes   []string      `json:"prefixes"`
	Root       string        `json:"root"`
	Suffixes   []string      `json:"suffixes"`
	Morphemes  []Morpheme    `json:"morphemes"`
	Complexity int           `json:"complexity"`
	Confidence float64       `json:"confidence"`
	Repair     RepairOutcome `json:"repair"`
}

// Observer receives a callback per analysis. Implementations must be safe for
// concurrent use.
type Observer interface {
	ObserveAnalysis(r Result)
}

// Analyzer holds the immutable configuration of the segmentation engine.
type Analyzer struct {
	table     *AffixTable
	repairer  *StemRepairer
	minRoot   int
	normalize func(string) string
	logger    *slog.Logger
	observer  Observer
}

type Option func(*Analyzer)

func WithTable(t *AffixTable) Option {
	return func(a *Analyzer) {
		if t != nil {
			a.table = t
		}
	}
}

func WithRepairer(r *StemRepairer) Option {
	return func(a *Analyzer) { a.repairer = r }
}

// WithMinRootLength overrides MinRootLength. Values below zero are ignored.
func WithMinRootLength(n int) Option {
	return func(a *Analyzer) {
		if n >= 0 {
			a.minRoot = n
		}
	}
}

func WithNormalizer(fn func(string) string) Option {
	return func(a *Analyzer) {
		if fn != nil {
			a.normalize = fn
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(a *Analyzer) { a.observer = o }
}

// New builds an Analyzer. Without options it uses DefaultAffixTable,
// DefaultStemRepairer and MinRootLength.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		table:     DefaultAffixTable(),
		repairer:  DefaultStemRepairer(),
		minRoot:   MinRootLength,
		normalize: normalizer.Normalize,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Table returns the affix table the analyzer was built with.
func (a *Analyzer) Table() *AffixTable { return a.table }

// MinRoot returns the minimum root length enforced by suffix stripping.
func (a *Analyzer) MinRoot() int { return a.minRoot }

// Analyze segments word. It never fails: empty input yields a single empty
// root span.
func (a *Analyzer) Analyze(word string) Result {
	norm := a.normalize(word)
	runes := []rune(norm)

	s := strip(runes, a.table, a.minRoot)
	root := string(runes[s.rootStart:s.rootEnd])
	fixed := a.repairer.RepairWithin(root, s.lastSuffix(), a.minRoot)
	rep := applyRepair(root, fixed, s.rootStart, s.rootEnd)

	switch rep.outcome {
	case RepairClamped:
		a.logger.Warn("stem repair clamped root to empty",
			slog.String("word", norm),
			slog.String("root", root),
			slog.String("repaired", fixed))
	case RepairRejected:
		a.logger.Warn("stem repair rewrote root start or grew root; kept original",
			slog.String("word", norm),
			slog.String("root", root),
			slog.String("repaired", fixed))
	}

	res := build(word, s.prefixes, rep.root, s.suffixes)
	res.Repair = rep.outcome
	if a.observer != nil {
		a.observer.ObserveAnalysis(res)
	}
	return res
}

// build assembles spans and scores. Spans are derived from the final string
// lengths with a single cursor, never from stripper offsets.
func build(original string, prefixes []string, root string, suffixes []string) Result {
	morphemes := make([]Morpheme, 0, len(prefixes)+1+len(suffixes))
	var word strings.Builder
	cursor := 0
	emit := func(t MorphemeType, text string) {
		n := runeLen(text)
		morphemes = append(morphemes, Morpheme{Type: t, Text: text, Start: cursor, End: cursor + n})
		word.WriteString(text)
		cursor += n
	}
	for _, p := range prefixes {
		emit(Prefix, p)
	}
	emit(Root, root)
	for _, s := range suffixes {
		emit(Suffix, s)
	}

	complexity := len(prefixes) + len(suffixes)
	return Result{
		Original:   original,
		Word:       word.String(),
		Prefixes:   append([]string{}, prefixes...),
		Root:       root,
		Suffixes:   append([]string{}, suffixes...),
		Morphemes:  morphemes,
		Complexity: complexity,
		Confidence: Confidence(complexity),
	}
}

// Confidence maps an affix count to 1/(1+complexity).
func Confidence(complexity int) float64 {
	if complexity < 0 {
		complexity = 0
	}
	return 1 / (1 + float64(complexity))
}
