package config

import (
	"github.com/oarkflow/segtag/nlp/morphology"
)

const defaultMinRoot = morphology.MinRootLength

// Morphology selects the affix table and root guard. Inline lists win over
// AffixFile; a side left empty keeps the built-in list for that side.
type Morphology struct {
	Prefixes      []string `yaml:"prefixes" bcl:"prefixes" json:"prefixes"`
	Suffixes      []string `yaml:"suffixes" bcl:"suffixes" json:"suffixes"`
	AffixFile     string   `yaml:"affix_file" bcl:"affix_file" json:"affix_file"`
	MinRootLength int      `yaml:"min_root_length" bcl:"min_root_length" json:"min_root_length"`
}

// AffixFile is the JSON shape of Morphology.AffixFile.
type AffixFile struct {
	Prefixes []string `json:"prefixes"`
	Suffixes []string `json:"suffixes"`
}

// Table builds the affix table described by m.
func (m Morphology) Table() (*morphology.AffixTable, error) {
	def := morphology.DefaultAffixTable()
	prefixes, suffixes := def.Prefixes(), def.Suffixes()
	if m.AffixFile != "" {
		f, err := LoadJSON[AffixFile](m.AffixFile)
		if err != nil {
			return nil, err
		}
		if len(f.Prefixes) > 0 {
			prefixes = f.Prefixes
		}
		if len(f.Suffixes) > 0 {
			suffixes = f.Suffixes
		}
	}
	if len(m.Prefixes) > 0 {
		prefixes = m.Prefixes
	}
	if len(m.Suffixes) > 0 {
		suffixes = m.Suffixes
	}
	return morphology.NewAffixTable(prefixes, suffixes), nil
}

// Options turns m into analyzer options.
func (m Morphology) Options() ([]morphology.Option, error) {
	table, err := m.Table()
	if err != nil {
		return nil, err
	}
	opts := []morphology.Option{morphology.WithTable(table)}
	if m.MinRootLength > 0 {
		opts = append(opts, morphology.WithMinRootLength(m.MinRootLength))
	}
	return opts, nil
}
