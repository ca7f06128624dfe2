package morphology

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// RepairRule rewrites the tail of a root given the suffix adjacent to it.
// It must be a pure function of its arguments and return root unchanged
// when it does not apply.
type RepairRule func(root, lastSuffix string) string

// RepairOutcome records what stem repair did to a root.
type RepairOutcome int

const (
	RepairNone RepairOutcome = iota
	RepairApplied
	RepairClamped
	RepairRejected
)

func (o RepairOutcome) String() string {
	switch o {
	case RepairApplied:
		return "applied"
	case RepairClamped:
		return "clamped"
	case RepairRejected:
		return "rejected"
	default:
		return "none"
	}
}

func (o RepairOutcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *RepairOutcome) UnmarshalText(b []byte) error {
	switch string(b) {
	case "none", "":
		*o = RepairNone
	case "applied":
		*o = RepairApplied
	case "clamped":
		*o = RepairClamped
	case "rejected":
		*o = RepairRejected
	default:
		return fmt.Errorf("unknown repair outcome %q", b)
	}
	return nil
}

// StemRepairer applies an ordered rule list; the first rule that changes the
// root wins.
type StemRepairer struct {
	rules []RepairRule
}

func NewStemRepairer(rules ...RepairRule) *StemRepairer {
	return &StemRepairer{rules: append([]RepairRule(nil), rules...)}
}

// DefaultStemRepairer holds the built-in rule set.
func DefaultStemRepairer() *StemRepairer {
	return NewStemRepairer(DropSilentE)
}

// Repair returns the rewritten root, or root itself when no rule applies.
// Rewrites shorter than MinRootLength are skipped.
func (r *StemRepairer) Repair(root, lastSuffix string) string {
	return r.RepairWithin(root, lastSuffix, MinRootLength)
}

// RepairWithin is Repair with an explicit minimum root length. A rule whose
// rewrite would shorten the root below minRoot counts as not applying.
func (r *StemRepairer) RepairWithin(root, lastSuffix string, minRoot int) string {
	if r == nil {
		return root
	}
	n := runeLen(root)
	for _, rule := range r.rules {
		fixed := rule(root, lastSuffix)
		if fixed == root {
			continue
		}
		if m := runeLen(fixed); m < n && m < minRoot {
			continue
		}
		return fixed
	}
	return root
}

// DropSilentE drops a trailing "e" after a consonant when the root is followed
// by "ing" ("ageing" -> "ag" + "ing").
func DropSilentE(root, lastSuffix string) string {
	if lastSuffix != "ing" || !strings.HasSuffix(root, "e") {
		return root
	}
	fixed := root[:len(root)-1]
	if runeLen(fixed) < MinRootLength {
		return root
	}
	last, _ := utf8.DecodeLastRuneInString(fixed)
	if isVowel(last) {
		return root
	}
	return fixed
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}

// repaired is the root after repair together with its corrected right boundary.
type repaired struct {
	root    string
	rootEnd int
	outcome RepairOutcome
}

// applyRepair reconciles a rewritten root with the stripper's boundaries.
// The boundary moves by the rune-length delta so later span math sees the
// repaired length, never the original one.
func applyRepair(root, fixed string, rootStart, rootEnd int) repaired {
	if fixed == root {
		return repaired{root: root, rootEnd: rootEnd, outcome: RepairNone}
	}
	if !isTailEdit(root, fixed) {
		return repaired{root: root, rootEnd: rootEnd, outcome: RepairRejected}
	}
	end, clamped := adjustRootEnd(rootStart, rootEnd, runeLen(root)-runeLen(fixed))
	if clamped {
		return repaired{root: "", rootEnd: end, outcome: RepairClamped}
	}
	return repaired{root: fixed, rootEnd: end, outcome: RepairApplied}
}

// adjustRootEnd shrinks rootEnd by delta, flooring at rootStart. The floor is
// lossy and reported through the second return value.
func adjustRootEnd(rootStart, rootEnd, delta int) (int, bool) {
	end := rootEnd - delta
	if end < rootStart {
		return rootStart, true
	}
	return end, false
}

// isTailEdit reports whether fixed only shortens or rewrites the tail of root:
// it may not be longer, and it keeps the first character.
func isTailEdit(root, fixed string) bool {
	if runeLen(fixed) > runeLen(root) {
		return false
	}
	if fixed == "" || root == "" {
		return true
	}
	a, _ := utf8.DecodeRuneInString(root)
	b, _ := utf8.DecodeRuneInString(fixed)
	return a == b
}
