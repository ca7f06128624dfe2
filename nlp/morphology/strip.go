package morphology

// MinRootLength is the default number of characters a suffix strip must leave
// between the prefix cursor and the suffix.
const MinRootLength = 2

// stripped is the raw output of the affix stripper. Cursors are rune offsets
// into the normalized word; suffixes are in surface (left to right) order.
type stripped struct {
	prefixes  []string
	suffixes  []string
	rootStart int
	rootEnd   int
}

// lastSuffix returns the suffix adjacent to the root, i.e. the last one stripped.
func (s stripped) lastSuffix() string {
	if len(s.suffixes) == 0 {
		return ""
	}
	return s.suffixes[0]
}

// strip removes prefixes greedily from the left, then suffixes from the right.
// Every accepted affix moves a cursor by at least one rune, so each loop runs
// at most len(word) times.
func strip(word []rune, table *AffixTable, minRoot int) stripped {
	out := stripped{rootEnd: len(word)}

	for {
		matched := false
		for _, p := range table.prefixes {
			if hasPrefixAt(word, out.rootStart, p) {
				out.prefixes = append(out.prefixes, string(p))
				out.rootStart += len(p)
				matched = true
				break
			}
		}
		if !matched {
			break
		}
	}

	var rightToLeft []string
	for {
		matched := false
		for _, s := range table.suffixes {
			if out.rootEnd-len(s)-out.rootStart < minRoot {
				continue
			}
			if hasSuffixAt(word, out.rootEnd, s) {
				rightToLeft = append(rightToLeft, string(s))
				out.rootEnd -= len(s)
				matched = true
				break
			}
		}
		if !matched {
			break
		}
	}

	out.suffixes = make([]string, len(rightToLeft))
	for i, s := range rightToLeft {
		out.suffixes[len(rightToLeft)-1-i] = s
	}
	if out.rootEnd < out.rootStart {
		out.rootEnd = out.rootStart
	}
	return out
}

func hasPrefixAt(word []rune, at int, affix []rune) bool {
	if at+len(affix) > len(word) {
		return false
	}
	for i, r := range affix {
		if word[at+i] != r {
			return false
		}
	}
	return true
}

func hasSuffixAt(word []rune, end int, affix []rune) bool {
	start := end - len(affix)
	if start < 0 {
		return false
	}
	for i, r := range affix {
		if word[start+i] != r {
			return false
		}
	}
	return true
}
