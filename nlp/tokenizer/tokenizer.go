package tokenizer

import "regexp"

// reWord matches letter runs, keeping internal apostrophes ("don't").
var reWord = regexp.MustCompile(`\pL+(?:['’]\pL+)*`)

// Words splits text into word tokens. Digits and punctuation are dropped.
func Words(text string) []string {
	return reWord.FindAllString(text, -1)
}
