package model

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks removes diacritic marks after NFD decomposition, so that
// "Jervois Café" and "Jervois Cafe" normalize identically.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeKey canonicalizes a rule match value or resolved location field
// for exact comparison: diacritic fold, case fold, punctuation strip,
// whitespace collapse. Both sides of every rule comparison go through this
// function; matching is never fuzzy.
func NormalizeKey(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	lastSpace := true
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) || r == '-':
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
		// all other punctuation is dropped
	}
	return strings.TrimRight(b.String(), " ")
}
