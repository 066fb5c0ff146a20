// Package nlp provides text normalization, typo correction, and synonym
// expansion for Portuguese charging-station commands.
package nlp

import "strings"

// diacriticFold maps every accented rune used in Portuguese to its unaccented
// base form. The table is total for the language: any rune not listed passes
// through unchanged.
var diacriticFold = map[rune]rune{
	'á': 'a', 'â': 'a', 'ã': 'a', 'à': 'a', 'ä': 'a',
	'é': 'e', 'ê': 'e', 'è': 'e', 'ë': 'e',
	'í': 'i', 'î': 'i', 'ì': 'i', 'ï': 'i',
	'ó': 'o', 'ô': 'o', 'õ': 'o', 'ò': 'o', 'ö': 'o',
	'ú': 'u', 'û': 'u', 'ù': 'u', 'ü': 'u',
	'ç': 'c', 'ñ': 'n',
}

// Normalize lowercases the input, folds diacritics to their base form,
// trims surrounding whitespace and collapses interior runs of whitespace.
// Idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if folded, ok := diacriticFold[r]; ok {
			b.WriteRune(folded)
		} else {
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokens returns the whitespace-separated tokens of normalized text.
func Tokens(text string) []string {
	return strings.Fields(Normalize(text))
}
