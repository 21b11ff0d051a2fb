package title

import "strings"

// foldTable maps accented Latin runes to their base letter. Covers the
// Romanian diacritics appearing in real calendar titles plus the usual
// Western-European set.
var foldTable = map[rune]rune{
	'ă': 'a', 'â': 'a', 'à': 'a', 'á': 'a', 'ä': 'a', 'ã': 'a', 'å': 'a',
	'è': 'e', 'é': 'e', 'ê': 'e', 'ë': 'e',
	'ì': 'i', 'í': 'i', 'î': 'i', 'ï': 'i',
	'ò': 'o', 'ó': 'o', 'ô': 'o', 'ö': 'o', 'õ': 'o',
	'ù': 'u', 'ú': 'u', 'û': 'u', 'ü': 'u',
	'ș': 's', 'ş': 's',
	'ț': 't', 'ţ': 't',
	'ç': 'c', 'ñ': 'n', 'ý': 'y',
}

// Fold lower-cases s and strips diacritics, so that "Sală repetiție" and
// "sala repetitie" compare equal. The mapping is rune-for-rune, preserving
// rune count.
func Fold(s string) string {
	lower := strings.ToLower(s)
	return strings.Map(func(r rune) rune {
		if base, ok := foldTable[r]; ok {
			return base
		}
		return r
	}, lower)
}

// FoldedContains reports whether haystack contains needle after folding both.
func FoldedContains(haystack, needle string) bool {
	return strings.Contains(Fold(haystack), Fold(needle))
}

// FoldedHasPrefix reports whether haystack starts with needle after folding.
func FoldedHasPrefix(haystack, needle string) bool {
	return strings.HasPrefix(Fold(haystack), Fold(needle))
}
