package curate

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Ratio returns a symmetric string similarity in [0,1], where 1.0 means
// identical. It is the edit distance normalized by the longer string's rune
// count.
func Ratio(a, b string) float64 {
	if a == b {
		return 1.0
	}

	longest := utf8.RuneCountInString(a)
	if lb := utf8.RuneCountInString(b); lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1.0
	}

	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(longest)
}
