package overlay

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FormatConfidence converts a 0-100 recognition score into the 0-1 string
// shown on a box, rounded half-up to two decimals (97.5 -> "0.98").
func FormatConfidence(score float64) string {
	return fmt.Sprintf("%.2f", math.Round(score)/100)
}

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// asciiLabel folds a label into the printable ASCII range covered by the
// bitmap font. Characters without an ASCII base letter become '?'.
func asciiLabel(s string) string {
	s = RemoveDiacritics(s)
	return strings.Map(func(r rune) rune {
		if r >= 0x20 && r < 0x7f {
			return r
		}
		if unicode.IsSpace(r) {
			return ' '
		}
		return '?'
	}, s)
}
