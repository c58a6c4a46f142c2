// Package textfold provides Unicode-aware case- and accent-insensitive
// matching.
package textfold

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldCase returns s in NFC form with Unicode case folding applied, so that
// "PAÍS" and "país" compare equal even when one was typed with a combining
// accent. Accents are kept.
func FoldCase(s string) string {
	// A Caser carries state and is not safe for concurrent use.
	return cases.Fold().String(norm.NFC.String(s))
}

// Fold is FoldCase with combining marks removed as well, so "México",
// "MEXICO" and "mexico" all fold to the same string.
func Fold(s string) string {
	strip := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(strip, FoldCase(s))
	if err != nil {
		return FoldCase(s)
	}
	return out
}

// Contains reports whether substr occurs in s, ignoring case and accents.
func Contains(s, substr string) bool {
	return strings.Contains(Fold(s), Fold(substr))
}
