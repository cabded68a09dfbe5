// Package textx provides text normalization helpers for title search.
package textx

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldChain = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases s and strips combining marks, so "Café" and "cafe"
// normalize to the same string. Titles are stored folded next to the
// original, and substring search runs against the folded column.
//
// If the transform fails on malformed input the original string is folded
// case-only; search then degrades to case-insensitive for that value.
func Fold(s string) string {
	out, _, err := transform.String(foldChain, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}
