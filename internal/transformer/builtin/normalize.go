package builtin

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize returns s in Unicode NFC with non-breaking spaces replaced and
// surrounding whitespace trimmed.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(norm.NFC.String(s))
}

// Fold returns a case- and accent-insensitive key for s, suitable for
// matching user input such as a genre filter against stored names.
//
//	Fold(" Ciencia Ficción ") == "ciencia ficcion"
func Fold(s string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	out, _, err := transform.String(t, strings.ToLower(Normalize(s)))
	if err != nil {
		return strings.ToLower(Normalize(s))
	}
	return out
}
