// Package textnorm canonicalizes city and country names so that spelling
// variants (accents, case, padding) collapse onto one matching key.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize returns the lowercase, accent-free, trimmed form of v.
// Anything that is not a string normalizes to "".
func Normalize(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return NormalizeString(s)
}

// NormalizeString is Normalize for callers that already hold a string.
func NormalizeString(s string) string {
	// NFKD splits "ã" into "a" + combining tilde; whatever is still outside
	// ASCII after dropping marks has no ASCII spelling and is discarded.
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), runes.Remove(runes.Predicate(isNonASCII)))
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(strings.ToLower(out))
}

func isNonASCII(r rune) bool {
	return r > unicode.MaxASCII
}

// CountryCode upper-cases and trims an ISO2 code.
func CountryCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
