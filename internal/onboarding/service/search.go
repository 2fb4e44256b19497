package service

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fold lower-cases s and strips combining marks so "Peñalolén" matches "penalolen".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// matches reports whether the entry's name or RUT contains the folded query.
func matches(query, rut string, name *string) bool {
	if query == "" {
		return true
	}
	if name != nil && strings.Contains(fold(*name), query) {
		return true
	}
	return strings.Contains(strings.ToLower(rut), strings.ReplaceAll(query, ".", ""))
}
