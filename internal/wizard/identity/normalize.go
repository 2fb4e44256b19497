// Package identity resolves a company's RUT and numeric business key (empkey)
// from a wizard document.
package identity

import (
	"regexp"
	"strconv"
	"strings"

	dErrors "empresaflow/pkg/domain-errors"
)

// maxKeyDigits bounds a derived business key to the trailing digits of the RUT body.
const maxKeyDigits = 9

// taxIDPattern matches strings that look like a RUT: digits, optionally grouped
// in threes with dots, an optional separator, and a check digit (0-9 or K).
var taxIDPattern = regexp.MustCompile(`^(?:\d{1,3}(?:\.\d{3})+|\d+)[- ]?[0-9kK]$`)

// LooksLikeTaxID reports whether s has the shape of a RUT.
func LooksLikeTaxID(s string) bool {
	return taxIDPattern.MatchString(strings.TrimSpace(s))
}

// Normalize keeps only digits and K, then splits off the last character as the
// upper-cased check digit: "12.345.678-5" becomes "12345678-5". It fails when
// fewer than two characters survive.
func Normalize(raw string) (string, bool) {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == 'k' || r == 'K' {
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if len(clean) < 2 {
		return "", false
	}
	body, dv := clean[:len(clean)-1], strings.ToUpper(clean[len(clean)-1:])
	return body + "-" + dv, true
}

// DeriveBusinessKey computes the empkey of a normalized RUT: keep its digits,
// drop the last one, take at most the trailing nine, read as base 10.
//
// A K check digit is removed with the other non-digits before the last digit is
// dropped, so "12345678-K" yields 1234567. Existing keys were derived this way.
func DeriveBusinessKey(taxID string) (int64, error) {
	var b strings.Builder
	for _, r := range taxID {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < 2 {
		return 0, dErrors.Newf(dErrors.CodeValidation, "cannot derive empkey from RUT %q", taxID)
	}
	body := digits[:len(digits)-1]
	if len(body) > maxKeyDigits {
		body = body[len(body)-maxKeyDigits:]
	}
	key, err := strconv.ParseInt(body, 10, 64)
	if err != nil || key <= 0 {
		return 0, dErrors.Newf(dErrors.CodeValidation, "cannot derive empkey from RUT %q", taxID)
	}
	return key, nil
}
