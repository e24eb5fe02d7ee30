// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "US"

// MinMatchDigits is the minimum number of digits required before a
// number is considered matchable against client records.
const MinMatchDigits = 7

// suffixLen is the number of trailing digits compared when full numbers
// differ, which tolerates country-code and formatting differences.
const suffixLen = 10

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// Digits strips every non-digit character from the input.
func Digits(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Matchable reports whether the input carries enough digits to be
// matched against stored client numbers.
func Matchable(input string) bool {
	return len(Digits(input)) >= MinMatchDigits
}

// Suffix returns the trailing digits used for suffix matching.
func Suffix(digits string) string {
	if len(digits) <= suffixLen {
		return digits
	}
	return digits[len(digits)-suffixLen:]
}

// SameNumber reports whether two raw phone strings refer to the same
// line: exact digit match, or matching 10-digit suffixes.
func SameNumber(a, b string) bool {
	da, db := Digits(a), Digits(b)
	if len(da) < MinMatchDigits || len(db) < MinMatchDigits {
		return false
	}
	if da == db {
		return true
	}
	return Suffix(da) == Suffix(db)
}
