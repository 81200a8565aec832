// Package phone normalizes loosely formatted phone numbers so contacts and
// accounts can be matched with a single indexed lookup.
package phone

import (
	"errors"
	"strings"
	"unicode"
)

// ErrTooShort is returned for inputs with fewer than seven digits.
var ErrTooShort = errors.New("phone number has too few digits")

// Normalize reduces a phone number to a canonical E.164-style form. Inputs
// with ten digits are assumed to be US numbers and get a +1 prefix; an
// eleven-digit number starting with 1 is treated the same. Anything else
// keeps its digits with a leading plus.
func Normalize(raw string) (string, error) {
	digits := digitsOf(raw)
	if len(digits) < 7 {
		return "", ErrTooShort
	}

	switch {
	case len(digits) == 10:
		return "+1" + digits, nil
	case len(digits) == 11 && strings.HasPrefix(digits, "1"):
		return "+" + digits, nil
	default:
		return "+" + digits, nil
	}
}

func digitsOf(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
