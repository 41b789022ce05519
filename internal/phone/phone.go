// Package phone normalizes voter-supplied phone numbers to the canonical
// key used throughout the entry and vote stores.
package phone

import (
	"errors"
	"strings"
)

// ErrInvalid is returned for input that cannot be a phone number.
var ErrInvalid = errors.New("invalid phone number")

const (
	minDigits = 7
	maxDigits = 15
)

// Normalize strips formatting characters (spaces, dashes, dots,
// parentheses) and validates the result: an optional leading "+" followed
// by 7 to 15 digits. The returned string is the canonical identity key;
// two inputs that normalize equal are the same voter.
func Normalize(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+':
			if b.Len() != 0 {
				return "", ErrInvalid
			}
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
			// formatting noise
		default:
			return "", ErrInvalid
		}
	}

	s := b.String()
	digits := strings.TrimPrefix(s, "+")
	if len(digits) < minDigits || len(digits) > maxDigits {
		return "", ErrInvalid
	}
	return s, nil
}
