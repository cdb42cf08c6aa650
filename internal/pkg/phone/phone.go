// Package phone normalizes and masks E.164-style phone numbers.
package phone

import (
	"strings"

	xerrors "almudeer-service/internal/pkg/errors"
)

const maskedSuffixLen = 3

// Normalize trims whitespace and guarantees a leading "+", then checks the
// remainder is a plausible international number (digits only, 7-15 of them).
func Normalize(raw string) (string, error) {
	p := strings.TrimSpace(raw)
	if p == "" {
		return "", xerrors.ErrValidation
	}
	if !strings.HasPrefix(p, "+") {
		p = "+" + p
	}

	digits := p[1:]
	if len(digits) < 7 || len(digits) > 15 {
		return "", xerrors.ErrValidation
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", xerrors.ErrValidation
		}
	}
	return p, nil
}

// Mask renders a phone number for display: country-code prefix, then "***",
// then the last three digits. +963912345678 with prefixLen 4 -> +963***678.
// Numbers too short to keep anything hidden render fully masked.
func Mask(number string, prefixLen int) string {
	if prefixLen <= 0 {
		prefixLen = 4
	}
	if len(number) <= prefixLen+maskedSuffixLen {
		return "***"
	}
	return number[:prefixLen] + "***" + number[len(number)-maskedSuffixLen:]
}
