package model

import (
	"errors"
	"fmt"
	"strings"
)

// CanonicalGDUNLen is the fixed width of a canonical customer identifier.
const CanonicalGDUNLen = 9

// ErrMalformedGDUN marks identifiers outside the 7-9 digit range (or
// containing non-digits). Callers treat it as a per-identifier failure.
var ErrMalformedGDUN = errors.New("malformed gduns identifier")

// NormalizeGDUN converts a 7-9 digit customer identifier into its canonical
// 9-digit form, left-padded with zeros. The original digits are preserved
// verbatim as the suffix. Anything else => ErrMalformedGDUN.
func NormalizeGDUN(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if len(s) < 7 || len(s) > CanonicalGDUNLen {
		return "", fmt.Errorf("%w: %q has %d characters, want 7-9 digits", ErrMalformedGDUN, raw, len(s))
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: %q is not numeric", ErrMalformedGDUN, raw)
		}
	}

	return strings.Repeat("0", CanonicalGDUNLen-len(s)) + s, nil
}
