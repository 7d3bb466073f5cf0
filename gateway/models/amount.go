package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseAmount converts a decimal amount string ("100", "100.5", "100.00")
// into minor units. At most two fraction digits are accepted; the value must
// be strictly positive. There is deliberately no upper ceiling here — daily
// limits are caller-side policy.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("amount is empty")
	}
	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("amount %q: more than two fraction digits", s)
	}
	// Signs, spaces and every other non-digit byte are rejected outright;
	// ParseInt alone would let "1.-1" through as a negative fraction.
	if !allDigits(whole) || (frac != "" && !allDigits(frac)) {
		return 0, fmt.Errorf("amount %q: must be decimal digits", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", s, err)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", s, err)
	}
	// units*100+cents must not wrap; a wrapped value can still look positive.
	if units > (math.MaxInt64-99)/100 {
		return 0, fmt.Errorf("amount %q: exceeds the representable range", s)
	}
	minor := units*100 + cents
	if minor <= 0 {
		return 0, fmt.Errorf("amount %q: must be positive", s)
	}
	return minor, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

// FormatAmount renders minor units back to a two-decimal string.
func FormatAmount(minor int64) string {
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}
