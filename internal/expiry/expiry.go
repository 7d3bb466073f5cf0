// Package expiry handles the two card expiry encodings the gateway sees:
// MMYY on the terminal-facing JSON boundary and YYMM on the ISO 8583 wire.
package expiry

import (
	"fmt"
	"strings"
)

// ValidateMMYY checks that s is 4 digits with a month in 01..12.
func ValidateMMYY(s string) error {
	if len(s) != 4 {
		return fmt.Errorf("expiry must be MMYY (4 digits)")
	}
	for i := 0; i < 4; i++ {
		if s[i] < '0' || s[i] > '9' {
			return fmt.Errorf("expiry must be digits: MMYY")
		}
	}
	mm := int(s[0]-'0')*10 + int(s[1]-'0')
	if mm < 1 || mm > 12 {
		return fmt.Errorf("expiry month must be 01..12")
	}
	return nil
}

// ValidateYYMM checks that s is 4 digits with a month in 01..12.
func ValidateYYMM(s string) error {
	if len(s) != 4 {
		return fmt.Errorf("expiry must be YYMM (4 digits)")
	}
	for i := 0; i < 4; i++ {
		if s[i] < '0' || s[i] > '9' {
			return fmt.Errorf("expiry must be digits: YYMM")
		}
	}
	mm := int(s[2]-'0')*10 + int(s[3]-'0')
	if mm < 1 || mm > 12 {
		return fmt.Errorf("expiry month must be 01..12")
	}
	return nil
}

// MMYYToYYMM converts terminal expiry to the wire encoding.
func MMYYToYYMM(mmyy string) (string, error) {
	if err := ValidateMMYY(mmyy); err != nil {
		return "", err
	}
	return mmyy[2:] + mmyy[:2], nil
}

// YYMMToMMYY converts wire expiry to the terminal encoding.
func YYMMToMMYY(yymm string) (string, error) {
	if err := ValidateYYMM(yymm); err != nil {
		return "", err
	}
	return yymm[2:] + yymm[:2], nil
}

// Normalize strips the "MM/YY" separator terminals sometimes send and
// returns plain MMYY.
func Normalize(in string) string {
	return strings.ReplaceAll(strings.TrimSpace(in), "/", "")
}
