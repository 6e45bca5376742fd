// Package upc implements UPC-A check digit arithmetic.
package upc

import (
	"fmt"
	"strings"
)

// Length of a complete UPC-A code including the check digit.
const Length = 12

// Normalize strips spaces and hyphens from a UPC candidate.
func Normalize(code string) string {
	code = strings.ReplaceAll(code, "-", "")
	code = strings.ReplaceAll(code, " ", "")
	return strings.TrimSpace(code)
}

// IsDigits reports whether s is non-empty and contains only ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// CheckDigit computes the UPC-A check digit for the 11 leading digits.
// Odd positions (1st, 3rd, ...) are weighted 3, even positions 1; the
// check digit brings the total to a multiple of 10.
func CheckDigit(digits string) (int, error) {
	if len(digits) != Length-1 {
		return 0, fmt.Errorf("need %d digits, got %d", Length-1, len(digits))
	}
	if !IsDigits(digits) {
		return 0, fmt.Errorf("non-digit character in %q", digits)
	}

	sum := 0
	for i, r := range digits {
		d := int(r - '0')
		if i%2 == 0 {
			sum += d * 3
		} else {
			sum += d
		}
	}
	return (10 - sum%10) % 10, nil
}

// Validate checks that code is a well-formed 12-digit UPC-A with a correct
// check digit. A nil return means the code is valid.
func Validate(code string) error {
	code = Normalize(code)
	if !IsDigits(code) {
		return fmt.Errorf("UPC must contain only digits, got %q", code)
	}
	if len(code) != Length {
		return fmt.Errorf("UPC must be %d digits, got %d", Length, len(code))
	}

	want, err := CheckDigit(code[:Length-1])
	if err != nil {
		return err
	}
	got := int(code[Length-1] - '0')
	if got != want {
		return fmt.Errorf("check digit is %d, expected %d", got, want)
	}
	return nil
}

// Repair recomputes the check digit and returns a valid 12-digit code.
// Accepts 11 digits (check digit missing) or 12 digits (check digit
// possibly wrong); the first 11 digits are kept as-is.
func Repair(code string) (string, error) {
	code = Normalize(code)
	if !IsDigits(code) {
		return "", fmt.Errorf("UPC must contain only digits, got %q", code)
	}
	if len(code) != Length && len(code) != Length-1 {
		return "", fmt.Errorf("cannot repair a %d-digit code", len(code))
	}

	body := code[:Length-1]
	check, err := CheckDigit(body)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d", body, check), nil
}
