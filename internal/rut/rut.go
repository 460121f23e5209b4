// Package rut validates Chilean national ids (RUT) with the modulo 11 check digit.
package rut

import (
	"regexp"
	"strings"
)

var format = regexp.MustCompile(`^[0-9]+-[0-9k]$`)

// Normalize strips thousands separators and lowercases the check digit,
// "12.345.678-K" becomes "12345678-k".
func Normalize(rut string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(rut), ".", ""))
}

// Valid reports whether rut has the NNNNNNNN-D shape (dots allowed) and a
// matching check digit. "k" stands for 10.
func Valid(rut string) bool {
	rut = Normalize(rut)
	if !format.MatchString(rut) {
		return false
	}
	number, dv, _ := strings.Cut(rut, "-")

	sum, multiplier := 0, 2
	for i := len(number) - 1; i >= 0; i-- {
		sum += int(number[i]-'0') * multiplier
		if multiplier == 7 {
			multiplier = 2
		} else {
			multiplier++
		}
	}

	expected := 11 - sum%11
	if expected == 11 {
		expected = 0
	}

	provided := 10
	if dv != "k" {
		provided = int(dv[0] - '0')
	}
	return expected == provided
}
