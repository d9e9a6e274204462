package utils

import (
	"strings"
)

// PadNumber left-pads the integer part of a numeric chapter label with zeros up to width.
// Decimals are kept as written and labels that are not numbers come back unchanged.
func PadNumber(label string, width int) string {
	label = strings.TrimSpace(label)

	intPart, decPart, hasDec := strings.Cut(label, ".")
	if intPart == "" || strings.Trim(intPart, "0123456789") != "" {
		return label
	}
	if hasDec && strings.Trim(decPart, "0123456789") != "" {
		return label
	}

	if padding := width - len(intPart); padding > 0 {
		intPart = strings.Repeat("0", padding) + intPart
	}

	if hasDec {
		return intPart + "." + decPart
	}
	return intPart
}
