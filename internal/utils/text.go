package utils

import (
	"strings"
	"unicode/utf8"
)

func CountChars(text string) int {
	return utf8.RuneCountInString(text)
}

// TypeTokenRatio is unique keys over total occurrences; 0 for an empty table.
func TypeTokenRatio(unique, total int) float64 {
	if total <= 0 {
		return 0.0
	}
	return float64(unique) / float64(total)
}

// Truncate cuts s to at most maxLength runes for log previews.
func Truncate(s string, maxLength int) string {
	defaultString := "Unknown"

	if strings.TrimSpace(s) == "" {
		return defaultString
	}

	if utf8.RuneCountInString(s) <= maxLength {
		return s
	}

	runes := []rune(s)
	return string(runes[:maxLength])
}
