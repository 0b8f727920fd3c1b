package strutil

import (
	"strings"
)

// IsBlank is true for strings that are empty or only hold whitespace.
func IsBlank(input string) bool {
	return strings.TrimSpace(input) == ""
}

func DefaultIfEmpty(input string, defaultValue string) string {
	if input == "" {
		return defaultValue
	}

	return input
}

// FirstNonBlank returns the first value holding more than whitespace, trimmed.
func FirstNonBlank(values ...string) string {
	for _, value := range values {
		if !IsBlank(value) {
			return strings.TrimSpace(value)
		}
	}

	return ""
}

func EnsureSuffix(input string, suffix string) string {
	if strings.HasSuffix(input, suffix) {
		return input
	}

	return input + suffix
}
