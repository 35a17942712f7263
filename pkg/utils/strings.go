package utils

import (
	"strconv"
	"strings"
)

// ParseInt parses a string to int with a fallback default value
func ParseInt(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return defaultVal
	}
	return val
}

// NormalizeCode trims and upper-cases a user typed code.
// e.g. " #client12 " -> "#CLIENT12"
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
