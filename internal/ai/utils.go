package ai

import (
	"unicode/utf8"
)

// safeTruncateString truncates a string to maxLen bytes while preserving UTF-8 encoding
func safeTruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	truncated := s[:maxLen]
	// A UTF-8 sequence is at most 4 bytes
	for i := 0; i < 4 && len(truncated) > 0; i++ {
		if utf8.ValidString(truncated) {
			return truncated
		}
		truncated = truncated[:len(truncated)-1]
	}
	return ""
}
