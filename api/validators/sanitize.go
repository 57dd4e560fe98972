package validators

import "strings"

// SanitizeString trims surrounding whitespace and caps the byte length.
// A maxLen of zero leaves the length unbounded.
func SanitizeString(input string, maxLen int) string {
	out := strings.TrimSpace(input)
	if maxLen > 0 && len(out) > maxLen {
		out = out[:maxLen]
	}
	return out
}
