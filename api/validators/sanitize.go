package validators

import "strings"

// SanitizeString trims surrounding whitespace and truncates to maxLen bytes.
// maxLen <= 0 disables truncation.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen <= 0 || len(trimmed) <= maxLen {
		return trimmed
	}
	return trimmed[:maxLen]
}
