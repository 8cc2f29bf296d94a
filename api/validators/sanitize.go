package validators

import "strings"

// SanitizeString trims surrounding whitespace from a raw query value. Length limits
// are enforced by the struct's validate tags, not here.
func SanitizeString(input string) string {
	return strings.TrimSpace(input)
}
