package types

import (
	"regexp"
	"strings"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a label into a lowercase hyphen-separated identifier,
// e.g. "Police Department" -> "police-department".
func Slugify(text string) string {
	return strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(text), "-"), "-")
}
