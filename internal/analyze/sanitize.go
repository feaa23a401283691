package analyze

import (
	"regexp"
	"strings"
	"unicode"
)

var multiSpacePattern = regexp.MustCompile(`[ \t]{2,}`)

// Sanitize strips control characters (newlines and tabs survive), collapses
// space runs and trims. Total: any input yields a usable string.
func Sanitize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}
	cleaned := multiSpacePattern.ReplaceAllString(b.String(), " ")
	return strings.TrimSpace(cleaned)
}
