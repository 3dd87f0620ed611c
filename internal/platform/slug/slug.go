package slug

import (
	"regexp"
	"strings"
)

const maxLength = 48

var separators = regexp.MustCompile(`[^a-z0-9]+`)

// Make turns a title into a lowercase, dash-separated file name stem of at
// most 48 bytes.
func Make(title string) string {
	s := separators.ReplaceAllString(strings.ToLower(strings.TrimSpace(title)), "-")
	s = strings.Trim(s, "-")
	if len(s) > maxLength {
		s = strings.TrimRight(s[:maxLength], "-")
	}
	if s == "" {
		return "session"
	}
	return s
}
