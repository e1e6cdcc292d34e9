package store

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Windows reserved characters plus both path separators.
var reservedChars = regexp.MustCompile(`[<>:"/\\|?*]`)

var underscoreRuns = regexp.MustCompile(`_+`)

const maxComponentLength = 120

// SanitizeFilename turns a user or record ID into a single safe path
// component. It never returns "", "." or "..", so a hostile user ID
// cannot escape the store directory.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < 0x20:
			// control characters are dropped
		case !unicode.IsPrint(r) || r == unicode.ReplacementChar:
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}

	result := reservedChars.ReplaceAllString(b.String(), "_")
	result = underscoreRuns.ReplaceAllString(result, "_")
	result = strings.Trim(result, " ._")

	result = truncateBytes(result, maxComponentLength)
	if result == "" {
		return "unnamed"
	}
	return result
}

// truncateBytes cuts s to at most n bytes on a rune boundary.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimRight(s[:cut], "_")
}
