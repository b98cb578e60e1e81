// Package render contains the pure formatting layer: markup stripping,
// search-result lists, and page cards. Nothing here performs I/O.
package render

import (
	"regexp"
	"strings"
)

var (
	tagPattern         = regexp.MustCompile(`<[^>]+>`)
	escapedNewline     = regexp.MustCompile(`\\n`)
	escapedChar        = regexp.MustCompile(`\\(.)`)
	blankLineRuns      = regexp.MustCompile(`\n\s*\n`)
	horizontalSpaceRun = regexp.MustCompile(`[ \t]+`)
)

// StripMarkup removes tag-delimited markup from stored page content and
// normalizes it for terminal display: literal escape sequences are unescaped,
// runs of blank lines collapse to one blank line, runs of horizontal
// whitespace collapse to a single space, and the ends are trimmed. It is
// total: empty input yields an empty string.
func StripMarkup(content string) string {
	if content == "" {
		return ""
	}

	out := tagPattern.ReplaceAllString(content, "")
	out = escapedNewline.ReplaceAllString(out, "\n")
	out = escapedChar.ReplaceAllString(out, "$1")
	out = blankLineRuns.ReplaceAllString(out, "\n\n")
	out = horizontalSpaceRun.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// Truncate shortens s to at most n runes, appending an ellipsis when content
// was cut.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
