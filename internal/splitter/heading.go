package splitter

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// headingRe matches an ATX heading: one to six # characters followed by
// whitespace and a title. Seven or more # fail the match and the line is
// treated as plain text.
var headingRe = regexp.MustCompile(`^(#{1,6})\s+(.*)`)

// parseHeading splits a markdown heading line into its level and
// whitespace-trimmed title. ok is false for non-heading lines.
func parseHeading(line string) (level int, title string, ok bool) {
	m := headingRe.FindStringSubmatch(line)
	if m == nil {
		return 0, "", false
	}
	return len(m[1]), strings.TrimSpace(m[2]), true
}

// isBlank reports whether the line contains only whitespace.
func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// startsUnindented reports whether the line begins with a non-whitespace rune.
func startsUnindented(line string) bool {
	if line == "" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(line)
	return !unicode.IsSpace(r)
}
