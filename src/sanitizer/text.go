package sanitizer

import (
	"regexp"
	"strings"
)

// removed replaces every construct the denylists drop outright.
const removed = "[removed]"

// fixpoint applies fn until it stops changing s or maxPasses runs out.
// Hitting the cap is not an error; the last value is returned as is.
func fixpoint(s string, maxPasses int, fn func(string) string) string {
	for i := 0; i < maxPasses; i++ {
		next := fn(s)
		if next == s {
			return s
		}
		s = next
	}
	return s
}

// replaceAllSubmatchFunc is like ReplaceAllStringFunc but hands fn the
// submatch offsets of every match, as returned by
// FindAllStringSubmatchIndex.
func replaceAllSubmatchFunc(re *regexp.Regexp, s string, fn func(s string, m []int) string) string {
	matches := re.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, m := range matches {
		b.WriteString(s[last:m[0]])
		b.WriteString(fn(s, m))
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

// submatch returns group n of match m, or "" when the group did not take
// part in the match.
func submatch(s string, m []int, n int) string {
	if m[2*n] < 0 {
		return ""
	}
	return s[m[2*n]:m[2*n+1]]
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func isAlnum(c byte) bool {
	return isLetter(c) || isDigit(c)
}

func isQuote(c byte) bool {
	return c == '"' || c == '\''
}
