package sanitizer

import (
	"regexp"
	"strings"
)

var (
	phpOpen = regexp.MustCompile(`(?i)<\?(php)`)

	whitespace = regexp.MustCompile(`\s+`)
)

// neverAllowed replaces every literal never-allowed substring and then every
// never-allowed pattern, in table order.
func (c *compiledTables) neverAllowed(s string) string {
	s = c.literals.Replace(s)
	for _, re := range c.patterns {
		s = re.ReplaceAllLiteralString(s, removed)
	}
	return s
}

// escapeInstructions escapes processing instruction delimiters, which
// commonly ride along inside uploaded images.
func escapeInstructions(s string) string {
	s = phpOpen.ReplaceAllString(s, "&lt;?$1")
	s = strings.ReplaceAll(s, "<?", "&lt;?")
	return strings.ReplaceAll(s, "?>", "?&gt;")
}

// compactWords joins keywords whose letters were spread out with
// whitespace, so "j a v a s c r i p t:" becomes "javascript:".
func (c *compiledTables) compactWords(s string, maxPasses int) string {
	for _, re := range c.keywords {
		s = fixpoint(s, maxPasses, func(s string) string {
			return replaceAllSubmatchFunc(re, s, func(s string, m []int) string {
				return whitespace.ReplaceAllLiteralString(submatch(s, m, 1), "") + submatch(s, m, 2)
			})
		})
	}
	return s
}

// defangCalls escapes the parentheses of calls to denylisted functions,
// leaving the name and arguments visible.
func (c *compiledTables) defangCalls(s string) string {
	if c.calls == nil {
		return s
	}
	return c.calls.ReplaceAllString(s, "$1$2&#40;$3&#41;")
}
