package sanitizer

import (
	"regexp"
	"strings"
)

var (
	anchorOpen = regexp.MustCompile(`(?i)<a`)
	imageOpen  = regexp.MustCompile(`(?i)<img`)
	scriptWord = regexp.MustCompile(`(?i)script|xss`)

	anchorTag = regexp.MustCompile(`(?is)<a[^a-z0-9>]+([^>]*?)(?:>|$)`)
	imageTag  = regexp.MustCompile(`(?is)<img[^a-z0-9>]+([^>]*?)(?:\s?/?>|$)`)
	scriptTag = regexp.MustCompile(`(?is)</*(?:script|xss).*?>`)

	// anchorJS matches an href up to and including the first dangerous
	// scheme, DOM access or dialog call inside it.
	anchorJS = regexp.MustCompile(`(?is)href=.*?(?:(?:alert|prompt|confirm)(?:\(|&#40;)|javascript:|livescript:|mocha:|charset=|window\.|document\.|\.cookie|<script|<xss|d\s*a\s*t\s*a\s*:)`)

	// imageJS is anchorJS for image sources, which additionally must not
	// carry eval calls or base64 payloads.
	imageJS = regexp.MustCompile(`(?is)src=.*?(?:(?:alert|prompt|confirm|eval)(?:\(|&#40;)|javascript:|livescript:|mocha:|charset=|window\.|document\.|\.cookie|<script|<xss|base64\s*,)`)

	quotedAttribute = regexp.MustCompile(`(?is)\s*([a-z-]+)\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	cssComment      = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

// defangLinks strips script-bearing attribute values from anchor and image
// tags and removes script and xss tags outright, repeating until the text
// stops changing.
func (c *compiledTables) defangLinks(s string, maxPasses int) string {
	return fixpoint(s, maxPasses, func(s string) string {
		if anchorOpen.MatchString(s) {
			s = c.rewriteAttributes(s, anchorTag, anchorJS)
		}
		if imageOpen.MatchString(s) {
			s = c.rewriteAttributes(s, imageTag, imageJS)
		}
		if scriptWord.MatchString(s) {
			s = scriptTag.ReplaceAllLiteralString(s, removed)
		}
		return s
	})
}

// rewriteAttributes replaces the attribute span of every tag match with
// its filtered form, minus anything js matches.
func (c *compiledTables) rewriteAttributes(s string, tag, js *regexp.Regexp) string {
	return replaceAllSubmatchFunc(tag, s, func(s string, m []int) string {
		match := s[m[0]:m[1]]
		if m[2] == m[3] {
			return match
		}
		attrs := js.ReplaceAllLiteralString(c.filterAttributes(s[m[2]:m[3]]), "")
		return s[m[0]:m[2]] + attrs + s[m[3]:m[1]]
	})
}

// filterAttributes keeps only well-formed quoted attributes with a
// non-empty value and an allowed name, with CSS comments removed.
func (c *compiledTables) filterAttributes(attrs string) string {
	var b strings.Builder
	for _, m := range quotedAttribute.FindAllStringSubmatchIndex(attrs, -1) {
		name := submatch(attrs, m, 1)
		value := submatch(attrs, m, 2) + submatch(attrs, m, 3)
		if value == "" || c.isEvilAttribute(name) {
			continue
		}
		b.WriteString(cssComment.ReplaceAllLiteralString(attrs[m[0]:m[1]], ""))
	}
	return b.String()
}
