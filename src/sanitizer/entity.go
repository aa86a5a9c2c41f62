package sanitizer

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

var (
	// bareNamedRef matches a named reference with no terminating
	// semicolon. The trailing byte, if any, is checked by the caller.
	bareNamedRef = regexp.MustCompile(`&[A-Za-z]{2,}`)

	numericRef = regexp.MustCompile(`&#(?:[xX][0-9a-fA-F]+|[0-9]+)`)

	// attributeValue matches a quoted attribute value together with the
	// non-alphanumeric run and name that precede it.
	attributeValue = regexp.MustCompile(`(?is)[^a-z0-9>]+[a-z0-9]+=(?:"[^"]*"|'[^']*')`)

	// tagLine matches from the start of a tag-like sequence to the end of
	// its line.
	tagLine = regexp.MustCompile(`<\w+.*`)

	// queryPair matches name=value pairs of a URL query string, which must
	// not be mistaken for semicolon-less references like &copy.
	queryPair = regexp.MustCompile(`(?i)&([a-z_0-9-]+)=([a-z_0-9/-]+)`)

	attributeEscaper = strings.NewReplacer(">", "&gt;", "<", "&lt;", `\`, "&#92;")
)

// DecodeEntities replaces HTML character references in s with the
// characters they name. References missing their terminating semicolon and
// named references in the wrong case are decoded too, as browsers do.
// Decoding repeats until the text stops changing, so double-encoded
// references are unwrapped.
//
// charset names the encoding of s using WHATWG labels. An empty or
// unknown charset is treated as UTF-8. Characters the charset cannot
// represent are emitted as numeric references.
func DecodeEntities(s, charset string) string {
	return decodeEntities(s, charset, DefaultMaxPasses)
}

func decodeEntities(s, charset string, maxPasses int) string {
	if !strings.Contains(s, "&") {
		return s
	}

	enc := lookupCharset(charset)
	if enc == nil {
		return fixpoint(s, maxPasses, decodeEntityPass)
	}

	utf, err := enc.NewDecoder().String(s)
	if err != nil {
		return fixpoint(s, maxPasses, decodeEntityPass)
	}
	out, err := encoding.HTMLEscapeUnsupported(enc.NewEncoder()).String(fixpoint(utf, maxPasses, decodeEntityPass))
	if err != nil {
		return s
	}
	return out
}

// lookupCharset returns the encoding for label, or nil when the text is
// already UTF-8 or the label is not recognized.
func lookupCharset(label string) encoding.Encoding {
	if label == "" {
		return nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil
	}
	if name, _ := htmlindex.Name(enc); name == "utf-8" {
		return nil
	}
	return enc
}

func decodeEntityPass(s string) string {
	s = terminateNamedRefs(s)
	s = terminateNumericRefs(s)
	return html.UnescapeString(s)
}

func terminateNamedRefs(s string) string {
	return replaceAllSubmatchFunc(bareNamedRef, s, func(s string, m []int) string {
		ref := s[m[0]:m[1]]
		if m[1] < len(s) && s[m[1]] == ';' {
			return ref
		}
		if ch, ok := resolveNamed(ref[1:]); ok {
			return ch
		}
		return ref
	})
}

// resolveNamed looks name up in the HTML named reference table, first as
// written and then lowercased.
func resolveNamed(name string) (string, bool) {
	for _, n := range []string{name, strings.ToLower(name)} {
		ref := "&" + n + ";"
		out := html.UnescapeString(ref)
		// A prefix match such as &not in &notit; leaves the tail behind.
		if out != ref && utf8.RuneCountInString(out) <= 2 {
			return out, true
		}
	}
	return "", false
}

// terminateNumericRefs appends a semicolon to numeric references that lack
// one. Only references of plausible length are touched: two to five
// significant hex digits or two to four decimal digits.
func terminateNumericRefs(s string) string {
	return replaceAllSubmatchFunc(numericRef, s, func(s string, m []int) string {
		ref := s[m[0]:m[1]]
		if m[1] < len(s) && s[m[1]] == ';' {
			return ref
		}

		digits, limit := ref[2:], 4
		if digits[0] == 'x' || digits[0] == 'X' {
			digits, limit = digits[1:], 5
		}
		if len(digits) < 2 || significantDigits(digits) > limit {
			return ref
		}
		return ref + ";"
	})
}

func significantDigits(digits string) int {
	trimmed := strings.TrimLeft(digits, "0")
	if len(trimmed) < 2 {
		return 2
	}
	return len(trimmed)
}

// convertAttributes escapes angle brackets and backslashes inside quoted
// attribute values, so decoded values cannot open or close tags.
func convertAttributes(s string) string {
	return attributeValue.ReplaceAllStringFunc(s, attributeEscaper.Replace)
}

// decodeTagLines entity-decodes every line from its first tag onward.
// Query-string pairs are masked with marker while decoding.
func decodeTagLines(s, marker string, maxPasses int) string {
	return tagLine.ReplaceAllStringFunc(s, func(line string) string {
		line = queryPair.ReplaceAllString(line, marker+"${1}=${2}")
		line = decodeEntities(line, "", maxPasses)
		return strings.ReplaceAll(line, marker, "&")
	})
}
