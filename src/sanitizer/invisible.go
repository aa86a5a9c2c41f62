package sanitizer

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// encodedControls matches percent-encoded control octets other than
	// tab, line feed and carriage return.
	encodedControls = regexp.MustCompile(`(?i)%(?:0[0-8bcef]|1[0-9a-f])`)

	// rawControls matches runs of literal control bytes other than tab,
	// line feed and carriage return.
	rawControls = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]+`)

	percentPair = regexp.MustCompile(`%[0-9a-fA-F]{2}`)
)

// StripInvisibles removes control characters from s. When decodeURLEncoded
// is set, percent-encoded control octets are removed as well. Removal is
// repeated until nothing more is found, since deleting one sequence can
// join the halves of another.
func StripInvisibles(s string, decodeURLEncoded bool) string {
	for {
		before := len(s)
		if decodeURLEncoded {
			s = encodedControls.ReplaceAllLiteralString(s, "")
		}
		s = rawControls.ReplaceAllLiteralString(s, "")
		if len(s) == before {
			return s
		}
	}
}

// percentDecode decodes every %XX octet in s, repeating while encoded
// octets remain so multiply-encoded payloads are fully unwrapped. Invalid
// escapes are left as literal text.
func percentDecode(s string, maxPasses int) string {
	if !strings.Contains(s, "%") {
		return s
	}
	for i := 0; i < maxPasses && percentPair.MatchString(s); i++ {
		s = percentPair.ReplaceAllStringFunc(s, func(m string) string {
			b, err := strconv.ParseUint(m[1:], 16, 8)
			if err != nil {
				return m
			}
			return string([]byte{byte(b)})
		})
	}
	return s
}
