package sanitizer

import "strings"

// tagMatch is one tag-like span found by matchTag. Offsets index into the
// scanned string; start points at the opening '<'.
type tagMatch struct {
	start, end int
	slash      string
	name       string
	attrs      string
	// inner is everything after '<' up to, but excluding, the closing '>'.
	inner  string
	closed bool
}

// matchTag reports the tag starting at s[p], which must be '<'. A tag is
// '<', an optional run of slashes and spaces, an alphanumeric name and
// then attributes. Attribute names may contain '<', so "<b <i>" is one tag
// whose attribute run is "<i". The tag is closed when a '>' follows the
// attribute run, and unclosed when the text ends first.
func matchTag(s string, p int) (tagMatch, bool) {
	i := p + 1

	slashStart := i
	for i < len(s) && s[i] == '/' {
		i++
	}
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	slashEnd := i

	nameStart := i
	for i < len(s) && isAlnum(s[i]) {
		i++
	}
	if i == nameStart {
		return tagMatch{}, false
	}
	nameEnd := i

	// Punctuation glued to the name, like the '!' in <a!href=x>.
	for i < len(s) && !isSpace(s[i]) && !isQuote(s[i]) && !isAlnum(s[i]) && s[i] != '>' && s[i] != '/' && s[i] != '=' {
		i++
	}

	attrsStart := i
	i = scanAttributes(s, i)
	attrsEnd := i

	for i < len(s) && s[i] != '>' && s[i] != '<' {
		i++
	}

	m := tagMatch{
		start: p,
		slash: s[slashStart:slashEnd],
		name:  s[nameStart:nameEnd],
		attrs: s[attrsStart:attrsEnd],
		inner: s[p+1 : i],
	}
	if i < len(s) && s[i] == '>' {
		m.closed = true
		i++
	}
	m.end = i
	return m, true
}

func isNameByte(c byte) bool {
	return !isSpace(c) && !isQuote(c) && c != '>' && c != '/' && c != '='
}

func isUnquotedValueByte(c byte) bool {
	switch c {
	case '=', '<', '>', '`':
		return false
	}
	return !isSpace(c) && !isQuote(c)
}

// scanAttributes consumes a run of attributes starting at s[i] and returns
// the offset just past the last one. Separators before a name may be any
// mix of whitespace, quotes, slashes and equals signs.
func scanAttributes(s string, i int) int {
	for {
		j := i
		for j < len(s) && (isSpace(s[j]) || isQuote(s[j]) || s[j] == '/' || s[j] == '=') {
			j++
		}
		nameStart := j
		for j < len(s) && isNameByte(s[j]) {
			j++
		}
		if j == nameStart {
			return i
		}

		k := j
		for k < len(s) && isSpace(s[k]) {
			k++
		}
		if k < len(s) && s[k] == '=' {
			j = k + 1 + valueLen(s, k+1)
		}
		i = j
	}
}

// valueLen returns the length of the attribute value starting at s[i],
// which follows an '='. Values are tried unquoted, double quoted and
// single quoted, in that order; failing those the value is empty and only
// surrounding whitespace is consumed.
func valueLen(s string, i int) int {
	j := i
	for j < len(s) && isUnquotedValueByte(s[j]) {
		j++
	}
	if j > i {
		return j - i
	}

	j = i
	for j < len(s) && isSpace(s[j]) {
		j++
	}
	if j < len(s) && isQuote(s[j]) {
		if end := strings.IndexByte(s[j+1:], s[j]); end >= 0 {
			return j + 1 + end + 1 - i
		}
	}
	return j - i
}

// findAttribute locates the first name=value pair in attrs. It returns the
// offsets of the whole pair and of its value.
func findAttribute(attrs string) (start, end, valueStart int, ok bool) {
	for p := 0; p < len(attrs); {
		if !isNameByte(attrs[p]) {
			p++
			continue
		}
		q := p
		for q < len(attrs) && isNameByte(attrs[q]) {
			q++
		}
		k := q
		for k < len(attrs) && isSpace(attrs[k]) {
			k++
		}
		if k < len(attrs) && attrs[k] == '=' {
			return p, k + 1 + valueLen(attrs, k+1), k + 1, true
		}
		p = q
	}
	return 0, 0, 0, false
}

// sanitizeTags runs one left-to-right pass over s, rewriting every tag.
func (c *compiledTables) sanitizeTags(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for p := 0; p < len(s); {
		if s[p] != '<' {
			p++
			continue
		}
		m, ok := matchTag(s, p)
		if !ok {
			p++
			continue
		}
		b.WriteString(s[last:p])
		b.WriteString(c.renderTag(m))
		last, p = m.end, m.end
	}
	b.WriteString(s[last:])
	return b.String()
}

// renderTag decides the fate of one tag. Unclosed tags only have their
// '<' escaped; denylisted tags are escaped whole; anything else is rebuilt
// from its filtered attributes. Escaped tags become text, so brackets and
// backslashes inside their quoted values are escaped the way
// convertAttributes would escape them outside a tag.
func (c *compiledTables) renderTag(m tagMatch) string {
	switch {
	case !m.closed:
		return "&lt;" + attributeEscaper.Replace(m.inner)
	case c.isNaughtyTag(m.name):
		return "&lt;" + attributeEscaper.Replace(m.inner) + "&gt;"
	}

	attrs := c.filterTagAttributes(m.attrs)
	if len(attrs) == 0 {
		return "<" + m.slash + m.name + ">"
	}
	return "<" + m.slash + m.name + " " + strings.Join(attrs, " ") + ">"
}

// filterTagAttributes walks attrs pair by pair. Pairs with a denylisted
// name or a blank value become xss=removed; the rest are kept verbatim.
func (c *compiledTables) filterTagAttributes(attrs string) []string {
	var out []string
	for {
		attrs = strings.TrimLeftFunc(attrs, func(r rune) bool {
			return r >= 0x80 || !isLetter(byte(r))
		})
		start, end, valueStart, ok := findAttribute(attrs)
		if !ok {
			return out
		}

		name := strings.TrimRight(attrs[start:valueStart-1], " \t\n\r\f\v")
		if c.isEvilAttribute(name) || strings.TrimSpace(attrs[valueStart:end]) == "" {
			out = append(out, "xss=removed")
		} else {
			out = append(out, attrs[start:end])
		}

		attrs = attrs[end:]
		if attrs == "" {
			return out
		}
	}
}
