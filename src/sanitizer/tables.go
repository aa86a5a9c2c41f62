package sanitizer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// TablesVersion identifies the revision of DefaultTables. Bump it whenever
// a denylist entry is added or removed so stored content can be
// re-sanitized against the new lists.
const TablesVersion = "2024.1"

// Replacement is one literal never-allowed substitution.
type Replacement struct {
	Find    string `json:"find" toml:"find"`
	Replace string `json:"replace" toml:"replace"`
}

// Tables holds every denylist the sanitizer consults. Tables are plain data
// so they can be loaded from configuration files and merged; New compiles
// them once and the compiled form is never mutated afterward.
type Tables struct {
	Version string `json:"version" toml:"version"`

	// NeverAllowed substrings are replaced simultaneously in a single pass.
	NeverAllowed []Replacement `json:"neverAllowed" toml:"never_allowed"`

	// NeverAllowedPatterns are regular expressions replaced with [removed].
	// They are compiled case-insensitive with dot matching newlines.
	NeverAllowedPatterns []string `json:"neverAllowedPatterns" toml:"never_allowed_patterns"`

	// NaughtyTags are lowercase tag names that are always escaped.
	NaughtyTags []string `json:"naughtyTags" toml:"naughty_tags"`

	// EvilAttributes are regular expressions matched against whole
	// attribute names.
	EvilAttributes []string `json:"evilAttributes" toml:"evil_attributes"`

	// Keywords are compacted when their letters are separated by whitespace.
	Keywords []string `json:"keywords" toml:"keywords"`

	// Functions have their call parentheses escaped.
	Functions []string `json:"functions" toml:"functions"`
}

// TablesProvider supplies the denylists a Sanitizer is built from.
type TablesProvider interface {
	Tables() (Tables, error)
}

// Tables returns t itself, so a literal Tables value is a TablesProvider.
func (t Tables) Tables() (Tables, error) { return t, nil }

// Validate reports whether the tables compile.
func (t Tables) Validate() error {
	_, err := t.compile()
	return err
}

// DefaultTables returns a fresh copy of the built-in denylists.
func DefaultTables() Tables {
	return Tables{
		Version: TablesVersion,
		NeverAllowed: []Replacement{
			{Find: "document.cookie", Replace: removed},
			{Find: "document.write", Replace: removed},
			{Find: ".parentNode", Replace: removed},
			{Find: ".innerHTML", Replace: removed},
			{Find: "-moz-binding", Replace: removed},
			{Find: "<!--", Replace: "&lt;!--"},
			{Find: "-->", Replace: "--&gt;"},
			{Find: "<![CDATA[", Replace: "&lt;![CDATA["},
			{Find: "<comment>", Replace: "&lt;comment&gt;"},
			{Find: "<%", Replace: "&lt;&#37;"},
		},
		NeverAllowedPatterns: []string{
			`javascript\s*:`,
			`(document|(document\.)?window)\.(location|on\w*)`,
			`expression\s*(\(|&#40;)`,
			`vbscript\s*:`,
			`wscript\s*:`,
			`jscript\s*:`,
			`vbs\s*:`,
			`Redirect\s+30\d`,
			`["']?data\s*:[^\x01]*?base64[^\x01]*?,["']?`,
		},
		NaughtyTags: []string{
			"alert", "prompt", "confirm", "applet", "audio", "basefont", "base",
			"behavior", "bgsound", "blink", "body", "embed", "expression", "form",
			"frameset", "frame", "head", "html", "ilayer", "iframe", "input",
			"button", "select", "isindex", "layer", "link", "meta", "keygen",
			"object", "plaintext", "style", "script", "textarea", "title", "math",
			"video", "svg", "xml", "xss",
		},
		EvilAttributes: []string{
			`on\w+`, "style", "xmlns", "formaction", "form", `xlink:href`,
			"FSCommand", "seekSegmentTime",
		},
		Keywords: []string{
			"javascript", "expression", "vbscript", "jscript", "wscript", "vbs",
			"script", "base64", "applet", "alert", "document", "write", "cookie",
			"window", "confirm", "prompt", "eval",
		},
		Functions: []string{
			"alert", "prompt", "confirm", "cmd", "passthru", "eval", "exec",
			"expression", "system", "fopen", "fsockopen", "file",
			"file_get_contents", "readfile", "unlink",
		},
	}
}

// compiledTables is the immutable, ready-to-run form of Tables.
type compiledTables struct {
	version     string
	literals    *strings.Replacer
	patterns    []*regexp.Regexp
	naughtyTags map[string]struct{}
	evilAttr    *regexp.Regexp
	keywords    []*regexp.Regexp
	calls       *regexp.Regexp
}

func (t Tables) compile() (*compiledTables, error) {
	c := &compiledTables{
		version:     t.Version,
		naughtyTags: make(map[string]struct{}, len(t.NaughtyTags)),
	}

	pairs := make([]string, 0, 2*len(t.NeverAllowed))
	for _, r := range t.NeverAllowed {
		if r.Find == "" {
			return nil, errors.New("never-allowed entry has an empty find string")
		}
		pairs = append(pairs, r.Find, r.Replace)
	}
	c.literals = strings.NewReplacer(pairs...)

	c.patterns = make([]*regexp.Regexp, 0, len(t.NeverAllowedPatterns))
	for _, p := range t.NeverAllowedPatterns {
		re, err := regexp.Compile("(?is)" + p)
		if err != nil {
			return nil, fmt.Errorf("compiling never-allowed pattern %q: %w", p, err)
		}
		c.patterns = append(c.patterns, re)
	}

	for _, tag := range t.NaughtyTags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			return nil, errors.New("naughty tag list contains an empty name")
		}
		c.naughtyTags[tag] = struct{}{}
	}

	if len(t.EvilAttributes) > 0 {
		src := "(?i)^(?:" + strings.Join(t.EvilAttributes, "|") + ")$"
		re, err := regexp.Compile(src)
		if err != nil {
			return nil, fmt.Errorf("compiling evil attribute list: %w", err)
		}
		c.evilAttr = re
	}

	c.keywords = make([]*regexp.Regexp, 0, len(t.Keywords))
	for _, k := range t.Keywords {
		if k == "" {
			return nil, errors.New("keyword list contains an empty keyword")
		}
		re, err := regexp.Compile(`(?is)(` + explodedWord(k) + `)(\W)`)
		if err != nil {
			return nil, fmt.Errorf("compiling keyword %q: %w", k, err)
		}
		c.keywords = append(c.keywords, re)
	}

	if len(t.Functions) > 0 {
		names := make([]string, 0, len(t.Functions))
		for _, f := range t.Functions {
			if f == "" {
				return nil, errors.New("function list contains an empty name")
			}
			names = append(names, regexp.QuoteMeta(f))
		}
		re, err := regexp.Compile(`(?is)(` + strings.Join(names, "|") + `)(\s*)\((.*?)\)`)
		if err != nil {
			return nil, fmt.Errorf("compiling function list: %w", err)
		}
		c.calls = re
	}

	return c, nil
}

// explodedWord builds a pattern matching word with optional whitespace
// between every character.
func explodedWord(word string) string {
	var b strings.Builder
	for i, r := range word {
		if i > 0 {
			b.WriteString(`\s*`)
		}
		b.WriteString(regexp.QuoteMeta(string(r)))
	}
	return b.String()
}

func (c *compiledTables) isNaughtyTag(name string) bool {
	_, ok := c.naughtyTags[strings.ToLower(name)]
	return ok
}

func (c *compiledTables) isEvilAttribute(name string) bool {
	return c.evilAttr != nil && c.evilAttr.MatchString(name)
}
