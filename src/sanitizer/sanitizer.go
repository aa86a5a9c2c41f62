package sanitizer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// DefaultMaxPasses bounds every fixpoint loop when Options leaves it unset.
const DefaultMaxPasses = 64

// Options tunes a Sanitizer.
type Options struct {
	// MaxPasses caps each fixpoint loop. Reaching the cap stops the loop
	// quietly and sanitization continues with the text as it stands.
	MaxPasses int
}

// Sanitizer runs untrusted text through the full defanging pipeline. It
// holds only compiled, read-only tables and is safe for concurrent use.
type Sanitizer struct {
	tables    *compiledTables
	maxPasses int
	marker    string
	pipeline  *Pipeline
}

// New compiles t into a Sanitizer.
func New(t Tables, opts Options) (*Sanitizer, error) {
	compiled, err := t.compile()
	if err != nil {
		return nil, fmt.Errorf("compiling sanitizer tables: %w", err)
	}

	s := &Sanitizer{
		tables:    compiled,
		maxPasses: opts.MaxPasses,
		marker:    "xss" + strings.ReplaceAll(uuid.NewString(), "-", ""),
	}
	if s.maxPasses <= 0 {
		s.maxPasses = DefaultMaxPasses
	}
	s.pipeline = s.buildPipeline()
	return s, nil
}

// FromProvider builds a Sanitizer from the tables p supplies.
func FromProvider(p TablesProvider, opts Options) (*Sanitizer, error) {
	t, err := p.Tables()
	if err != nil {
		return nil, fmt.Errorf("loading sanitizer tables: %w", err)
	}
	return New(t, opts)
}

var defaultSanitizer = sync.OnceValue(func() *Sanitizer {
	s, err := New(DefaultTables(), Options{})
	if err != nil {
		panic(fmt.Sprintf("built-in sanitizer tables: %v", err))
	}
	return s
})

// Default returns a shared Sanitizer built from DefaultTables.
func Default() *Sanitizer {
	return defaultSanitizer()
}

// Sanitize is shorthand for Default().Sanitize(s).
func Sanitize(s string) string {
	return Default().Sanitize(s)
}

func (s *Sanitizer) buildPipeline() *Pipeline {
	t := s.tables
	return NewPipeline(
		NewStage("strip-invisibles", func(in string) string {
			return StripInvisibles(in, true)
		}),
		NewStage("percent-decode", func(in string) string {
			return percentDecode(in, s.maxPasses)
		}),
		NewStage("decode-entities", func(in string) string {
			return decodeTagLines(convertAttributes(in), s.marker, s.maxPasses)
		}),
		NewStage("strip-decoded-invisibles", func(in string) string {
			return StripInvisibles(in, true)
		}),
		NewStage("tabs-to-spaces", func(in string) string {
			return strings.ReplaceAll(in, "\t", " ")
		}),
		NewStage("never-allowed", t.neverAllowed),
		NewStage("processing-instructions", escapeInstructions),
		NewStage("compact-words", func(in string) string {
			return t.compactWords(in, s.maxPasses)
		}),
		NewStage("defang-links", func(in string) string {
			return t.defangLinks(in, s.maxPasses)
		}),
		NewStage("sanitize-tags", func(in string) string {
			return fixpoint(in, s.maxPasses, t.sanitizeTags)
		}),
		NewStage("defang-calls", t.defangCalls),
		NewStage("never-allowed-final", t.neverAllowed),
	)
}

// Version returns the version label of the tables s was built from.
func (s *Sanitizer) Version() string {
	return s.tables.version
}

// Sanitize returns in with every known dangerous construct reduced to inert
// text. It never fails; malformed input is normalized best-effort.
func (s *Sanitizer) Sanitize(in string) string {
	return s.pipeline.Run(in)
}

// Explain sanitizes in and reports which pipeline stages changed it.
func (s *Sanitizer) Explain(in string) Result {
	return s.pipeline.Process(in)
}

// SanitizeSlice sanitizes every element of in, preserving order.
func (s *Sanitizer) SanitizeSlice(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = s.Sanitize(v)
	}
	return out
}

// SanitizeMap sanitizes every value of in. Keys are left as they are.
func (s *Sanitizer) SanitizeMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = s.Sanitize(v)
	}
	return out
}

// SanitizeValue sanitizes every string leaf of v, recursing into slices and
// string-keyed maps as produced by encoding/json. Other values are
// returned unchanged.
func (s *Sanitizer) SanitizeValue(v any) any {
	switch v := v.(type) {
	case string:
		return s.Sanitize(v)
	case []string:
		return s.SanitizeSlice(v)
	case map[string]string:
		return s.SanitizeMap(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = s.SanitizeValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = s.SanitizeValue(e)
		}
		return out
	default:
		return v
	}
}
