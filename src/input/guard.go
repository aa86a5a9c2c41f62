package input

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"strings"

	"github.com/Easy-Infra-Ltd/easy-input-guard/src/sanitizer"
)

// ErrValueTooLarge is returned when a single input value exceeds the
// guard's byte limit.
var ErrValueTooLarge = errors.New("input value exceeds size limit")

// Source is one named set of request values, such as a query string or
// a form body.
type Source struct {
	Name   string
	Values url.Values
}

// GuardOptions configures a Guard.
type GuardOptions struct {
	// Exclude names fields whose values are passed through untouched.
	Exclude []string

	// MaxValueBytes rejects any single value longer than this. Zero
	// means no limit.
	MaxValueBytes int
}

// Guard sanitizes every value of the sources handed to it, except for
// explicitly excluded field names.
type Guard struct {
	san           *sanitizer.Sanitizer
	exclude       map[string]struct{}
	maxValueBytes int
	logger        *slog.Logger
}

// NewGuard creates a Guard that cleans values with san.
func NewGuard(san *sanitizer.Sanitizer, opts GuardOptions, logger *slog.Logger) *Guard {
	g := &Guard{
		san:           san,
		exclude:       make(map[string]struct{}, len(opts.Exclude)),
		maxValueBytes: opts.MaxValueBytes,
		logger:        logger.With("area", "input"),
	}
	for _, name := range opts.Exclude {
		g.exclude[name] = struct{}{}
	}
	return g
}

// Excluding returns a copy of g that additionally passes the named fields
// through untouched.
func (g *Guard) Excluding(names ...string) *Guard {
	if len(names) == 0 {
		return g
	}
	c := *g
	c.exclude = maps.Clone(g.exclude)
	for _, name := range names {
		c.exclude[name] = struct{}{}
	}
	return &c
}

// Clean returns a copy of src with every value trimmed and sanitized.
// Excluded fields are copied as they are.
func (g *Guard) Clean(src Source) (Source, error) {
	out := Source{Name: src.Name, Values: make(url.Values, len(src.Values))}

	for key, values := range src.Values {
		if _, skip := g.exclude[key]; skip {
			out.Values[key] = append([]string(nil), values...)
			continue
		}

		cleaned := make([]string, len(values))
		for i, v := range values {
			if g.maxValueBytes > 0 && len(v) > g.maxValueBytes {
				return Source{}, fmt.Errorf("%s field %q: %d bytes: %w", src.Name, key, len(v), ErrValueTooLarge)
			}
			cleaned[i] = g.san.Sanitize(strings.TrimSpace(v))
			if cleaned[i] != v {
				g.logger.Debug("sanitized input value",
					"source", src.Name,
					"field", key,
					"bytes_in", len(v),
					"bytes_out", len(cleaned[i]),
				)
			}
		}
		out.Values[key] = cleaned
	}

	return out, nil
}

// CleanQuery parses raw as a URL query string, cleans it, and returns it
// re-encoded with keys sorted.
func (g *Guard) CleanQuery(raw string) (string, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return "", fmt.Errorf("parsing query: %w", err)
	}
	cleaned, err := g.Clean(Source{Name: "query", Values: values})
	if err != nil {
		return "", err
	}
	return cleaned.Values.Encode(), nil
}

// Request cleans the query string and any URL-encoded form body of r in
// place. Request bodies of other content types are left unread.
func (g *Guard) Request(r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("parsing form: %w", err)
	}

	query, err := g.Clean(Source{Name: "query", Values: r.URL.Query()})
	if err != nil {
		return err
	}
	post, err := g.Clean(Source{Name: "form", Values: r.PostForm})
	if err != nil {
		return err
	}

	r.URL.RawQuery = query.Values.Encode()
	r.PostForm = post.Values

	// Form holds body values first, then query values, as ParseForm does.
	form := make(url.Values, len(post.Values)+len(query.Values))
	for k, vs := range post.Values {
		form[k] = append(form[k], vs...)
	}
	for k, vs := range query.Values {
		form[k] = append(form[k], vs...)
	}
	r.Form = form

	return nil
}

// Middleware cleans every request before passing it to next. Requests
// whose input cannot be parsed are answered with 400, and requests
// carrying an oversized value with 413.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := g.Request(r); err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, ErrValueTooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			g.logger.Warn("rejected request input", "path", r.URL.Path, "status", status, "error", err)
			http.Error(w, http.StatusText(status), status)
			return
		}
		next.ServeHTTP(w, r)
	})
}
