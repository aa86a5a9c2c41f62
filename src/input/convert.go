// Package input applies the sanitizer to values arriving from outside the
// process: scalar conversion of single values and cleaning of whole named
// sources such as query strings and form bodies.
package input

import (
	"errors"
	"fmt"
	"math"
	"net/mail"
	"net/netip"
	"strconv"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/Easy-Infra-Ltd/easy-input-guard/src/sanitizer"
)

var (
	// ErrInvalid is returned when a value does not convert to the
	// requested kind.
	ErrInvalid = errors.New("invalid value")

	// ErrUnsupportedKind is returned for conversion kinds Convert does
	// not know.
	ErrUnsupportedKind = errors.New("unsupported conversion kind")
)

// Kind is a conversion target.
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindBool   Kind = "bool"
	KindEmail  Kind = "email"
	KindIP     Kind = "ip"
)

var kindAliases = map[string]Kind{
	"string": KindString, "str": KindString, "s": KindString,
	"int": KindInt, "integer": KindInt, "long": KindInt, "i": KindInt,
	"float": KindFloat, "floatval": KindFloat, "double": KindFloat,
	"number": KindFloat, "num": KindFloat, "dec": KindFloat,
	"decimal": KindFloat, "n": KindFloat,
	"bool": KindBool, "boolean": KindBool, "b": KindBool,
	"email": KindEmail, "mail": KindEmail, "e": KindEmail,
	"ip": KindIP,
}

// ParseKind resolves a kind name or one of its aliases, case-insensitively.
func ParseKind(name string) (Kind, error) {
	k, ok := kindAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%q: %w", name, ErrUnsupportedKind)
	}
	return k, nil
}

var strictPolicy = sync.OnceValue(bluemonday.StrictPolicy)

// Convert validates value as the named kind and returns it converted:
// string, int64, float64, bool, a bare e-mail address string, or an IP
// address string in canonical form. Strings have their markup stripped
// and are then run through san; a string that ends up empty is invalid.
func Convert(san *sanitizer.Sanitizer, value, kind string) (any, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return nil, err
	}

	v := strings.TrimSpace(value)
	switch k {
	case KindString:
		out := strings.TrimSpace(san.Sanitize(strictPolicy().Sanitize(v)))
		if out == "" {
			return nil, fmt.Errorf("string is empty after sanitizing: %w", ErrInvalid)
		}
		return out, nil

	case KindInt:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer: %w", v, ErrInvalid)
		}
		return n, nil

	case KindFloat:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%q is not a finite number: %w", v, ErrInvalid)
		}
		return f, nil

	case KindBool:
		switch strings.ToLower(v) {
		case "1", "true", "on", "yes":
			return true, nil
		case "0", "false", "off", "no", "":
			return false, nil
		}
		return nil, fmt.Errorf("%q is not a boolean: %w", v, ErrInvalid)

	case KindEmail:
		addr, err := mail.ParseAddress(v)
		if err != nil || addr.Name != "" || addr.Address != v {
			return nil, fmt.Errorf("%q is not a bare e-mail address: %w", v, ErrInvalid)
		}
		return addr.Address, nil

	case KindIP:
		ip, err := netip.ParseAddr(v)
		if err != nil || ip.Zone() != "" {
			return nil, fmt.Errorf("%q is not an IP address: %w", v, ErrInvalid)
		}
		return ip.String(), nil
	}

	return nil, fmt.Errorf("%q: %w", kind, ErrUnsupportedKind)
}
