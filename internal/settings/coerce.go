package settings

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

var ErrBadInput = errors.New("input does not match setting type")

// Coerce parses raw user input into the descriptor's value type. It is
// strict: a parse failure returns ErrBadInput. Callers that want the
// best-effort behavior use CoerceLenient.
func (d Descriptor) Coerce(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch d.Kind {
	case KindBool:
		switch strings.ToLower(raw) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fmt.Errorf("%w: %q is not true/false", ErrBadInput, raw)
	case KindInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrBadInput, raw)
		}
		return n, nil
	case KindSize:
		// Plain integers pass through; suffixed forms go through humanize.
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			if n < 0 {
				return nil, fmt.Errorf("%w: size cannot be negative", ErrBadInput)
			}
			return n, nil
		}
		n, err := humanize.ParseBytes(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a byte size", ErrBadInput, raw)
		}
		return int64(n), nil
	case KindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrBadInput, raw)
		}
		return f, nil
	case KindEnum:
		for _, o := range d.Options {
			if o == raw {
				return raw, nil
			}
		}
		return nil, fmt.Errorf("%w: %q not in %v", ErrBadInput, raw, d.Options)
	case KindList:
		return parseList(raw), nil
	case KindString, KindSecret, KindPath, KindFile:
		return raw, nil
	}
	return nil, fmt.Errorf("%w: unknown kind %q", ErrBadInput, d.Kind)
}

// CoerceLenient applies the documented best-effort policy: numeric, size and
// enum kinds substitute the descriptor default on bad input instead of
// rejecting; bool stays strict; string-ish kinds accept anything.
func (d Descriptor) CoerceLenient(raw string) (any, error) {
	v, err := d.Coerce(raw)
	if err == nil {
		return v, nil
	}
	switch d.Kind {
	case KindInt, KindFloat, KindEnum, KindSize:
		return d.Default, nil
	}
	return nil, err
}

// parseList accepts a bracketed literal ([a, b]) or delimiter-separated text
// and normalizes to an ordered slice.
func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(strings.TrimSpace(f), `"'`)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// FormatValue renders a value for display. Secrets are not masked here;
// masking is a render concern (the store also uses this for persistence-free
// displays like export previews).
func (d Descriptor) FormatValue(v any) string {
	switch d.Kind {
	case KindSize:
		n, _ := v.(int64)
		if n <= 0 {
			return strconv.FormatInt(n, 10)
		}
		return humanize.IBytes(uint64(n))
	case KindList:
		l, _ := v.([]string)
		if len(l) == 0 {
			return "[]"
		}
		return "[" + strings.Join(l, ", ") + "]"
	case KindFloat:
		f, _ := v.(float64)
		return strconv.FormatFloat(f, 'g', -1, 64)
	case KindBool:
		b, _ := v.(bool)
		return strconv.FormatBool(b)
	case KindInt:
		n, _ := v.(int64)
		return strconv.FormatInt(n, 10)
	}
	s, _ := v.(string)
	return s
}

// MaskSecret shortens a sensitive value for display.
func MaskSecret(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "—"
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "…" + s[len(s)-2:]
}
