package dive

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// record indexes a loosely typed payload by canonical key so lookups are
// insensitive to casing, underscores, hyphens and spaces.
type record map[string]any

func newRecord(raw map[string]any) record {
	r := make(record, len(raw))
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	// first writer wins on canonical collisions; sort so that is deterministic
	sort.Strings(keys)
	for _, k := range keys {
		ck := canonicalKey(k)
		if _, exists := r[ck]; exists {
			continue
		}
		r[ck] = raw[k]
	}
	return r
}

// get returns the first non-null value stored under any of the aliases.
func (r record) get(aliases ...string) (any, bool) {
	for _, a := range aliases {
		if v, ok := r[canonicalKey(a)]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (r record) number(aliases ...string) *float64 {
	v, ok := r.get(aliases...)
	if !ok {
		return nil
	}
	return toNumber(v)
}

func (r record) count(aliases ...string) *int {
	n := r.number(aliases...)
	if n == nil || *n < 0 {
		return nil
	}
	i := int(math.Round(*n))
	return &i
}

func (r record) text(aliases ...string) *string {
	v, ok := r.get(aliases...)
	if !ok {
		return nil
	}
	return toText(v)
}

func (r record) list(aliases ...string) []string {
	v, ok := r.get(aliases...)
	if !ok {
		return nil
	}
	return toStringList(v)
}

func (r record) nested(aliases ...string) (record, bool) {
	v, ok := r.get(aliases...)
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	return newRecord(m), true
}

func canonicalKey(k string) string {
	var b strings.Builder
	b.Grow(len(k))
	for _, c := range strings.ToLower(k) {
		switch c {
		case '_', '-', ' ', '.':
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// toNumber coerces numbers and numeric-looking strings. Anything else,
// including NaN and ±Inf, becomes nil.
func toNumber(v any) *float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func toText(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// toIdentifier accepts string or numeric identifiers.
func toIdentifier(v any) string {
	if s := toText(v); s != nil {
		return *s
	}
	switch v.(type) {
	case float64, float32, int, int32, int64, json.Number:
		if n := toNumber(v); n != nil {
			return strconv.FormatFloat(*n, 'f', -1, 64)
		}
	}
	return ""
}

// toStringList keeps non-blank string entries. A plain string is read as a
// comma separated list, which older clients sent.
func toStringList(v any) []string {
	var out []string
	switch items := v.(type) {
	case []any:
		for _, item := range items {
			if s := toText(item); s != nil {
				out = append(out, *s)
			}
		}
	case []string:
		for _, item := range items {
			if s := toText(item); s != nil {
				out = append(out, *s)
			}
		}
	case string:
		for _, part := range strings.Split(items, ",") {
			if s := toText(part); s != nil {
				out = append(out, *s)
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// CoerceBool reads a loosely typed flag. Unknown shapes are false.
func CoerceBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "1", "yes", "y", "on":
			return true
		}
	case float64:
		return b == 1
	case json.Number:
		return b.String() == "1"
	}
	return false
}

// normalizeDate returns YYYY-MM-DD for recognised timestamp formats and the
// trimmed input otherwise.
func normalizeDate(s *string) *string {
	if s == nil {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02", "2006/01/02"} {
		if t, err := time.Parse(layout, *s); err == nil {
			d := t.Format("2006-01-02")
			return &d
		}
	}
	return s
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

func scale(v *float64, factor float64) *float64 {
	if v == nil {
		return nil
	}
	out := round1(*v * factor)
	return &out
}

func fahrenheitToCelsius(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := round1((*v - 32) * 5 / 9)
	return &out
}
