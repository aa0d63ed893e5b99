package normalize

import (
	"strconv"
	"strings"
)

// Raw is an upstream record before normalization: arbitrary JSON keys,
// heterogeneous value types. Only this package inspects raw keys.
type Raw map[string]interface{}

// Float coerces any JSON value to a float. Returns nil instead of an
// error: upstream fields routinely arrive as strings, nulls, or garbage.
func Float(v interface{}) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	case int64:
		f := float64(n)
		return &f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil
		}
		return &f
	}
	return nil
}

// Int coerces any JSON value to an int, accepting string numbers and
// float-typed integers. Returns nil on failure.
func Int(v interface{}) *int {
	f := Float(v)
	if f == nil {
		return nil
	}
	i := int(*f)
	return &i
}

// String coerces to a trimmed, non-empty string, or nil.
func String(v interface{}) *string {
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

// first returns the value of the first candidate key that is present and
// non-null.
func (r Raw) first(keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// firstString applies String over an ordered key preference list.
func (r Raw) firstString(keys ...string) *string {
	for _, k := range keys {
		if s := String(r[k]); s != nil {
			return s
		}
	}
	return nil
}

// firstFloat applies Float over an ordered key preference list.
func (r Raw) firstFloat(keys ...string) *float64 {
	for _, k := range keys {
		if f := Float(r[k]); f != nil {
			return f
		}
	}
	return nil
}

// firstInt applies Int over an ordered key preference list.
func (r Raw) firstInt(keys ...string) *int {
	for _, k := range keys {
		if i := Int(r[k]); i != nil {
			return i
		}
	}
	return nil
}
