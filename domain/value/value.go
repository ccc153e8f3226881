// Package value provides the loose, dynamically-typed comparisons used when
// item data arrives as decoded JSON or YAML and its shape is only known once
// the schema describing it has been loaded.
package value

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Truthy reports whether v counts as present. nil, false, zero, NaN, the
// empty string, and empty slices or maps are all falsy.
func Truthy(v any) bool {
	if v == nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != ""
	}
	if n, ok := numeric(v); ok {
		return n != 0 && !math.IsNaN(n)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

// ToNumber coerces v to a number. Native numbers other than NaN pass through.
// Strings are accepted only when they are the exact canonical rendering of
// the number they parse to, so "2" and "-1.5" convert while "2.50", "1e3",
// " 7" and "007" do not.
func ToNumber(v any) (float64, bool) {
	if n, ok := numeric(v); ok {
		if math.IsNaN(n) {
			return 0, false
		}
		return n, true
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return 0, false
	}
	if strings.Contains(s, ".") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || strconv.FormatFloat(f, 'f', -1, 64) != s {
			return 0, false
		}
		return f, true
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil || strconv.FormatInt(i, 10) != s {
		return 0, false
	}
	return float64(i), true
}

// IsNumber reports whether v is a native numeric value (not a string).
func IsNumber(v any) bool {
	n, ok := numeric(v)
	return ok && !math.IsNaN(n)
}

// IsInteger reports whether v coerces to a whole number.
func IsInteger(v any) bool {
	n, ok := ToNumber(v)
	return ok && !math.IsInf(n, 0) && n == math.Trunc(n)
}

// IsPrimitive reports whether v is a string, number, or boolean.
func IsPrimitive(v any) bool {
	switch v.(type) {
	case string, bool:
		return true
	}
	return IsNumber(v)
}

// LooseEqual compares a and b the way a permissive equality operator would:
// numbers compare numerically, a string compared with a number is parsed as
// a number first, booleans count as 0 or 1 against numbers, and nil only
// equals nil.
func LooseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	as, aStr := a.(string)
	bs, bStr := b.(string)
	if aStr && bStr {
		return as == bs
	}
	ab, aBool := a.(bool)
	bb, bBool := b.(bool)
	if aBool && bBool {
		return ab == bb
	}
	an, aok := looseNumber(a)
	bn, bok := looseNumber(b)
	if aok && bok {
		return an == bn
	}
	if aok || bok {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// AsSlice returns v as a []any when it is any slice or array type.
func AsSlice(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if _, isBytes := v.([]byte); isBytes {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// AsMap returns v as a map[string]any when it is a map keyed by strings.
func AsMap(v any) (map[string]any, bool) {
	if v == nil {
		return nil, false
	}
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// numeric converts Go's numeric kinds (and json.Number) to float64.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// looseNumber is the numeric view used by LooseEqual: strings are trimmed
// and parsed, the empty string is zero, booleans are 0 or 1.
func looseNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	}
	n, ok := numeric(v)
	if !ok || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}
