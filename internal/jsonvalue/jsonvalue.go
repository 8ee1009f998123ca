// Package jsonvalue holds helpers for JSON-compatible Go values
// (map[string]any, []any, string, numbers, bool, nil).
package jsonvalue

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"

	json "github.com/goccy/go-json"
)

// IsObject reports whether v is a JSON object.
func IsObject(v any) bool {
	_, ok := v.(map[string]any)
	return ok
}

// IsArray reports whether v is a JSON array.
func IsArray(v any) bool {
	_, ok := v.([]any)
	return ok
}

// DeepCopy copies maps and slices recursively. Scalars are returned as-is.
func DeepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = DeepCopy(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = DeepCopy(t[i])
		}
		return out
	default:
		return v
	}
}

// Normalize converts v into the canonical shape produced by decoding JSON:
// objects become map[string]any, arrays []any and numbers float64.
func Normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("jsonvalue: marshal: %w", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("jsonvalue: unmarshal: %w", err)
	}
	return out, nil
}

// Equal compares two values after normalization, so 1 and 1.0 are equal.
func Equal(a, b any) bool {
	na, err := Normalize(a)
	if err != nil {
		return false
	}
	nb, err := Normalize(b)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(na, nb)
}

// CanonicalKey returns a stable string for v (object keys sorted by the encoder).
func CanonicalKey(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value at path. Array segments must be decimal indexes.
func Get(v any, path []string) (any, bool) {
	cur := v
	for _, seg := range path {
		switch t := cur.(type) {
		case map[string]any:
			next, ok := t[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(t) {
				return nil, false
			}
			cur = t[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Has reports whether path exists in v.
func Has(v any, path []string) bool {
	_, ok := Get(v, path)
	return ok
}

// Set stores val at path inside v, mutating the containers along the way, and
// returns the possibly replaced root. The path must already exist except for
// its last segment on objects. Callers own v (typically a fresh DeepCopy).
func Set(v any, path []string, val any) any {
	if len(path) == 0 {
		return val
	}
	switch t := v.(type) {
	case map[string]any:
		child := t[path[0]]
		t[path[0]] = Set(child, path[1:], val)
		return t
	case []any:
		i, err := strconv.Atoi(path[0])
		if err != nil || i < 0 || i >= len(t) {
			return t
		}
		t[i] = Set(t[i], path[1:], val)
		return t
	default:
		return v
	}
}

// GuessType returns the JSON Schema type name describing v.
func GuessType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, json.Number:
		return "number"
	default:
		return "string"
	}
}

// Merge deep-merges b into a copy of a. Objects merge key by key; arrays are
// concatenated when concatArrays is set and replaced otherwise; any other b
// value wins.
func Merge(a, b any, concatArrays bool) any {
	am, aok := a.(map[string]any)
	bm, bok := b.(map[string]any)
	if aok && bok {
		out := DeepCopy(am).(map[string]any)
		for k, bv := range bm {
			if av, ok := out[k]; ok {
				out[k] = Merge(av, bv, concatArrays)
				continue
			}
			out[k] = DeepCopy(bv)
		}
		return out
	}
	if concatArrays {
		aa, aok := a.([]any)
		ba, bok := b.([]any)
		if aok && bok {
			out := make([]any, 0, len(aa)+len(ba))
			out = append(out, DeepCopy(aa).([]any)...)
			return append(out, DeepCopy(ba).([]any)...)
		}
	}
	return DeepCopy(b)
}
