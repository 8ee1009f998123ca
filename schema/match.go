package schema

import (
	"math"

	"github.com/reoring/formskema/internal/jsonvalue"
)

// basicMatcher is the Matcher used when no validator is injected. It checks
// type, enum, const, required and, recursively, declared properties.
type basicMatcher struct{}

func (basicMatcher) Matches(data any, s *Schema) bool { return matchRaw(data, s.raw, 0) }

func matchRaw(data any, raw map[string]any, depth int) bool {
	if depth > 32 {
		return true
	}
	if t, ok := raw["type"]; ok && !matchType(data, t) {
		return false
	}
	if enum, ok := raw["enum"].([]any); ok {
		found := false
		for _, e := range enum {
			if jsonvalue.Equal(e, data) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if c, ok := raw["const"]; ok && !jsonvalue.Equal(c, data) {
		return false
	}
	obj, isObj := data.(map[string]any)
	if !isObj {
		return true
	}
	for _, name := range toStrings(raw["required"]) {
		if _, ok := obj[name]; !ok {
			return false
		}
	}
	props, _ := raw["properties"].(map[string]any)
	for name, ps := range props {
		v, ok := obj[name]
		if !ok {
			continue
		}
		if pm, ok := ps.(map[string]any); ok && !matchRaw(v, pm, depth+1) {
			return false
		}
	}
	return true
}

func matchType(data any, t any) bool {
	switch tt := t.(type) {
	case string:
		return isType(data, tt)
	case []any:
		for _, it := range tt {
			if s, ok := it.(string); ok && isType(data, s) {
				return true
			}
		}
		return false
	}
	return true
}

func isType(data any, t string) bool {
	got := jsonvalue.GuessType(data)
	switch t {
	case "integer":
		if got != "number" {
			return false
		}
		n, err := jsonvalue.Normalize(data)
		if err != nil {
			return false
		}
		f, ok := n.(float64)
		return ok && f == math.Trunc(f)
	case "number":
		return got == "number"
	}
	return got == t
}
