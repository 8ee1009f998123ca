// Package schema parses JSON Schema documents into immutable, classified nodes
// and resolves them against form data: $ref / definitions, dependencies,
// allOf and additionalProperties.
//
// A Schema is classified once, when it is constructed, into one of the Kind
// variants. Callers switch on Kind instead of re-inspecting "type" at every
// call site. Children are constructed on demand, so a recursive document is
// never expanded eagerly.
package schema

import (
	"sort"

	json "github.com/goccy/go-json"

	"github.com/reoring/formskema/internal/jsonvalue"
)

// Kind is the closed set of schema node variants.
type Kind int

const (
	KindScalar Kind = iota // string, number, integer, boolean, null or untyped leaf
	KindObject             // type object, or declares properties
	KindArray              // type array, or declares items
	KindRef                // carries a $ref that has not been resolved yet
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindRef:
		return "ref"
	default:
		return "scalar"
	}
}

// AdditionalPropertyFlag marks property schemas stubbed from additionalProperties.
const AdditionalPropertyFlag = "__additional_property"

// Schema is an immutable JSON Schema node.
type Schema struct {
	kind Kind
	raw  map[string]any
}

// newSchema wraps raw without copying. raw must not be modified afterwards.
func newSchema(raw map[string]any) *Schema {
	if raw == nil {
		raw = map[string]any{}
	}
	return &Schema{kind: classify(raw), raw: raw}
}

// fromValue builds a node from a JSON Schema value (object or boolean schema).
func fromValue(v any) *Schema {
	switch t := v.(type) {
	case map[string]any:
		return newSchema(t)
	case bool:
		if !t {
			return newSchema(map[string]any{"not": map[string]any{}})
		}
	}
	return newSchema(nil)
}

func classify(raw map[string]any) Kind {
	if ref, ok := raw["$ref"].(string); ok && ref != "" {
		return KindRef
	}
	switch typeOf(raw) {
	case "object":
		return KindObject
	case "array":
		return KindArray
	case "":
		if _, ok := raw["properties"]; ok {
			return KindObject
		}
		if _, ok := raw["items"]; ok {
			return KindArray
		}
	}
	return KindScalar
}

// typeOf returns the declared type; for a type list the first non-null entry.
func typeOf(raw map[string]any) string {
	switch t := raw["type"].(type) {
	case string:
		return t
	case []any:
		for _, it := range t {
			if s, ok := it.(string); ok && s != "null" {
				return s
			}
		}
		if len(t) > 0 {
			s, _ := t[0].(string)
			return s
		}
	}
	return ""
}

// Kind returns the node variant.
func (s *Schema) Kind() Kind { return s.kind }

// Ref returns the $ref pointer, or "".
func (s *Schema) Ref() string {
	ref, _ := s.raw["$ref"].(string)
	return ref
}

// Type returns the declared type ("" when absent).
func (s *Schema) Type() string { return typeOf(s.raw) }

// Keyword returns a copy of a raw keyword value.
func (s *Schema) Keyword(name string) (any, bool) {
	v, ok := s.raw[name]
	if !ok {
		return nil, false
	}
	return jsonvalue.DeepCopy(v), true
}

// Has reports whether the keyword is present.
func (s *Schema) Has(name string) bool {
	_, ok := s.raw[name]
	return ok
}

// Default returns a copy of the node's own default value.
func (s *Schema) Default() (any, bool) {
	v, ok := s.raw["default"]
	if !ok {
		return nil, false
	}
	return jsonvalue.DeepCopy(v), true
}

// Properties returns the declared property names in sorted order.
func (s *Schema) Properties() []string {
	pm, _ := s.raw["properties"].(map[string]any)
	return jsonvalue.SortedKeys(pm)
}

// Property returns the schema of a declared property.
func (s *Schema) Property(name string) (*Schema, bool) {
	pm, _ := s.raw["properties"].(map[string]any)
	v, ok := pm[name]
	if !ok {
		return nil, false
	}
	return fromValue(v), true
}

// Items returns the schema for the array element at index i, honoring tuple
// items and additionalItems.
func (s *Schema) Items(i int) (*Schema, bool) {
	switch t := s.raw["items"].(type) {
	case map[string]any, bool:
		return fromValue(t), true
	case []any:
		if i >= 0 && i < len(t) {
			return fromValue(t[i]), true
		}
		switch ai := s.raw["additionalItems"].(type) {
		case map[string]any:
			return fromValue(ai), true
		case bool:
			if ai {
				return newSchema(nil), true
			}
		}
	}
	return nil, false
}

// IsTuple reports whether items is a list of positional schemas.
func (s *Schema) IsTuple() bool {
	_, ok := s.raw["items"].([]any)
	return ok
}

// Required returns the required property names.
func (s *Schema) Required() []string { return toStrings(s.raw["required"]) }

// MinItems returns minItems, or 0.
func (s *Schema) MinItems() int {
	switch n := s.raw["minItems"].(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	}
	return 0
}

// AdditionalProperties returns the schema applied to undeclared properties when
// they are allowed (an object schema, or true).
func (s *Schema) AdditionalProperties() (*Schema, bool) {
	switch t := s.raw["additionalProperties"].(type) {
	case map[string]any:
		return newSchema(t), true
	case bool:
		if t {
			return newSchema(nil), true
		}
	}
	return nil, false
}

// Options returns the subschemas of a oneOf (or, failing that, anyOf) keyword.
func (s *Schema) Options() []*Schema {
	list, ok := s.raw["oneOf"].([]any)
	if !ok {
		list, _ = s.raw["anyOf"].([]any)
	}
	out := make([]*Schema, 0, len(list))
	for _, v := range list {
		out = append(out, fromValue(v))
	}
	return out
}

// Raw returns a deep copy of the keyword map.
func (s *Schema) Raw() map[string]any {
	return jsonvalue.DeepCopy(s.raw).(map[string]any)
}

// With returns a copy of s with keyword name set to v.
func (s *Schema) With(name string, v any) *Schema {
	out := s.Raw()
	out[name] = jsonvalue.DeepCopy(v)
	return newSchema(out)
}

// WithDefinitionsFrom copies definitions and $defs from root when s lacks them,
// so that local pointers inside s still resolve when s is compiled on its own.
func (s *Schema) WithDefinitionsFrom(root *Schema) *Schema {
	if root == nil || root == s {
		return s
	}
	out := s
	for _, key := range []string{"definitions", "$defs"} {
		if s.Has(key) || !root.Has(key) {
			continue
		}
		out = out.With(key, root.raw[key])
	}
	return out
}

// MarshalJSON encodes the keyword map.
func (s *Schema) MarshalJSON() ([]byte, error) { return json.Marshal(s.raw) }

func toStrings(v any) []string {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, it := range t {
			if s, ok := it.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func without(raw map[string]any, keys ...string) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

func sortedDependencyKeys(deps map[string]any) []string {
	keys := make([]string, 0, len(deps))
	for k := range deps {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
