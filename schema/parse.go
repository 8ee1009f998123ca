package schema

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/reoring/formskema/internal/jsonvalue"
)

// Parse builds a Schema from a Go value. Accepted inputs are *Schema,
// map[string]any, a boolean schema, JSON text ([]byte or string) and any
// value that encodes to a JSON object.
func Parse(v any) (*Schema, error) {
	switch t := v.(type) {
	case nil:
		return nil, fmt.Errorf("schema: %w", ErrInvalidSchema)
	case *Schema:
		return t, nil
	case bool:
		return fromValue(t), nil
	case []byte:
		return ParseJSON(t)
	case string:
		return ParseJSON([]byte(t))
	}
	norm, err := jsonvalue.Normalize(v)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	return fromDocument(norm)
}

// ParseJSON decodes a JSON Schema document.
func ParseJSON(b []byte) (*Schema, error) {
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("schema: decode json: %w", err)
	}
	return fromDocument(doc)
}

// ParseYAML decodes a YAML JSON Schema document. Duplicate mapping keys are
// rejected with *DuplicateKeyError.
func ParseYAML(b []byte) (*Schema, error) {
	doc, err := DecodeYAML(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("schema: decode yaml: %w", err)
	}
	norm, err := jsonvalue.Normalize(doc)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	return fromDocument(norm)
}

func fromDocument(doc any) (*Schema, error) {
	switch t := doc.(type) {
	case map[string]any:
		return newSchema(t), nil
	case bool:
		return fromValue(t), nil
	}
	return nil, fmt.Errorf("schema: %w: document is %s, want object", ErrInvalidSchema, jsonvalue.GuessType(doc))
}
