package schema_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/formskema/schema"
	"github.com/reoring/formskema/tree"
)

func TestParse_Inputs(t *testing.T) {
	s, err := schema.Parse(map[string]any{"type": "object", "properties": map[string]any{"a": map[string]any{"type": "string"}}})
	require.NoError(t, err)
	assert.Equal(t, schema.KindObject, s.Kind())

	s, err = schema.Parse(`{"items": {"type": "string"}}`)
	require.NoError(t, err)
	assert.Equal(t, schema.KindArray, s.Kind())

	s, err = schema.Parse(false)
	require.NoError(t, err)
	assert.True(t, s.Has("not"))

	same, err := schema.Parse(s)
	require.NoError(t, err)
	assert.Same(t, s, same)

	type typed struct {
		Type string `json:"type"`
	}
	s, err = schema.Parse(typed{Type: "string"})
	require.NoError(t, err)
	assert.Equal(t, "string", s.Type())

	_, err = schema.Parse(nil)
	assert.True(t, errors.Is(err, schema.ErrInvalidSchema))
	_, err = schema.Parse(`[1, 2]`)
	assert.True(t, errors.Is(err, schema.ErrInvalidSchema))
}

func TestParse_NormalizesGoValues(t *testing.T) {
	s, err := schema.Parse(map[string]any{
		"type":  []string{"null", "array"},
		"items": []map[string]any{{"type": "string"}, {"type": "integer"}},
	})
	require.NoError(t, err)
	assert.Equal(t, schema.KindArray, s.Kind())
	assert.Equal(t, "array", s.Type())

	second, ok := s.Items(1)
	require.True(t, ok)
	assert.Equal(t, "integer", second.Type())
}

func TestSchema_Immutable(t *testing.T) {
	src := map[string]any{"type": "string", "default": map[string]any{"x": 1.0}}
	s, err := schema.Parse(src)
	require.NoError(t, err)
	src["type"] = "number"
	assert.Equal(t, "string", s.Type())

	d, ok := s.Default()
	require.True(t, ok)
	d.(map[string]any)["x"] = 2.0
	d2, _ := s.Default()
	assert.Equal(t, map[string]any{"x": 1.0}, d2)

	w := s.With("title", "T")
	assert.False(t, s.Has("title"))
	assert.True(t, w.Has("title"))
}

func TestSchema_TypeList(t *testing.T) {
	s, err := schema.Parse(`{"type": ["null", "object"]}`)
	require.NoError(t, err)
	assert.Equal(t, "object", s.Type())
	assert.Equal(t, schema.KindObject, s.Kind())
}

func TestSchema_TupleItems(t *testing.T) {
	s, err := schema.Parse(`{
		"type": "array",
		"items": [{"type": "string"}, {"type": "number"}],
		"additionalItems": {"type": "boolean"},
		"minItems": 2
	}`)
	require.NoError(t, err)
	assert.True(t, s.IsTuple())
	assert.Equal(t, 2, s.MinItems())
	for i, want := range []string{"string", "number", "boolean", "boolean"} {
		it, ok := s.Items(i)
		require.True(t, ok)
		assert.Equal(t, want, it.Type())
	}

	closed, _ := schema.Parse(`{"items": [{"type": "string"}]}`)
	_, ok := closed.Items(1)
	assert.False(t, ok)
}

func TestWithDefinitionsFrom(t *testing.T) {
	root, _ := schema.Parse(`{"definitions": {"x": {"type": "string"}}, "$defs": {"y": {}}}`)
	sub, _ := schema.Parse(`{"$ref": "#/definitions/x"}`)
	got := sub.WithDefinitionsFrom(root)
	assert.True(t, got.Has("definitions"))
	assert.True(t, got.Has("$defs"))
	assert.False(t, sub.Has("definitions"))
	assert.Same(t, root, root.WithDefinitionsFrom(root))
}

func TestParseYAML(t *testing.T) {
	doc := `
type: object
properties:
  age:
    type: integer
    minimum: 0
    default: 18
  enabled:
    type: boolean
    default: true
`
	s, err := schema.ParseYAML([]byte(doc))
	require.NoError(t, err)
	age, ok := s.Property("age")
	require.True(t, ok)
	d, _ := age.Default()
	assert.Equal(t, 18.0, d)
	en, _ := s.Property("enabled")
	d, _ = en.Default()
	assert.Equal(t, true, d)
}

func TestParseYAML_DuplicateKey(t *testing.T) {
	doc := "type: object\nproperties:\n  a:\n    type: string\n  a:\n    type: number\n"
	_, err := schema.ParseYAML([]byte(doc))
	var dk *schema.DuplicateKeyError
	require.ErrorAs(t, err, &dk)
	assert.Equal(t, "a", dk.Key)
	assert.Equal(t, 3, dk.FirstLine)
	assert.Equal(t, 5, dk.Line)
}

func TestDecodeYAML_Empty(t *testing.T) {
	v, err := schema.DecodeYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestBuild_StopsAtRecursion(t *testing.T) {
	s, err := schema.Parse(`{
		"definitions": {
			"node": {
				"type": "object",
				"properties": {"name": {"type": "string"}, "children": {"type": "array", "items": {"$ref": "#/definitions/node"}}, "next": {"$ref": "#/definitions/node"}}
			}
		},
		"$ref": "#/definitions/node"
	}`)
	require.NoError(t, err)
	r := schema.NewResolver(s)

	data := map[string]any{"next": map[string]any{"name": "b"}}
	var visited []string
	root, err := schema.Build(r, s, data, true, func(v schema.Visit) bool {
		visited = append(visited, v.Path.String())
		return v.Schema != nil
	})
	require.NoError(t, err)

	next, ok := root.Lookup("next")
	require.True(t, ok)
	assert.True(t, next.Value, "data-backed recursion expands")
	deeper, ok := next.Lookup("next")
	require.True(t, ok)
	assert.False(t, deeper.Value, "absent recursion stops")
	assert.Equal(t, 0, deeper.Len())
	assert.Contains(t, visited, "next.name")
	assert.Equal(t, "", visited[len(visited)-1], "post-order visit")
}

func TestBuild_ArrayElements(t *testing.T) {
	s, _ := schema.Parse(`{"type": "array", "items": {"type": "string"}}`)
	r := schema.NewResolver(s)
	n, err := schema.Build(r, s, []any{"a", "b"}, true, func(v schema.Visit) tree.Path { return v.Path })
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1"}, n.Keys())
	c, _ := n.Child("1")
	assert.Equal(t, tree.Path{"1"}, c.Value)
}

func TestTrail(t *testing.T) {
	var tr *schema.Trail
	assert.False(t, tr.Contains("#/a"))
}
