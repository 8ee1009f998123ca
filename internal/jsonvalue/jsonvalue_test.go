package jsonvalue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/formskema/internal/jsonvalue"
)

func TestDeepCopy_Independent(t *testing.T) {
	src := map[string]any{"a": []any{map[string]any{"b": 1.0}}}
	cp := jsonvalue.DeepCopy(src).(map[string]any)
	cp["a"].([]any)[0].(map[string]any)["b"] = 2.0
	assert.Equal(t, 1.0, src["a"].([]any)[0].(map[string]any)["b"])
}

func TestNormalize_Numbers(t *testing.T) {
	v, err := jsonvalue.Normalize(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0}, v)
	assert.True(t, jsonvalue.Equal(1, 1.0))
	assert.False(t, jsonvalue.Equal(map[string]any{"a": 1}, map[string]any{"a": 2}))
}

func TestGetSet(t *testing.T) {
	doc := map[string]any{"list": []any{map[string]any{"n": "x"}}}
	v, ok := jsonvalue.Get(doc, []string{"list", "0", "n"})
	require.True(t, ok)
	assert.Equal(t, "x", v)
	assert.False(t, jsonvalue.Has(doc, []string{"list", "1"}))
	assert.False(t, jsonvalue.Has(doc, []string{"list", "n"}))

	out := jsonvalue.Set(jsonvalue.DeepCopy(doc), []string{"list", "0", "n"}, "y")
	v, _ = jsonvalue.Get(out, []string{"list", "0", "n"})
	assert.Equal(t, "y", v)
	assert.Equal(t, "z", jsonvalue.Set(doc, nil, "z"))
}

func TestMerge(t *testing.T) {
	a := map[string]any{"o": map[string]any{"x": 1.0}, "l": []any{1.0}}
	b := map[string]any{"o": map[string]any{"y": 2.0}, "l": []any{2.0}}

	got := jsonvalue.Merge(a, b, false)
	assert.Equal(t, map[string]any{"o": map[string]any{"x": 1.0, "y": 2.0}, "l": []any{2.0}}, got)

	got = jsonvalue.Merge(a, b, true)
	assert.Equal(t, []any{1.0, 2.0}, got.(map[string]any)["l"])
	assert.Equal(t, map[string]any{"x": 1.0}, a["o"], "input must not change")
}

func TestGuessType(t *testing.T) {
	cases := map[string]any{
		"null":    nil,
		"object":  map[string]any{},
		"array":   []any{},
		"string":  "s",
		"boolean": true,
		"number":  1.5,
	}
	for want, v := range cases {
		assert.Equal(t, want, jsonvalue.GuessType(v))
	}
}

func TestSortedKeysAndCanonicalKey(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, jsonvalue.SortedKeys(map[string]int{"c": 1, "a": 2, "b": 3}))
	k1, err := jsonvalue.CanonicalKey(map[string]any{"b": 1, "a": 2})
	require.NoError(t, err)
	k2, _ := jsonvalue.CanonicalKey(map[string]any{"a": 2, "b": 1})
	assert.Equal(t, k1, k2)
}
