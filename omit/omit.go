// Package omit strips form data down to the fields a schema knows about.
package omit

import (
	"sort"
	"strconv"

	"github.com/reoring/formskema/internal/jsonvalue"
	"github.com/reoring/formskema/tree"
)

// Filter returns the part of data addressed by leafPaths. A leaf keeps its
// whole value; containers keep only the children on some path. Arrays are
// re-indexed densely. A scalar root with no paths is returned unchanged.
// data is never modified.
func Filter(data any, leafPaths []tree.Path) any {
	if len(leafPaths) == 0 && !jsonvalue.IsObject(data) && !jsonvalue.IsArray(data) {
		return data
	}
	trie := &tree.Node[bool]{}
	for _, p := range leafPaths {
		trie.EnsurePath(p).Value = true
	}
	if trie.Value {
		return jsonvalue.DeepCopy(data)
	}
	switch data.(type) {
	case map[string]any:
		out, ok := filter(data, trie)
		if !ok {
			return map[string]any{}
		}
		return out
	case []any:
		out, ok := filter(data, trie)
		if !ok {
			return []any{}
		}
		return out
	}
	return data
}

func filter(v any, n *tree.Node[bool]) (any, bool) {
	if n.Value {
		return jsonvalue.DeepCopy(v), true
	}
	switch t := v.(type) {
	case map[string]any:
		out := map[string]any{}
		for _, k := range n.Keys() {
			cv, ok := t[k]
			if !ok {
				continue
			}
			c, _ := n.Child(k)
			if fv, keep := filter(cv, c); keep {
				out[k] = fv
			}
		}
		return out, len(out) > 0
	case []any:
		type entry struct {
			i int
			c *tree.Node[bool]
		}
		entries := make([]entry, 0, n.Len())
		for _, k := range n.Keys() {
			i, err := strconv.Atoi(k)
			if err != nil || i < 0 || i >= len(t) {
				continue
			}
			c, _ := n.Child(k)
			entries = append(entries, entry{i: i, c: c})
		}
		sort.SliceStable(entries, func(a, b int) bool { return entries[a].i < entries[b].i })
		out := make([]any, 0, len(entries))
		for _, e := range entries {
			if fv, keep := filter(t[e.i], e.c); keep {
				out = append(out, fv)
			}
		}
		return out, len(out) > 0
	}
	return nil, false
}
