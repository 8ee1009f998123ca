// Package transform derives a view of form data by applying functions
// registered per field path. The canonical data is never modified.
package transform

import (
	"sort"

	"github.com/reoring/formskema/internal/jsonvalue"
	"github.com/reoring/formskema/tree"
)

// Func maps the original value at a path to its view value.
type Func func(original any) any

// Registry holds the registered functions. The zero value is empty and ready
// to use. Registries are persistent: Merge returns a new value.
type Registry struct{ root *tree.Node[Func] }

// At returns a registry with fn registered at path.
func At(fn Func, path ...string) Registry {
	root := &tree.Node[Func]{}
	root.EnsurePath(path).Value = fn
	return Registry{root: root}
}

// FromMap builds a registry from nested maps whose leaves are Func values
// (or plain func(any) any). Other leaf values are ignored.
func FromMap(m map[string]any) Registry {
	root := &tree.Node[Func]{}
	fillFuncs(root, m)
	return Registry{root: root}
}

func fillFuncs(n *tree.Node[Func], m map[string]any) {
	for _, k := range jsonvalue.SortedKeys(m) {
		switch v := m[k].(type) {
		case Func:
			n.Ensure(k).Value = v
		case func(any) any:
			n.Ensure(k).Value = v
		case map[string]any:
			fillFuncs(n.Ensure(k), v)
		}
	}
}

// Merge returns a registry holding the functions of r and other. Where both
// register a function at the same path, other's wins.
func (r Registry) Merge(other Registry) Registry {
	return Registry{root: tree.Merge(r.root, other.root, func(x, y Func) Func {
		if y != nil {
			return y
		}
		return x
	})}
}

// Len returns the number of registered functions.
func (r Registry) Len() int {
	n := 0
	r.each(func(tree.Path, Func) { n++ })
	return n
}

// Paths lists the registered paths in application order.
func (r Registry) Paths() []tree.Path {
	var out []tree.Path
	r.each(func(p tree.Path, _ Func) { out = append(out, p) })
	return out
}

// each visits registered functions in pre-order with sorted siblings.
func (r Registry) each(fn func(tree.Path, Func)) {
	if r.root == nil {
		return
	}
	var walk func(p tree.Path, n *tree.Node[Func])
	walk = func(p tree.Path, n *tree.Node[Func]) {
		if n.Value != nil {
			fn(p, n.Value)
		}
		keys := n.Keys()
		sort.Strings(keys)
		for _, k := range keys {
			c, _ := n.Child(k)
			walk(p.Child(k), c)
		}
	}
	walk(nil, r.root)
}

// Apply returns a deep copy of data in which the value at every registered
// path that exists in data is replaced by the function's result. Each function
// receives a copy of the original value at its path.
func (r Registry) Apply(data any) any {
	out := jsonvalue.DeepCopy(data)
	r.each(func(p tree.Path, fn Func) {
		orig, ok := jsonvalue.Get(data, p)
		if !ok || !jsonvalue.Has(out, p) {
			return
		}
		out = jsonvalue.Set(out, p, fn(jsonvalue.DeepCopy(orig)))
	})
	return out
}
