package schema

import (
	"slices"
	"strconv"

	"github.com/reoring/formskema/tree"
)

// Trail records the references expanded on the current descent path. The zero
// value (nil) is the empty trail.
type Trail struct {
	parent *Trail
	ref    string
}

// Contains reports whether ref was expanded above the current node.
func (t *Trail) Contains(ref string) bool {
	for cur := t; cur != nil; cur = cur.parent {
		if cur.ref == ref {
			return true
		}
	}
	return false
}

func (t *Trail) push(refs ...string) *Trail {
	out := t
	for _, ref := range refs {
		if out.Contains(ref) {
			continue
		}
		out = &Trail{parent: out, ref: ref}
	}
	return out
}

// Step resolves s for a node reached while descending. It returns a nil schema
// when resolving s would re-enter a reference already on trail and no data
// backs the node, which is where expansion of a recursive schema stops.
func (r *Resolver) Step(s *Schema, data any, present bool, trail *Trail) (*Schema, *Trail, error) {
	if !present && s.kind == KindRef && trail.Contains(s.Ref()) {
		return nil, trail, nil
	}
	var used []string
	rs, err := r.resolve(s, data, nil, &used)
	if err != nil {
		return nil, trail, err
	}
	if !present && slices.ContainsFunc(used, trail.Contains) {
		return nil, trail, nil
	}
	return rs, trail.push(used...), nil
}

// Visit describes one node reached by Build.
type Visit struct {
	Path tree.Path
	// Schema is the resolved node, or nil where a recursive reference stopped
	// the expansion.
	Schema   *Schema
	Data     any
	Present  bool
	Children int
}

// Build walks the shape of s and data and returns a tree whose node values are
// produced by visit. Object nodes descend into declared properties (after
// resolution, so stubbed additional properties included); array nodes descend
// into the elements present in data. visit runs after a node's children.
func Build[T any](r *Resolver, s *Schema, data any, present bool, visit func(Visit) T) (*tree.Node[T], error) {
	return build(r, s, data, present, nil, nil, visit)
}

func build[T any](r *Resolver, s *Schema, data any, present bool, path tree.Path, trail *Trail, visit func(Visit) T) (*tree.Node[T], error) {
	rs, next, err := r.Step(s, data, present, trail)
	if err != nil {
		return nil, err
	}
	n := &tree.Node[T]{}
	if rs != nil {
		switch rs.Kind() {
		case KindObject:
			obj, _ := data.(map[string]any)
			for _, name := range rs.Properties() {
				child, _ := rs.Property(name)
				cv, cp := obj[name]
				c, err := build(r, child, cv, cp, path.Child(name), next, visit)
				if err != nil {
					return nil, err
				}
				n.Set(name, c)
			}
		case KindArray:
			arr, _ := data.([]any)
			for i, el := range arr {
				item, ok := rs.Items(i)
				if !ok {
					item = newSchema(nil)
				}
				key := strconv.Itoa(i)
				c, err := build(r, item, el, true, path.Child(key), next, visit)
				if err != nil {
					return nil, err
				}
				n.Set(key, c)
			}
		}
	}
	n.Value = visit(Visit{Path: path, Schema: rs, Data: data, Present: present, Children: n.Len()})
	return n, nil
}
