// Package tree provides the ordered tree shared by every structure that mirrors
// the shape of a schema or a value: id maps, path maps, error maps and view
// transformer registries.
//
// Nodes are treated as persistent values. Builders mutate a node only while
// constructing it; after it is handed out, changes go through Merge or Clone,
// which return new nodes and leave their inputs untouched.
package tree

import (
	"strings"
)

// Path addresses a node by its keys from the root. Array positions are decimal
// strings.
type Path []string

// Child returns a new path extended by key. The receiver is not modified.
func (p Path) Child(key string) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = key
	return out
}

// String renders the path with dots ("a.b.0"). The root renders as "".
func (p Path) String() string { return strings.Join(p, ".") }

// Equal reports whether p and q address the same node.
func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// Node is one node of an ordered tree. Children keep insertion order.
type Node[T any] struct {
	Value    T
	keys     []string
	children map[string]*Node[T]
}

// New returns a leaf node holding v.
func New[T any](v T) *Node[T] { return &Node[T]{Value: v} }

// Len returns the number of children.
func (n *Node[T]) Len() int {
	if n == nil {
		return 0
	}
	return len(n.keys)
}

// Keys returns the child keys in insertion order.
func (n *Node[T]) Keys() []string {
	if n == nil {
		return nil
	}
	return append([]string(nil), n.keys...)
}

// Child returns the child stored under key.
func (n *Node[T]) Child(key string) (*Node[T], bool) {
	if n == nil || n.children == nil {
		return nil, false
	}
	c, ok := n.children[key]
	return c, ok
}

// Lookup follows path from n.
func (n *Node[T]) Lookup(path ...string) (*Node[T], bool) {
	cur := n
	for _, k := range path {
		next, ok := cur.Child(k)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, cur != nil
}

// Set stores c under key, replacing an existing child in place (order kept).
// Only use it on nodes under construction.
func (n *Node[T]) Set(key string, c *Node[T]) {
	if n.children == nil {
		n.children = make(map[string]*Node[T])
	}
	if _, ok := n.children[key]; !ok {
		n.keys = append(n.keys, key)
	}
	n.children[key] = c
}

// Ensure returns the child under key, creating an empty one when missing.
// Only use it on nodes under construction.
func (n *Node[T]) Ensure(key string) *Node[T] {
	if c, ok := n.Child(key); ok {
		return c
	}
	c := &Node[T]{}
	n.Set(key, c)
	return c
}

// EnsurePath is Ensure applied along path.
func (n *Node[T]) EnsurePath(path Path) *Node[T] {
	cur := n
	for _, k := range path {
		cur = cur.Ensure(k)
	}
	return cur
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the children of that node.
func (n *Node[T]) Walk(fn func(path Path, node *Node[T]) bool) {
	if n == nil {
		return
	}
	n.walk(nil, fn)
}

func (n *Node[T]) walk(path Path, fn func(Path, *Node[T]) bool) {
	if !fn(path, n) {
		return
	}
	for _, k := range n.keys {
		n.children[k].walk(path.Child(k), fn)
	}
}

// Clone deep-copies the tree. copyValue may be nil when T needs no deep copy.
func (n *Node[T]) Clone(copyValue func(T) T) *Node[T] {
	if n == nil {
		return nil
	}
	out := &Node[T]{Value: n.Value}
	if copyValue != nil {
		out.Value = copyValue(n.Value)
	}
	for _, k := range n.keys {
		out.Set(k, n.children[k].Clone(copyValue))
	}
	return out
}

// Merge returns a new tree holding the structural union of a and b. Values of
// nodes present in both are combined with combine(a, b); children of a come
// first, followed by children only present in b. Neither input is modified.
func Merge[T any](a, b *Node[T], combine func(x, y T) T) *Node[T] {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		return b.Clone(nil)
	case b == nil:
		return a.Clone(nil)
	}
	out := &Node[T]{Value: combine(a.Value, b.Value)}
	for _, k := range a.keys {
		if bc, ok := b.Child(k); ok {
			out.Set(k, Merge(a.children[k], bc, combine))
			continue
		}
		out.Set(k, a.children[k].Clone(nil))
	}
	for _, k := range b.keys {
		if _, ok := a.Child(k); ok {
			continue
		}
		out.Set(k, b.children[k].Clone(nil))
	}
	return out
}
