package tree_test

import (
	"reflect"
	"testing"

	"github.com/reoring/formskema/tree"
)

func TestPath_ChildDoesNotAlias(t *testing.T) {
	base := make(tree.Path, 1, 4)
	base[0] = "a"
	x := base.Child("x")
	y := base.Child("y")
	if x.String() != "a.x" || y.String() != "a.y" {
		t.Fatalf("unexpected paths: %q %q", x, y)
	}
	if !x.Equal(tree.Path{"a", "x"}) || x.Equal(y) {
		t.Fatalf("Equal mismatch")
	}
	if (tree.Path{}).String() != "" {
		t.Fatalf("root path should render empty")
	}
}

func TestNode_InsertionOrder(t *testing.T) {
	n := tree.New(0)
	n.Set("b", tree.New(1))
	n.Set("a", tree.New(2))
	n.Set("b", tree.New(3))
	if got := n.Keys(); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Fatalf("keys: %v", got)
	}
	c, ok := n.Child("b")
	if !ok || c.Value != 3 {
		t.Fatalf("replace kept old value: %+v", c)
	}
}

func TestNode_EnsurePathAndLookup(t *testing.T) {
	n := tree.New("")
	n.EnsurePath(tree.Path{"a", "b", "0"}).Value = "leaf"
	got, ok := n.Lookup("a", "b", "0")
	if !ok || got.Value != "leaf" {
		t.Fatalf("lookup failed: %v %v", got, ok)
	}
	if _, ok := n.Lookup("a", "x"); ok {
		t.Fatalf("lookup of missing path succeeded")
	}
	var nilNode *tree.Node[string]
	if nilNode.Len() != 0 || nilNode.Keys() != nil {
		t.Fatalf("nil node should be empty")
	}
}

func TestNode_WalkSkipsChildren(t *testing.T) {
	n := tree.New("root")
	n.EnsurePath(tree.Path{"a", "x"}).Value = "ax"
	n.EnsurePath(tree.Path{"b"}).Value = "b"
	var seen []string
	n.Walk(func(p tree.Path, node *tree.Node[string]) bool {
		seen = append(seen, p.String())
		return p.String() != "a"
	})
	if !reflect.DeepEqual(seen, []string{"", "a", "b"}) {
		t.Fatalf("walk order: %v", seen)
	}
}

func TestMerge_UnionAndCombine(t *testing.T) {
	a := tree.New([]string{"a"})
	a.EnsurePath(tree.Path{"x"}).Value = []string{"ax"}
	b := tree.New([]string{"b"})
	b.EnsurePath(tree.Path{"x"}).Value = []string{"bx"}
	b.EnsurePath(tree.Path{"y"}).Value = []string{"by"}

	concat := func(x, y []string) []string { return append(append([]string{}, x...), y...) }
	m := tree.Merge(a, b, concat)

	if !reflect.DeepEqual(m.Value, []string{"a", "b"}) {
		t.Fatalf("root: %v", m.Value)
	}
	if !reflect.DeepEqual(m.Keys(), []string{"x", "y"}) {
		t.Fatalf("keys: %v", m.Keys())
	}
	x, _ := m.Child("x")
	if !reflect.DeepEqual(x.Value, []string{"ax", "bx"}) {
		t.Fatalf("x: %v", x.Value)
	}
	if a.Len() != 1 || b.Len() != 2 {
		t.Fatalf("inputs modified")
	}
	if tree.Merge[int](nil, nil, nil) != nil {
		t.Fatalf("merge of nils should be nil")
	}
}

func TestClone_Independent(t *testing.T) {
	a := tree.New(1)
	a.Ensure("k").Value = 2
	c := a.Clone(nil)
	c.Ensure("k").Value = 9
	c.Ensure("new")
	k, _ := a.Child("k")
	if k.Value != 2 || a.Len() != 1 {
		t.Fatalf("clone shares structure with source")
	}
}
