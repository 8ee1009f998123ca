// Package identity assigns field identifiers and structural paths to every
// node of a resolved schema.
package identity

import (
	"strings"

	json "github.com/goccy/go-json"

	"github.com/reoring/formskema/schema"
	"github.com/reoring/formskema/tree"
)

// DefaultRootID is the identifier of the root node when none is supplied.
const DefaultRootID = "root"

// Separator joins identifier segments.
const Separator = "_"

var keyEscaper = strings.NewReplacer("~", "~0", "_", "~1")

// EscapeKey makes a property key safe to join with Separator, so that
// distinct paths never produce the same identifier.
func EscapeKey(key string) string { return keyEscaper.Replace(key) }

// IDSchema maps every node to its identifier.
type IDSchema struct{ root *tree.Node[string] }

// ToIDSchema builds the identifier tree of s for data. The root identifier is
// rootID, else idPrefix, else DefaultRootID.
func ToIDSchema(r *schema.Resolver, s *schema.Schema, rootID string, data any, idPrefix string) (IDSchema, error) {
	base := rootID
	if base == "" {
		base = idPrefix
	}
	if base == "" {
		base = DefaultRootID
	}
	n, err := schema.Build(r, s, data, data != nil, func(v schema.Visit) string {
		id := base
		for _, seg := range v.Path {
			id += Separator + EscapeKey(seg)
		}
		return id
	})
	if err != nil {
		return IDSchema{}, err
	}
	return IDSchema{root: n}, nil
}

// ID returns the identifier of the node at path.
func (s IDSchema) ID(path ...string) (string, bool) {
	n, ok := s.root.Lookup(path...)
	if !ok {
		return "", false
	}
	return n.Value, true
}

// Tree exposes the underlying tree. It must not be modified.
func (s IDSchema) Tree() *tree.Node[string] { return s.root }

// MarshalJSON renders {"$id": "root", "child": {"$id": "root_child"}}.
func (s IDSchema) MarshalJSON() ([]byte, error) {
	return json.Marshal(nodeMap(s.root, func(v string) map[string]any {
		return map[string]any{"$id": v}
	}))
}

// PathInfo is the value carried by every PathSchema node.
type PathInfo struct {
	Name        string
	HasChildren bool
}

// PathSchema maps every node to its dotted path.
type PathSchema struct{ root *tree.Node[PathInfo] }

// ToPathSchema builds the path tree of s for data. baseName prefixes every
// name; a leading "." is trimmed so the root is named "".
func ToPathSchema(r *schema.Resolver, s *schema.Schema, baseName string, data any) (PathSchema, error) {
	n, err := schema.Build(r, s, data, data != nil, func(v schema.Visit) PathInfo {
		name := baseName
		for _, seg := range v.Path {
			name += "." + seg
		}
		return PathInfo{Name: strings.TrimPrefix(name, "."), HasChildren: v.Children > 0}
	})
	if err != nil {
		return PathSchema{}, err
	}
	return PathSchema{root: n}, nil
}

// Lookup returns the path info of the node at path.
func (s PathSchema) Lookup(path ...string) (PathInfo, bool) {
	n, ok := s.root.Lookup(path...)
	if !ok {
		return PathInfo{}, false
	}
	return n.Value, true
}

// Tree exposes the underlying tree. It must not be modified.
func (s PathSchema) Tree() *tree.Node[PathInfo] { return s.root }

// MarshalJSON renders {"$name": "", "$hasChildren": true, "child": {...}}.
func (s PathSchema) MarshalJSON() ([]byte, error) {
	return json.Marshal(nodeMap(s.root, func(v PathInfo) map[string]any {
		return map[string]any{"$name": v.Name, "$hasChildren": v.HasChildren}
	}))
}

// FieldNames returns the paths of all leaf nodes below the root in pre-order.
func FieldNames(s PathSchema) []tree.Path {
	var out []tree.Path
	s.root.Walk(func(p tree.Path, n *tree.Node[PathInfo]) bool {
		if len(p) > 0 && n.Len() == 0 {
			out = append(out, p)
		}
		return true
	})
	return out
}

func nodeMap[T any](n *tree.Node[T], own func(T) map[string]any) map[string]any {
	if n == nil {
		return nil
	}
	out := own(n.Value)
	for _, k := range n.Keys() {
		c, _ := n.Child(k)
		out[k] = nodeMap(c, own)
	}
	return out
}
