package validate

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/reoring/formskema/internal/jsonvalue"
	"github.com/reoring/formskema/tree"
)

// ErrorsKey holds the messages of a node in the JSON form of an ErrorSchema.
const ErrorsKey = "__errors"

// ErrorSchema mirrors the shape of form data with error messages attached to
// nodes. It is persistent: Add and Merge return new values. The zero value is
// empty and encodes as {}.
type ErrorSchema struct {
	root *tree.Node[[]string]
	n    int // number of messages
}

// BuildErrorSchema places every error's message at its path.
func BuildErrorSchema(errs Errors) ErrorSchema {
	root := &tree.Node[[]string]{}
	for _, e := range errs {
		n := root.EnsurePath(e.Path)
		n.Value = append(n.Value, e.Message)
	}
	return ErrorSchema{root: root, n: len(errs)}
}

// Add returns a copy of e with msgs appended at path.
func (e ErrorSchema) Add(path tree.Path, msgs ...string) ErrorSchema {
	if len(msgs) == 0 {
		return e
	}
	one := &tree.Node[[]string]{}
	one.EnsurePath(path).Value = append([]string(nil), msgs...)
	return e.Merge(ErrorSchema{root: one, n: len(msgs)})
}

// Merge returns the union of e and o; messages of shared nodes are
// concatenated with e's first.
func (e ErrorSchema) Merge(o ErrorSchema) ErrorSchema {
	return ErrorSchema{root: tree.Merge(e.root, o.root, concat), n: e.n + o.n}
}

func concat(x, y []string) []string {
	if len(x) == 0 && len(y) == 0 {
		return nil
	}
	out := make([]string, 0, len(x)+len(y))
	out = append(out, x...)
	return append(out, y...)
}

// Messages returns the messages attached to the node at path.
func (e ErrorSchema) Messages(path ...string) []string {
	n, ok := e.root.Lookup(path...)
	if !ok {
		return nil
	}
	return append([]string(nil), n.Value...)
}

// IsEmpty reports whether no node carries a message.
func (e ErrorSchema) IsEmpty() bool { return e.n == 0 }

// Len returns the number of messages in the tree.
func (e ErrorSchema) Len() int { return e.n }

// List flattens e into errors in pre-order, parents before children and
// siblings in insertion order.
func (e ErrorSchema) List() Errors {
	var out Errors
	e.root.Walk(func(p tree.Path, n *tree.Node[[]string]) bool {
		for _, msg := range n.Value {
			out = append(out, newError(NameCustom, p, msg))
		}
		return true
	})
	return out
}

// Tree exposes the underlying tree. It must not be modified.
func (e ErrorSchema) Tree() *tree.Node[[]string] { return e.root }

// MarshalJSON renders {"__errors": [...], "field": {...}}. Nodes without
// messages omit __errors.
func (e ErrorSchema) MarshalJSON() ([]byte, error) {
	if e.root == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(errorNodeMap(e.root))
}

func errorNodeMap(n *tree.Node[[]string]) map[string]any {
	out := map[string]any{}
	if len(n.Value) > 0 {
		out[ErrorsKey] = append([]string(nil), n.Value...)
	}
	for _, k := range n.Keys() {
		c, _ := n.Child(k)
		out[k] = errorNodeMap(c)
	}
	return out
}

// UnmarshalJSON reads the form produced by MarshalJSON.
func (e *ErrorSchema) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	out, err := FromMap(m)
	if err != nil {
		return err
	}
	*e = out
	return nil
}

// FromMap builds an ErrorSchema from a nested map using the __errors
// convention. Keys are visited in sorted order.
func FromMap(m map[string]any) (ErrorSchema, error) {
	root := &tree.Node[[]string]{}
	if err := fillErrorNode(root, m, nil); err != nil {
		return ErrorSchema{}, err
	}
	n := 0
	root.Walk(func(_ tree.Path, node *tree.Node[[]string]) bool {
		n += len(node.Value)
		return true
	})
	return ErrorSchema{root: root, n: n}, nil
}

func fillErrorNode(n *tree.Node[[]string], m map[string]any, path tree.Path) error {
	for _, k := range jsonvalue.SortedKeys(m) {
		v := m[k]
		if k == ErrorsKey {
			msgs, err := messageList(v)
			if err != nil {
				return fmt.Errorf("validate: %s at %q: %w", ErrorsKey, path.String(), err)
			}
			n.Value = append(n.Value, msgs...)
			continue
		}
		child, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("validate: error schema node %q is %s, want object", path.Child(k).String(), jsonvalue.GuessType(v))
		}
		if err := fillErrorNode(n.Ensure(k), child, path.Child(k)); err != nil {
			return err
		}
	}
	return nil
}

func messageList(v any) ([]string, error) {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...), nil
	case []any:
		out := make([]string, 0, len(t))
		for _, it := range t {
			s, ok := it.(string)
			if !ok {
				return nil, fmt.Errorf("message is %s, want string", jsonvalue.GuessType(it))
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("messages are %s, want array", jsonvalue.GuessType(v))
}
