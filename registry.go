package formskema

import (
	"github.com/samber/lo"

	"github.com/reoring/formskema/internal/jsonvalue"
	"github.com/reoring/formskema/schema"
)

// Registry bundles the component implementations and schema context handed
// to the rendering layer. It is assembled fresh for every render.
type Registry struct {
	Fields      map[string]Component
	Widgets     map[string]Component
	Templates   map[string]Component
	RootSchema  *schema.Schema
	Definitions map[string]any
	FormContext any
}

func newRegistry(p Props, root *schema.Schema) Registry {
	return Registry{
		Fields:      lo.Assign(p.BaseFields, p.Fields),
		Widgets:     lo.Assign(p.BaseWidgets, p.Widgets),
		Templates:   lo.Assign(p.BaseTemplates, p.Templates),
		RootSchema:  root,
		Definitions: definitionsOf(root),
		FormContext: p.FormContext,
	}
}

// definitionsOf returns the union of definitions and $defs; definitions wins.
func definitionsOf(root *schema.Schema) map[string]any {
	out := map[string]any{}
	if root == nil {
		return out
	}
	for _, key := range []string{"$defs", "definitions"} {
		raw, ok := root.Keyword(key)
		if !ok {
			continue
		}
		if m, ok := raw.(map[string]any); ok {
			out = lo.Assign(out, m)
		}
	}
	return jsonvalue.DeepCopy(out).(map[string]any)
}
