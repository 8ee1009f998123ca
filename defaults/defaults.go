// Package defaults computes the default form state for a schema: declared
// defaults merged under the data the caller already has.
package defaults

import (
	"github.com/reoring/formskema/internal/jsonvalue"
	"github.com/reoring/formskema/schema"
)

// maxPasses bounds the fixpoint iteration of Compute.
const maxPasses = 8

// Compute returns existing completed with the defaults declared by s. Existing
// values always win. A nil existing value is treated as undefined; nil under a
// present key or inside an array is JSON null and is kept.
//
// Defaults can activate dependencies that declare more defaults, so the
// computation is repeated until the result stops changing. existing is never
// modified.
func Compute(r *schema.Resolver, s *schema.Schema, existing any) (any, error) {
	cur := existing
	for pass := 0; pass < maxPasses; pass++ {
		out, err := compute(r, s, undefined, value{v: cur, ok: cur != nil}, nil)
		if err != nil {
			return nil, err
		}
		if pass > 0 && jsonvalue.Equal(out.v, cur) {
			return out.v, nil
		}
		cur = out.v
	}
	return cur, nil
}

// value is a JSON value that may be undefined (ok == false).
type value struct {
	v  any
	ok bool
}

var undefined = value{}

func defined(v any) value { return value{v: v, ok: true} }

func (x value) copy() value {
	if !x.ok {
		return x
	}
	return defined(jsonvalue.DeepCopy(x.v))
}

func compute(r *schema.Resolver, s *schema.Schema, parent, existing value, trail *schema.Trail) (value, error) {
	rs, next, err := r.Step(s, existing.v, existing.ok, trail)
	if err != nil {
		return undefined, err
	}
	if rs == nil {
		return existing.copy(), nil
	}
	if rs, err = r.Narrow(rs, existing.v); err != nil {
		return undefined, err
	}

	def := parent
	if own, ok := rs.Default(); ok {
		if def.ok && jsonvalue.IsObject(def.v) && jsonvalue.IsObject(own) {
			def = defined(jsonvalue.Merge(def.v, own, false))
		} else {
			def = defined(own)
		}
	}

	switch rs.Kind() {
	case schema.KindObject:
		return objectDefaults(r, rs, def, existing, next)
	case schema.KindArray:
		return arrayDefaults(r, rs, def, existing, next)
	}
	if existing.ok {
		return existing.copy(), nil
	}
	return def.copy(), nil
}

func objectDefaults(r *schema.Resolver, s *schema.Schema, def, existing value, trail *schema.Trail) (value, error) {
	out := map[string]any{}
	if existing.ok {
		obj, isObj := existing.v.(map[string]any)
		if !isObj {
			return existing.copy(), nil
		}
		out = jsonvalue.DeepCopy(obj).(map[string]any)
	}
	defObj, _ := def.v.(map[string]any)
	for _, name := range s.Properties() {
		child, _ := s.Property(name)
		cv, cp := out[name]
		dv, dp := defObj[name]
		v, err := compute(r, child, value{v: dv, ok: dp}, value{v: cv, ok: cp}, trail)
		if err != nil {
			return undefined, err
		}
		if v.ok {
			out[name] = v.v
		}
	}
	return defined(out), nil
}

func arrayDefaults(r *schema.Resolver, s *schema.Schema, def, existing value, trail *schema.Trail) (value, error) {
	defArr, _ := def.v.([]any)
	if existing.ok {
		arr, isArr := existing.v.([]any)
		if !isArr {
			return existing.copy(), nil
		}
		out := make([]any, len(arr))
		for i, el := range arr {
			pd := undefined
			if i < len(defArr) {
				pd = defined(defArr[i])
			}
			v, err := compute(r, itemSchema(s, i), pd, defined(el), trail)
			if err != nil {
				return undefined, err
			}
			out[i] = v.v
		}
		return defined(out), nil
	}

	out := make([]any, 0, len(defArr))
	for i, el := range defArr {
		v, err := compute(r, itemSchema(s, i), defined(el), undefined, trail)
		if err != nil {
			return undefined, err
		}
		if !v.ok {
			v = defined(jsonvalue.DeepCopy(el))
		}
		out = append(out, v.v)
	}
	for i := len(out); i < s.MinItems(); i++ {
		v, err := compute(r, itemSchema(s, i), undefined, undefined, trail)
		if err != nil {
			return undefined, err
		}
		if !v.ok {
			break
		}
		out = append(out, v.v)
	}
	return defined(out), nil
}

var emptySchema, _ = schema.Parse(map[string]any{})

func itemSchema(s *schema.Schema, i int) *schema.Schema {
	if item, ok := s.Items(i); ok {
		return item
	}
	return emptySchema
}
