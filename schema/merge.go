package schema

import (
	"github.com/samber/lo"

	"github.com/reoring/formskema/internal/jsonvalue"
)

// mergeRaw deep-merges b into a copy of a. Nested objects merge recursively,
// "required" lists are unioned and any other value from b replaces a's.
func mergeRaw(a, b map[string]any) map[string]any {
	out := jsonvalue.DeepCopy(a).(map[string]any)
	for k, bv := range b {
		av, ok := out[k]
		if !ok {
			out[k] = jsonvalue.DeepCopy(bv)
			continue
		}
		am, aIsMap := av.(map[string]any)
		bm, bIsMap := bv.(map[string]any)
		switch {
		case aIsMap && bIsMap:
			out[k] = mergeRaw(am, bm)
		case k == "required":
			out[k] = unionRequired(av, bv)
		default:
			out[k] = jsonvalue.DeepCopy(bv)
		}
	}
	return out
}

// overlay copies target and lets the sibling keywords of a $ref win.
func overlay(target, siblings map[string]any) map[string]any {
	out := jsonvalue.DeepCopy(target).(map[string]any)
	for k, v := range siblings {
		if k == "$ref" {
			continue
		}
		out[k] = jsonvalue.DeepCopy(v)
	}
	return out
}

func unionRequired(a, b any) []any {
	return toAnySlice(lo.Uniq(append(toStrings(a), toStrings(b)...)))
}
