package schema

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/reoring/formskema/internal/jsonvalue"
)

// maxPointerHops bounds $ref hops taken while walking one pointer.
const maxPointerHops = 64

// Lookup returns a copy of the value addressed by a local reference inside
// the document s.
func Lookup(s *Schema, ref string) (any, error) {
	v, reason := lookup(s.raw, ref)
	if reason != "" {
		return nil, &ResolutionError{Ref: ref, Reason: reason}
	}
	return jsonvalue.DeepCopy(v), nil
}

// lookup returns the node addressed by a local JSON Pointer reference
// ("#/definitions/X", "#/$defs/X", "#"). A $ref met on an intermediate node
// is followed before the next segment is applied, unless that reference is
// already being looked up.
func lookup(root map[string]any, ref string) (any, string) {
	hops := 0
	return lookupRef(root, ref, map[string]bool{}, &hops)
}

func lookupRef(root map[string]any, ref string, active map[string]bool, hops *int) (any, string) {
	if !strings.HasPrefix(ref, "#") {
		return nil, "only local references are supported"
	}
	frag := strings.TrimPrefix(ref, "#")
	if frag == "" {
		return root, ""
	}
	if !strings.HasPrefix(frag, "/") {
		return nil, "not a JSON pointer"
	}
	active[ref] = true
	defer delete(active, ref)

	var cur any = root
	for _, raw := range strings.Split(frag[1:], "/") {
		seg, err := decodeSegment(raw)
		if err != nil {
			return nil, "malformed pointer segment " + strconv.Quote(raw)
		}
		for {
			m, ok := cur.(map[string]any)
			if !ok {
				break
			}
			if _, has := m[seg]; has {
				break
			}
			next, ok := m["$ref"].(string)
			if !ok || active[next] {
				break
			}
			if *hops++; *hops > maxPointerHops {
				return nil, "too many nested references"
			}
			target, reason := lookupRef(root, next, active, hops)
			if reason != "" {
				return nil, reason
			}
			cur = target
		}
		switch t := cur.(type) {
		case map[string]any:
			v, ok := t[seg]
			if !ok {
				return nil, "no definition found"
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(t) {
				return nil, "no definition found"
			}
			cur = t[i]
		default:
			return nil, "no definition found"
		}
	}
	return cur, ""
}

func decodeSegment(s string) (string, error) {
	dec, err := url.PathUnescape(s)
	if err != nil {
		return "", err
	}
	dec = strings.ReplaceAll(dec, "~1", "/")
	return strings.ReplaceAll(dec, "~0", "~"), nil
}
