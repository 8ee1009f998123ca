package schema

import (
	"fmt"
	"slices"

	"github.com/reoring/formskema/internal/jsonvalue"
)

// Matcher reports whether data is valid against s. The validate package
// provides the draft-07 implementation; resolvers built without one fall back
// to a structural check of type, enum, const and required.
type Matcher interface {
	Matches(data any, s *Schema) bool
}

// Resolver resolves schema nodes against the root document that owns them.
type Resolver struct {
	root    *Schema
	matcher Matcher
	diag    *Diag
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMatcher sets the Matcher used to select oneOf/anyOf options.
func WithMatcher(m Matcher) Option { return func(r *Resolver) { r.matcher = m } }

// WithDiag sets the warning collector shared with the caller.
func WithDiag(d *Diag) Option { return func(r *Resolver) { r.diag = d } }

// NewResolver returns a Resolver for documents rooted at root.
func NewResolver(root *Schema, opts ...Option) *Resolver {
	if root == nil {
		root = newSchema(nil)
	}
	r := &Resolver{root: root, matcher: basicMatcher{}, diag: &Diag{}}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Root returns the root document.
func (r *Resolver) Root() *Schema { return r.root }

// Diag returns the warnings recorded so far.
func (r *Resolver) Diag() *Diag { return r.diag }

// Resolve is shorthand for NewResolver(root).Resolve(s, data).
func Resolve(s, root *Schema, data any) (*Schema, error) {
	return NewResolver(root).Resolve(s, data)
}

// Resolve returns s with $ref, dependencies, allOf and additionalProperties
// resolved against data. Only s itself is resolved; its children stay lazy.
func (r *Resolver) Resolve(s *Schema, data any) (*Schema, error) {
	var used []string
	return r.resolve(s, data, nil, &used)
}

// resolve expands s. chain holds the references being followed for this node
// and used collects every reference expanded along the way.
func (r *Resolver) resolve(s *Schema, data any, chain []string, used *[]string) (*Schema, error) {
	switch {
	case s.kind == KindRef:
		ref := s.Ref()
		if slices.Contains(chain, ref) {
			return nil, &ResolutionError{Ref: ref, Reason: "circular reference"}
		}
		target, reason := lookup(r.root.raw, ref)
		if reason != "" {
			return nil, &ResolutionError{Ref: ref, Reason: reason}
		}
		*used = append(*used, ref)
		tm := fromValue(target).raw
		return r.resolve(newSchema(overlay(tm, s.raw)), data, append(chain, ref), used)
	case s.Has("dependencies"):
		next, err := r.resolveDependencies(s, data, chain, used)
		if err != nil {
			return nil, err
		}
		return r.resolve(next, data, chain, used)
	case s.Has("allOf"):
		next, err := r.resolveAllOf(s, data, chain, used)
		if err != nil {
			return nil, err
		}
		return r.resolve(next, data, chain, used)
	}
	if ap, ok := s.AdditionalProperties(); ok {
		return stubAdditional(s, ap, data), nil
	}
	return s, nil
}

func (r *Resolver) resolveAllOf(s *Schema, data any, chain []string, used *[]string) (*Schema, error) {
	subs, ok := s.raw["allOf"].([]any)
	if !ok {
		return nil, &ResolutionError{Reason: fmt.Sprintf("allOf must be an array, got %s", jsonvalue.GuessType(s.raw["allOf"]))}
	}
	base := without(s.raw, "allOf")
	for _, sub := range subs {
		rs, err := r.resolve(fromValue(sub), data, chain, used)
		if err != nil {
			return nil, err
		}
		base = mergeRaw(base, rs.raw)
	}
	return newSchema(base), nil
}

func (r *Resolver) resolveDependencies(s *Schema, data any, chain []string, used *[]string) (*Schema, error) {
	deps, _ := s.raw["dependencies"].(map[string]any)
	base := without(s.raw, "dependencies")
	if opts := s.Options(); len(opts) > 0 {
		picked := r.selectOption(opts, data)
		rs, err := r.resolve(picked, data, chain, used)
		if err != nil {
			return nil, err
		}
		base = mergeRaw(without(base, "oneOf", "anyOf"), rs.raw)
	}
	obj, _ := data.(map[string]any)
	for _, key := range sortedDependencyKeys(deps) {
		if _, present := obj[key]; !present {
			continue
		}
		if props, ok := base["properties"].(map[string]any); ok {
			if _, declared := props[key]; !declared {
				continue
			}
		}
		switch dv := deps[key].(type) {
		case []any:
			base["required"] = unionRequired(base["required"], dv)
		case map[string]any:
			merged, err := r.withDependentSchema(base, data, key, dv, chain, used)
			if err != nil {
				return nil, err
			}
			base = merged
		}
	}
	return newSchema(base), nil
}

func (r *Resolver) withDependentSchema(base map[string]any, data any, key string, dep map[string]any, chain []string, used *[]string) (map[string]any, error) {
	rs, err := r.resolve(newSchema(dep), data, chain, used)
	if err != nil {
		return nil, err
	}
	oneOf, hasOneOf := rs.raw["oneOf"]
	merged := mergeRaw(base, without(rs.raw, "oneOf"))
	if !hasOneOf {
		return merged, nil
	}
	list, ok := oneOf.([]any)
	if !ok {
		return nil, &ResolutionError{Ref: "dependencies/" + key, Reason: fmt.Sprintf("oneOf must be an array, got %s", jsonvalue.GuessType(oneOf))}
	}
	options := make([]*Schema, 0, len(list))
	for _, o := range list {
		ro, err := r.resolve(fromValue(o), data, chain, used)
		if err != nil {
			return nil, err
		}
		options = append(options, ro)
	}
	return r.withExactlyOneSubschema(merged, data, key, options, chain, used)
}

// withExactlyOneSubschema merges the single option whose condition on key
// holds for data. Options without a condition for key are never selected.
func (r *Resolver) withExactlyOneSubschema(base map[string]any, data any, key string, options []*Schema, chain []string, used *[]string) (map[string]any, error) {
	var valid []*Schema
	for _, opt := range options {
		props, ok := opt.raw["properties"].(map[string]any)
		if !ok {
			continue
		}
		cond, ok := props[key]
		if !ok {
			continue
		}
		check := newSchema(map[string]any{
			"type":       "object",
			"properties": map[string]any{key: cond},
		})
		if r.matcher.Matches(data, check.WithDefinitionsFrom(r.root)) {
			valid = append(valid, opt)
		}
	}
	if len(valid) != 1 {
		r.diag.warnf("ignoring oneOf in dependencies for %q: %d subschemas match", key, len(valid))
		return base, nil
	}
	sub := valid[0].Raw()
	props := sub["properties"].(map[string]any)
	delete(props, key)
	rs, err := r.resolve(newSchema(sub), data, chain, used)
	if err != nil {
		return nil, err
	}
	return mergeRaw(base, rs.raw), nil
}

// selectOption returns the first option data is valid against, or the first
// option when none matches.
func (r *Resolver) selectOption(options []*Schema, data any) *Schema {
	for _, o := range options {
		if r.matcher.Matches(data, o.WithDefinitionsFrom(r.root)) {
			return o
		}
	}
	return options[0]
}

// SelectOption returns the oneOf/anyOf option of s matching data, or nil when
// s declares neither keyword.
func (r *Resolver) SelectOption(s *Schema, data any) *Schema {
	opts := s.Options()
	if len(opts) == 0 {
		return nil
	}
	return r.selectOption(opts, data)
}

// Narrow folds the oneOf/anyOf option matching data into s. A schema without
// options is returned unchanged.
func (r *Resolver) Narrow(s *Schema, data any) (*Schema, error) {
	picked := r.SelectOption(s, data)
	if picked == nil {
		return s, nil
	}
	var used []string
	rs, err := r.resolve(picked, data, nil, &used)
	if err != nil {
		return nil, err
	}
	return r.resolve(newSchema(mergeRaw(without(s.raw, "oneOf", "anyOf"), rs.raw)), data, nil, &used)
}

// stubAdditional declares a property for every undeclared key of object data.
func stubAdditional(s, ap *Schema, data any) *Schema {
	obj, ok := data.(map[string]any)
	if !ok {
		return s
	}
	props, _ := s.raw["properties"].(map[string]any)
	var added map[string]any
	for _, key := range jsonvalue.SortedKeys(obj) {
		if _, declared := props[key]; declared {
			continue
		}
		stub := ap.Raw()
		if _, hasRef := stub["$ref"]; !hasRef {
			if _, hasType := stub["type"]; !hasType {
				stub["type"] = jsonvalue.GuessType(obj[key])
			}
		}
		stub[AdditionalPropertyFlag] = true
		if added == nil {
			added = make(map[string]any)
		}
		added[key] = stub
	}
	if added == nil {
		return s
	}
	out := s.Raw()
	merged, _ := out["properties"].(map[string]any)
	if merged == nil {
		merged = make(map[string]any, len(added))
	}
	for k, v := range added {
		merged[k] = v
	}
	out["properties"] = merged
	return newSchema(out)
}
