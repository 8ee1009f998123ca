// Package formskema derives and manages form state from a JSON Schema.
//
// A Form owns the canonical form data and everything derived from it:
//
// - the schema resolved against the current data ($ref, dependencies, allOf)
// - default values merged under the data
// - the identifier tree (IDSchema) and the path tree (PathSchema)
// - validation results as a flat error list and an ErrorSchema tree
//
// The rendering layer reads the derived structures through Render and reports
// user input back through Change, Blur, Focus and Submit.
//
// Design policy:
// - Keep the orchestration in the root package; each derivation lives in its
// own package (schema, defaults, identity, validate, transform, omit).
// - Derived structures are values. A change builds new ones and swaps them in
// under the form's lock; callbacks run after the swap.
//
// Typical usage:
//
//	f, err := formskema.New(formskema.Props{
//	    Schema:       schemaJSON,
//	    LiveValidate: true,
//	    OnSubmit:     func(s formskema.State, _ formskema.SubmitEvent) { save(s.FormData) },
//	})
//	f.Change(map[string]any{"name": "Ada"})
//	err = f.Submit(formskema.SubmitEvent{})
package formskema
