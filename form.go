package formskema

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/reoring/formskema/defaults"
	"github.com/reoring/formskema/identity"
	"github.com/reoring/formskema/internal/jsonvalue"
	"github.com/reoring/formskema/omit"
	"github.com/reoring/formskema/schema"
	"github.com/reoring/formskema/transform"
	"github.com/reoring/formskema/validate"
)

// RootFieldIDKey is the uiSchema key overriding the root identifier.
const RootFieldIDKey = "ui:rootFieldId"

// Form is the form controller. All methods are safe for concurrent use;
// callbacks run after the state change they report has been committed and
// never while the form's lock is held.
type Form struct {
	mu sync.Mutex

	id     uuid.UUID
	logger *slog.Logger

	props  Props
	engine *engine
	views  transform.Registry
	state  State
	// validation is the last validation outcome, before extra errors. It is
	// what the form reports while live validation is off.
	validation validate.Result
}

// engine bundles the per-schema collaborators rebuilt on every props update.
type engine struct {
	root      *schema.Schema
	resolver  *schema.Resolver
	validator *validate.Validator
	warned    int
}

func newEngine(p Props) (*engine, error) {
	if p.Schema == nil {
		return nil, ErrNoSchema
	}
	root, err := schema.Parse(p.Schema)
	if err != nil {
		return nil, fmt.Errorf("formskema: %w", err)
	}
	v := validate.New(validate.Options{
		CustomValidate:        p.Validate,
		TransformErrors:       p.TransformErrors,
		AdditionalMetaSchemas: p.AdditionalMetaSchemas,
		CustomFormats:         p.CustomFormats,
		Translator:            p.Translator,
	})
	r := schema.NewResolver(root, schema.WithMatcher(v))
	return &engine{root: r.Root(), resolver: r, validator: v}, nil
}

// New derives the initial state from p. When the derived data differs from
// p.FormData (defaults were filled in), OnChange is notified.
func New(p Props) (*Form, error) {
	id := uuid.New()
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	f := &Form{id: id, logger: logger.With("form", id.String())}
	e, err := newEngine(p)
	if err != nil {
		return nil, err
	}
	st, validation, err := f.derive(e, p, jsonvalue.DeepCopy(p.FormData), State{}, validate.Result{})
	if err != nil {
		return nil, err
	}
	f.props, f.engine, f.state, f.validation = p, e, st, validation
	f.logger.Debug("form mounted", "status", st.Status, "errors", len(st.Errors))

	if p.OnChange != nil && !jsonvalue.Equal(st.FormData, p.FormData) {
		p.OnChange(f.State())
	}
	return f, nil
}

// ID returns the instance identifier used to scope log records.
func (f *Form) ID() string { return f.id.String() }

// SetProps re-derives the whole state from p. The live form data is kept
// unless p.FormData differs from the previously supplied FormData.
func (f *Form) SetProps(p Props) error {
	e, err := newEngine(p)
	if err != nil {
		return err
	}
	f.mu.Lock()
	prev := f.state
	input := prev.FormData
	if !jsonvalue.Equal(p.FormData, f.props.FormData) {
		input = jsonvalue.DeepCopy(p.FormData)
	}
	st, validation, err := f.derive(e, p, input, prev, f.validation)
	if err != nil {
		f.mu.Unlock()
		return err
	}
	f.props, f.engine, f.state, f.validation = p, e, st, validation
	notify := p.OnChange != nil && !jsonvalue.Equal(st.FormData, p.FormData) && !jsonvalue.Equal(st.FormData, prev.FormData)
	snap := f.snapshotLocked()
	f.mu.Unlock()

	f.logger.Debug("props updated", "status", st.Status, "errors", len(st.Errors))
	if notify {
		p.OnChange(snap)
	}
	return nil
}

// derive computes a full state for input from scratch.
func (f *Form) derive(e *engine, p Props, input any, prev State, validation validate.Result) (State, validate.Result, error) {
	formData, err := defaults.Compute(e.resolver, e.root, input)
	if err != nil {
		return State{}, validation, err
	}
	st := State{UISchema: p.UISchema, FormData: formData, Edit: input != nil, Status: prev.Status}
	if st.Edit && st.Status == StatusPristine {
		st.Status = StatusEditing
	}
	if err := f.shape(e, p, &st); err != nil {
		return State{}, validation, err
	}
	switch {
	case p.NoValidate:
		validation = validate.Result{}
	case st.Edit && p.LiveValidate:
		if validation, err = f.validateView(e, formData, st.Schema); err != nil {
			return State{}, validation, err
		}
	}
	res := validation.WithExtra(p.ExtraErrors)
	st.Errors, st.ErrorSchema = res.Errors, res.ErrorSchema
	return st, validation, nil
}

// shape fills the resolved schema and the identity maps of st for st.FormData.
func (f *Form) shape(e *engine, p Props, st *State) error {
	resolved, err := e.resolver.Resolve(e.root, st.FormData)
	if err != nil {
		return err
	}
	rootID, _ := p.UISchema[RootFieldIDKey].(string)
	ids, err := identity.ToIDSchema(e.resolver, resolved, rootID, st.FormData, p.IDPrefix)
	if err != nil {
		return err
	}
	paths, err := identity.ToPathSchema(e.resolver, resolved, "", st.FormData)
	if err != nil {
		return err
	}
	st.Schema, st.IDSchema, st.PathSchema = resolved, ids, paths
	f.logWarnings(e)
	return nil
}

func (f *Form) validateView(e *engine, formData any, resolved *schema.Schema) (validate.Result, error) {
	view := f.views.Apply(formData)
	return e.validator.Validate(view, resolved.WithDefinitionsFrom(e.root))
}

func (f *Form) logWarnings(e *engine) {
	ws := e.resolver.Diag().Warnings()
	for _, w := range ws[min(e.warned, len(ws)):] {
		f.logger.Warn("schema resolution warning", "warning", w)
	}
	e.warned = len(ws)
}

// Change commits formData as the result of a user edit.
func (f *Form) Change(formData any) error { return f.change(formData, nil) }

// ChangeWithErrors commits formData together with field-level errors reported
// by the rendering layer. The errors are shown when live validation is off.
func (f *Form) ChangeWithErrors(formData any, fieldErrors validate.ErrorSchema) error {
	return f.change(formData, &fieldErrors)
}

func (f *Form) change(formData any, fieldErrors *validate.ErrorSchema) error {
	f.mu.Lock()
	p, e := f.props, f.engine
	data := jsonvalue.DeepCopy(formData)
	if jsonvalue.IsObject(data) || jsonvalue.IsArray(data) {
		var err error
		if data, err = defaults.Compute(e.resolver, e.root, data); err != nil {
			f.mu.Unlock()
			return err
		}
	}
	st := f.state
	st.FormData, st.Edit, st.Status = data, true, StatusEditing
	if err := f.shape(e, p, &st); err != nil {
		f.mu.Unlock()
		return err
	}
	if p.OmitExtraData && p.LiveOmit {
		st.FormData = omit.Filter(st.FormData, identity.FieldNames(st.PathSchema))
		if err := f.shape(e, p, &st); err != nil {
			f.mu.Unlock()
			return err
		}
	}

	validation := f.validation
	switch {
	case !p.NoValidate && p.LiveValidate:
		f.state.Status = StatusValidating
		res, err := f.validateView(e, st.FormData, st.Schema)
		if err != nil {
			f.state.Status = StatusEditing
			f.mu.Unlock()
			return err
		}
		validation = res
		merged := res.WithExtra(p.ExtraErrors)
		st.Errors, st.ErrorSchema = merged.Errors, merged.ErrorSchema
	case !p.NoValidate && fieldErrors != nil:
		merged := validate.Result{ErrorSchema: *fieldErrors, Errors: fieldErrors.List()}.WithExtra(p.ExtraErrors)
		st.Errors, st.ErrorSchema = merged.Errors, merged.ErrorSchema
	}
	f.state, f.validation = st, validation
	snap := f.snapshotLocked()
	onChange := p.OnChange
	f.mu.Unlock()

	f.logger.Debug("form changed", "errors", len(st.Errors))
	if onChange != nil {
		onChange(snap)
	}
	return nil
}

// Submit runs the submit pipeline: strip unknown fields when OmitExtraData is
// set, apply view transformers, validate unless NoValidate. On failure the
// errors are committed, OnError is called (or the failure is logged) and a
// *SubmissionBlockedError is returned. On success the errors are reset to the
// extra errors and OnSubmit receives the state with the view data.
func (f *Form) Submit(ev SubmitEvent) error {
	if ev.Nested {
		return nil
	}
	f.mu.Lock()
	p, e := f.props, f.engine
	st := f.state
	if p.OmitExtraData {
		st.FormData = omit.Filter(st.FormData, identity.FieldNames(st.PathSchema))
		if err := f.shape(e, p, &st); err != nil {
			f.mu.Unlock()
			return err
		}
	}
	view := f.views.Apply(st.FormData)

	if !p.NoValidate {
		f.state.Status = StatusValidating
		res, err := e.validator.Validate(view, st.Schema.WithDefinitionsFrom(e.root))
		if err != nil {
			f.state.Status = st.Status
			f.mu.Unlock()
			return err
		}
		if !res.Valid() {
			f.validation = res
			merged := res.WithExtra(p.ExtraErrors)
			f.state.Errors, f.state.ErrorSchema = merged.Errors, merged.ErrorSchema
			f.state.Status = StatusError
			onError := p.OnError
			f.mu.Unlock()

			if onError != nil {
				onError(merged.Errors)
			} else {
				f.logger.Error("form validation failed", "count", len(merged.Errors), "errors", merged.Errors.Error())
			}
			return &SubmissionBlockedError{Errors: merged.Errors}
		}
	}

	f.validation = validate.Result{}
	reset := f.validation.WithExtra(p.ExtraErrors)
	st.Errors, st.ErrorSchema, st.Status = reset.Errors, reset.ErrorSchema, StatusSubmitted
	f.state = st
	snap := f.snapshotLocked()
	snap.FormData = view
	onSubmit := p.OnSubmit
	f.mu.Unlock()

	f.logger.Debug("form submitted", "programmatic", ev.Programmatic)
	if onSubmit != nil {
		onSubmit(snap, ev)
	}
	return nil
}

// RequestSubmit submits programmatically through the same pipeline.
func (f *Form) RequestSubmit() error { return f.Submit(SubmitEvent{Programmatic: true}) }

// Blur forwards a blur event for the field with the given identifier.
func (f *Form) Blur(id string, value any) {
	f.mu.Lock()
	fn := f.props.OnBlur
	f.mu.Unlock()
	if fn != nil {
		fn(id, value)
	}
}

// Focus forwards a focus event for the field with the given identifier.
func (f *Form) Focus(id string, value any) {
	f.mu.Lock()
	fn := f.props.OnFocus
	f.mu.Unlock()
	if fn != nil {
		fn(id, value)
	}
}

// AddViewTransformer merges r into the form's view transformers. Later
// registrations win at the same path; nothing is ever removed.
func (f *Form) AddViewTransformer(r transform.Registry) {
	f.mu.Lock()
	f.views = f.views.Merge(r)
	f.mu.Unlock()
}

// State returns a snapshot of the current state.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Form) snapshotLocked() State {
	s := f.state
	s.FormData = jsonvalue.DeepCopy(s.FormData)
	s.Errors = append(validate.Errors(nil), s.Errors...)
	return s
}

// Registry assembles the registry for the current props.
func (f *Form) Registry() Registry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return newRegistry(f.props, f.engine.root)
}

// Render returns the output consumed by the rendering layer, with handlers
// bound to this form.
func (f *Form) Render() RenderOutput {
	f.mu.Lock()
	st := f.snapshotLocked()
	p := f.props
	reg := newRegistry(p, f.engine.root)
	f.mu.Unlock()

	out := RenderOutput{
		Schema:      st.Schema,
		UISchema:    st.UISchema,
		IDSchema:    st.IDSchema,
		FormData:    st.FormData,
		ErrorSchema: st.ErrorSchema,
		Registry:    reg,
		IDPrefix:    p.IDPrefix,
		OnChange: func(formData any) {
			if err := f.Change(formData); err != nil {
				f.logger.Error("change rejected", "err", err)
			}
		},
		OnBlur:   f.Blur,
		OnFocus:  f.Focus,
		OnSubmit: func() error { return f.Submit(SubmitEvent{}) },
	}
	if p.ShowErrorList && len(st.Errors) > 0 {
		out.ErrorList = st.Errors
	}
	return out
}
