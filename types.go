package formskema

import (
	"log/slog"

	"github.com/reoring/formskema/i18n"
	"github.com/reoring/formskema/identity"
	"github.com/reoring/formskema/schema"
	"github.com/reoring/formskema/validate"
)

// Status is the lifecycle state of a Form.
type Status int

const (
	StatusPristine   Status = iota // No data supplied and no edit made yet.
	StatusEditing                  // Data supplied or edited since the last submit.
	StatusValidating               // Validation in progress (observable only from callbacks run by validate hooks).
	StatusError                    // The last submit was blocked by validation errors.
	StatusSubmitted                // The last submit passed.
)

func (s Status) String() string {
	switch s {
	case StatusEditing:
		return "editing"
	case StatusValidating:
		return "validating"
	case StatusError:
		return "error"
	case StatusSubmitted:
		return "submitted"
	default:
		return "pristine"
	}
}

// Component is an opaque field, widget or template implementation supplied
// by the rendering layer.
type Component any

// SubmitEvent describes a submit request.
type SubmitEvent struct {
	// Programmatic is set for submits requested through RequestSubmit.
	Programmatic bool
	// Nested marks a submit bubbled up from a form nested inside this one;
	// such events are ignored.
	Nested bool
}

// Props is the input contract of a Form.
type Props struct {
	// Schema is required: a *schema.Schema, a map[string]any, or JSON text.
	Schema   any
	UISchema map[string]any
	// FormData is the external data; nil means none was supplied.
	FormData any

	// Fields, Widgets and Templates override the base components of the same
	// name in the Registry.
	Fields    map[string]Component
	Widgets   map[string]Component
	Templates map[string]Component
	// BaseFields, BaseWidgets and BaseTemplates are the defaults being overridden.
	BaseFields    map[string]Component
	BaseWidgets   map[string]Component
	BaseTemplates map[string]Component
	FormContext   any

	Validate              validate.CustomValidateFunc
	TransformErrors       validate.TransformErrorsFunc
	CustomFormats         map[string]validate.FormatChecker
	AdditionalMetaSchemas []*schema.Schema
	// Translator renders validation messages; nil uses i18n.Current().
	Translator i18n.Translator

	OmitExtraData bool // strip unknown fields on submit
	LiveOmit      bool // with OmitExtraData, strip on every change too
	LiveValidate  bool // validate on every change
	NoValidate    bool // never validate
	ShowErrorList bool // expose the flat error list in Render output
	ExtraErrors   validate.ErrorSchema
	IDPrefix      string

	OnChange func(State)
	OnSubmit func(State, SubmitEvent)
	OnError  func(validate.Errors)
	OnBlur   func(id string, value any)
	OnFocus  func(id string, value any)

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// State is a snapshot of everything a Form derives.
type State struct {
	Schema      *schema.Schema // resolved against FormData
	UISchema    map[string]any
	IDSchema    identity.IDSchema
	PathSchema  identity.PathSchema
	FormData    any
	ErrorSchema validate.ErrorSchema
	Errors      validate.Errors
	// Edit reports whether FormData was supplied or edited.
	Edit   bool
	Status Status
}

// RenderOutput is what the rendering layer consumes on every render.
type RenderOutput struct {
	Schema      *schema.Schema
	UISchema    map[string]any
	IDSchema    identity.IDSchema
	FormData    any
	ErrorSchema validate.ErrorSchema
	// ErrorList is set when Props.ShowErrorList is on and errors exist.
	ErrorList validate.Errors
	Registry  Registry
	IDPrefix  string

	OnChange func(formData any)
	OnBlur   func(id string, value any)
	OnFocus  func(id string, value any)
	OnSubmit func() error
}
