package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/formskema/tree"
)

// NameCustom is the Name of errors added by a custom validate function or
// injected through an ErrorSchema.
const NameCustom = "custom"

// Error is one validation failure.
type Error struct {
	Name       string         // failing keyword ("required", "type", ...) or NameCustom
	Property   string         // dotted data path with a leading dot (".a.b"); "" for the root
	Path       tree.Path      // segments of the data path; authoritative over Property
	Message    string         // human message
	Params     map[string]any // keyword parameters such as {"limit": 3}
	Stack      string         // property followed by message, for global display
	SchemaPath string         // JSON pointer to the failing keyword ("#/properties/a/type")
}

// Errors is a flat list of validation errors that implements error.
type Errors []Error

// Error summarizes the first few errors.
func (errs Errors) Error() string {
	if len(errs) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := min(len(errs), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		e := errs[i]
		prop := e.Property
		if prop == "" {
			prop = "."
		}
		fmt.Fprintf(b, "%s at %s", e.Name, prop)
	}
	if len(errs) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(errs))
	}
	return b.String()
}

// AsErrors extracts Errors from an error using errors.As internally.
func AsErrors(err error) (Errors, bool) {
	if err == nil {
		return nil, false
	}
	var errs Errors
	if errors.As(err, &errs) {
		return errs, true
	}
	return nil, false
}

// PropertyOf renders a path the way Error.Property does.
func PropertyOf(p tree.Path) string {
	if len(p) == 0 {
		return ""
	}
	return "." + p.String()
}

func newError(name string, path tree.Path, msg string) Error {
	prop := PropertyOf(path)
	return Error{
		Name:     name,
		Property: prop,
		Path:     path,
		Message:  msg,
		Stack:    strings.TrimSpace(prop + " " + msg),
	}
}

var (
	// ErrSchemaCompile is matched by every *CompileError.
	ErrSchemaCompile = errors.New("schema compile failed")
)

// CompileError reports a schema that the validation engine rejected, such as
// a malformed keyword or an unknown meta-schema.
type CompileError struct {
	Err error
}

func (e *CompileError) Error() string { return fmt.Sprintf("validate: compile schema: %v", e.Err) }

func (e *CompileError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrSchemaCompile) hold.
func (e *CompileError) Is(target error) bool { return target == ErrSchemaCompile }
