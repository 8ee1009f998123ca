// Package validate runs draft-07 JSON Schema validation over form data and
// shapes the outcome into a flat error list plus an ErrorSchema tree.
//
// Structural validation is delegated to santhosh-tekuri/jsonschema. Engine
// errors are flattened to their leaf causes, required errors are moved onto
// the missing property and messages are rendered through the i18n catalog.
// A custom validate function may append errors at arbitrary paths, and a
// transform function gets the final say over the whole list.
package validate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/reoring/formskema/i18n"
	"github.com/reoring/formskema/internal/jsonvalue"
	"github.com/reoring/formskema/schema"
	"github.com/reoring/formskema/tree"
)

const resourceURL = "mem://formskema/form.json"

// CustomValidateFunc adds cross-field errors through errs.
type CustomValidateFunc func(formData any, errs ErrorHandler)

// TransformErrorsFunc rewrites or filters the final error list.
type TransformErrorsFunc func(errs Errors) Errors

// FormatChecker reports whether a value satisfies a custom format. Values of
// types the format does not apply to should be accepted.
type FormatChecker func(v any) bool

// FormatPattern returns a FormatChecker accepting strings that match expr.
func FormatPattern(expr string) (FormatChecker, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("validate: format pattern: %w", err)
	}
	return func(v any) bool {
		s, ok := v.(string)
		return !ok || re.MatchString(s)
	}, nil
}

// Options configures a Validator.
type Options struct {
	CustomValidate  CustomValidateFunc
	TransformErrors TransformErrorsFunc
	// AdditionalMetaSchemas are registered under their $id (or id) so schemas
	// declaring them in $schema compile.
	AdditionalMetaSchemas []*schema.Schema
	CustomFormats         map[string]FormatChecker
	// Translator renders messages; nil uses i18n.Current().
	Translator i18n.Translator
}

// Result is the outcome of one validation pass.
type Result struct {
	Errors      Errors
	ErrorSchema ErrorSchema
}

// Valid reports whether no error was found.
func (r Result) Valid() bool { return len(r.Errors) == 0 }

// Err returns the errors as an error, or nil.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	return r.Errors
}

// WithExtra merges extra into the error schema and regenerates the flat list
// from the merged tree. Entries matching an existing error by path and
// message keep that error's details.
func (r Result) WithExtra(extra ErrorSchema) Result {
	if extra.IsEmpty() {
		return r
	}
	es := r.ErrorSchema.Merge(extra)
	used := make([]bool, len(r.Errors))
	list := es.List()
	for i, e := range list {
		for j, known := range r.Errors {
			if used[j] || known.Message != e.Message || !known.Path.Equal(e.Path) {
				continue
			}
			used[j] = true
			list[i] = known
			break
		}
	}
	return Result{Errors: list, ErrorSchema: es}
}

// Validator validates data against schemas, caching compiled schemas by their
// canonical JSON. It is safe for concurrent use.
type Validator struct {
	opts  Options
	mu    sync.Mutex
	cache map[string]*jsonschema.Schema
}

// New returns a Validator.
func New(opts Options) *Validator {
	return &Validator{opts: opts, cache: make(map[string]*jsonschema.Schema)}
}

// Validate is the one-shot form of New(...).Validate(formData, s).
func Validate(formData any, s *schema.Schema, customValidate CustomValidateFunc, transformErrors TransformErrorsFunc, additionalMetaSchemas []*schema.Schema, customFormats map[string]FormatChecker) (Result, error) {
	return New(Options{
		CustomValidate:        customValidate,
		TransformErrors:       transformErrors,
		AdditionalMetaSchemas: additionalMetaSchemas,
		CustomFormats:         customFormats,
	}).Validate(formData, s)
}

// Validate checks formData against s. Invalid data is reported in the Result;
// the error is reserved for schemas that cannot be compiled and data that is
// not JSON-compatible.
func (v *Validator) Validate(formData any, s *schema.Schema) (Result, error) {
	compiled, err := v.compile(s)
	if err != nil {
		return Result{}, err
	}
	data, err := jsonvalue.Normalize(formData)
	if err != nil {
		return Result{}, fmt.Errorf("validate: %w", err)
	}
	var errs Errors
	if verr := compiled.Validate(data); verr != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(verr, &ve) {
			return Result{}, fmt.Errorf("validate: %w", verr)
		}
		errs = v.convert(ve, s, data)
	}
	if v.opts.CustomValidate != nil {
		h, sink := newHandler()
		v.opts.CustomValidate(jsonvalue.DeepCopy(data), h)
		errs = append(errs, sink.errs...)
	}
	if v.opts.TransformErrors != nil {
		errs = v.opts.TransformErrors(errs)
	}
	return Result{Errors: errs, ErrorSchema: BuildErrorSchema(errs)}, nil
}

// Matches reports whether data is valid against s. Schemas that fail to
// compile match nothing.
func (v *Validator) Matches(data any, s *schema.Schema) bool {
	compiled, err := v.compile(s)
	if err != nil {
		return false
	}
	norm, err := jsonvalue.Normalize(data)
	if err != nil {
		return false
	}
	return compiled.Validate(norm) == nil
}

func (v *Validator) compile(s *schema.Schema) (*jsonschema.Schema, error) {
	if s == nil {
		return nil, &CompileError{Err: schema.ErrInvalidSchema}
	}
	key, err := jsonvalue.CanonicalKey(s)
	if err != nil {
		return nil, &CompileError{Err: err}
	}
	doc := []byte(key)

	v.mu.Lock()
	defer v.mu.Unlock()
	if c, ok := v.cache[key]; ok {
		return c, nil
	}
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	c.AssertFormat = true
	c.LoadURL = func(u string) (io.ReadCloser, error) {
		return nil, fmt.Errorf("unknown meta-schema or remote reference %q", u)
	}
	for name, fn := range v.opts.CustomFormats {
		c.Formats[name] = fn
	}
	for _, meta := range v.opts.AdditionalMetaSchemas {
		id := metaSchemaID(meta)
		if id == "" {
			return nil, &CompileError{Err: errors.New("additional meta-schema has no $id")}
		}
		b, err := json.Marshal(meta)
		if err != nil {
			return nil, &CompileError{Err: err}
		}
		if err := c.AddResource(id, bytes.NewReader(b)); err != nil {
			return nil, &CompileError{Err: err}
		}
	}
	if err := c.AddResource(resourceURL, bytes.NewReader(doc)); err != nil {
		return nil, &CompileError{Err: err}
	}
	compiled, err := c.Compile(resourceURL)
	if err != nil {
		return nil, &CompileError{Err: err}
	}
	v.cache[key] = compiled
	return compiled, nil
}

func metaSchemaID(meta *schema.Schema) string {
	if meta == nil {
		return ""
	}
	for _, key := range []string{"$id", "id"} {
		if raw, ok := meta.Keyword(key); ok {
			if id, ok := raw.(string); ok && id != "" {
				return strings.TrimSuffix(id, "#")
			}
		}
	}
	return ""
}

func (v *Validator) translator() i18n.Translator {
	if v.opts.Translator != nil {
		return v.opts.Translator
	}
	return i18n.Current()
}

// convert flattens the engine error tree into Errors ordered by data path and
// then by keyword location.
func (v *Validator) convert(root *jsonschema.ValidationError, s *schema.Schema, data any) Errors {
	var leaves []*jsonschema.ValidationError
	collectLeaves(root, &leaves)
	sort.SliceStable(leaves, func(i, j int) bool {
		if leaves[i].InstanceLocation != leaves[j].InstanceLocation {
			return leaves[i].InstanceLocation < leaves[j].InstanceLocation
		}
		return leaves[i].KeywordLocation < leaves[j].KeywordLocation
	})
	var out Errors
	for _, l := range leaves {
		out = append(out, v.fromLeaf(l, s, data)...)
	}
	return out
}

// collectLeaves keeps errors without causes. oneOf and anyOf failures are kept
// whole instead of reporting every option's errors.
func collectLeaves(ve *jsonschema.ValidationError, out *[]*jsonschema.ValidationError) {
	name := keywordOf(ve.KeywordLocation)
	if len(ve.Causes) == 0 || name == "oneOf" || name == "anyOf" {
		if ve.Message != "" {
			*out = append(*out, ve)
		}
		return
	}
	for _, c := range ve.Causes {
		collectLeaves(c, out)
	}
}

func (v *Validator) fromLeaf(l *jsonschema.ValidationError, s *schema.Schema, data any) Errors {
	path := instancePath(l.InstanceLocation)
	name := keywordOf(l.KeywordLocation)
	value, hasValue := keywordValue(s, l.AbsoluteKeywordLocation)
	if b, ok := value.(bool); hasValue && ok && !b {
		name = "false"
	}
	schemaPath := "#" + l.KeywordLocation

	if name == "required" {
		var out Errors
		for _, prop := range missingProperties(value, hasValue, data, path, l.Message) {
			params := map[string]any{"missingProperty": prop}
			out = append(out, v.newKeywordError(name, path.Child(prop), params, l.Message, schemaPath))
		}
		return out
	}
	params := map[string]any{}
	switch name {
	case "type":
		switch t := value.(type) {
		case []any:
			params["type"] = strings.Join(stringsOf(t), ",")
		default:
			params["type"] = t
		}
	case "minLength", "maxLength", "minimum", "maximum", "exclusiveMinimum", "exclusiveMaximum",
		"multipleOf", "minItems", "maxItems", "minProperties", "maxProperties":
		params["limit"] = value
	case "pattern", "format":
		params[name] = value
	case "enum":
		params["allowedValues"] = value
	case "const":
		params["allowedValue"] = value
	case "dependencies":
		segs := strings.Split(l.KeywordLocation, "/")
		params["dependency"] = unescape(segs[len(segs)-2])
		params["property"] = value
	}
	if !hasValue {
		params = map[string]any{}
	}
	return Errors{v.newKeywordError(name, path, params, l.Message, schemaPath)}
}

func (v *Validator) newKeywordError(name string, path tree.Path, params map[string]any, engineMsg, schemaPath string) Error {
	data := make(map[string]string, len(params))
	for k, p := range params {
		data[k] = paramString(p)
	}
	msg := v.translator().Message(name, data)
	if msg == name || msg == "" || (len(params) == 0 && strings.Contains(msg, "{")) {
		msg = engineMsg
	}
	e := newError(name, path, msg)
	e.Params = params
	e.SchemaPath = schemaPath
	return e
}

// keywordOf returns the keyword a keyword location ends with.
func keywordOf(loc string) string {
	segs := strings.Split(loc, "/")
	n := len(segs)
	if n >= 3 && segs[n-3] == "dependencies" {
		if _, err := strconv.Atoi(segs[n-1]); err == nil {
			return "dependencies"
		}
	}
	return unescape(segs[n-1])
}

func keywordValue(s *schema.Schema, absLoc string) (any, bool) {
	i := strings.Index(absLoc, "#")
	if i < 0 {
		return nil, false
	}
	v, err := schema.Lookup(s, absLoc[i:])
	if err != nil {
		return nil, false
	}
	return v, true
}

func missingProperties(required any, hasRequired bool, data any, path tree.Path, msg string) []string {
	if hasRequired {
		obj, _ := getObject(data, path)
		var out []string
		for _, name := range stringsOf(required) {
			if _, ok := obj[name]; !ok {
				out = append(out, name)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	// "missing properties: 'a', 'b'"
	_, list, ok := strings.Cut(msg, ": ")
	if !ok {
		return nil
	}
	var out []string
	for _, it := range strings.Split(list, ", ") {
		out = append(out, strings.Trim(it, "'"))
	}
	return out
}

func getObject(data any, path tree.Path) (map[string]any, bool) {
	v, ok := jsonvalue.Get(data, path)
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

func instancePath(loc string) tree.Path {
	loc = strings.TrimPrefix(loc, "/")
	if loc == "" {
		return nil
	}
	segs := strings.Split(loc, "/")
	out := make(tree.Path, len(segs))
	for i, s := range segs {
		out[i] = unescape(s)
	}
	return out
}

func unescape(seg string) string {
	return strings.ReplaceAll(strings.ReplaceAll(seg, "~1", "/"), "~0", "~")
}

func stringsOf(v any) []string {
	list, _ := v.([]any)
	out := make([]string, 0, len(list))
	for _, it := range list {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func paramString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
