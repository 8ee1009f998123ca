package validate_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/formskema/i18n"
	"github.com/reoring/formskema/schema"
	"github.com/reoring/formskema/tree"
	"github.com/reoring/formskema/validate"
)

func mustSchema(t *testing.T, doc string) *schema.Schema {
	t.Helper()
	s, err := schema.ParseJSON([]byte(doc))
	require.NoError(t, err)
	return s
}

const personDoc = `{
	"type": "object",
	"required": ["name", "age"],
	"properties": {
		"name": {"type": "string", "minLength": 3},
		"age": {"type": "integer", "minimum": 0},
		"email": {"type": "string", "format": "email"}
	}
}`

func TestValidate_RequiredPerProperty(t *testing.T) {
	res, err := validate.Validate(map[string]any{}, mustSchema(t, personDoc), nil, nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, res.Errors, 2)

	e := res.Errors[0]
	assert.Equal(t, "required", e.Name)
	assert.Equal(t, ".name", e.Property)
	assert.Equal(t, tree.Path{"name"}, e.Path)
	assert.Equal(t, "is a required property", e.Message)
	assert.Equal(t, ".name is a required property", e.Stack)
	assert.Equal(t, map[string]any{"missingProperty": "name"}, e.Params)
	assert.Equal(t, "#/required", e.SchemaPath)
	assert.Equal(t, ".age", res.Errors[1].Property)

	assert.Equal(t, []string{"is a required property"}, res.ErrorSchema.Messages("name"))
	assert.Equal(t, []string{"is a required property"}, res.ErrorSchema.Messages("age"))
	assert.False(t, res.Valid())
	assert.Error(t, res.Err())
}

func TestValidate_KeywordParams(t *testing.T) {
	data := map[string]any{"name": "ab", "age": -1, "email": "nope"}
	res, err := validate.Validate(data, mustSchema(t, personDoc), nil, nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, res.Errors, 3)

	byName := map[string]validate.Error{}
	for _, e := range res.Errors {
		byName[e.Name] = e
	}
	assert.Equal(t, "should NOT be shorter than 3 characters", byName["minLength"].Message)
	assert.Equal(t, 3.0, byName["minLength"].Params["limit"])
	assert.Equal(t, ".name", byName["minLength"].Property)
	assert.Equal(t, "should be >= 0", byName["minimum"].Message)
	assert.Equal(t, `should match format "email"`, byName["format"].Message)

	// sorted by data path
	assert.Equal(t, []string{".age", ".email", ".name"}, []string{res.Errors[0].Property, res.Errors[1].Property, res.Errors[2].Property})
}

func TestValidate_TypeList(t *testing.T) {
	res, err := validate.Validate(true, mustSchema(t, `{"type": ["string", "null"]}`), nil, nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "type", res.Errors[0].Name)
	assert.Equal(t, "should be string,null", res.Errors[0].Message)
	assert.Equal(t, "", res.Errors[0].Property)
}

func TestValidate_LocalDefinitions(t *testing.T) {
	s := mustSchema(t, `{
		"definitions": {"address": {"type": "object", "required": ["city"], "properties": {"city": {"type": "string"}}}},
		"type": "object",
		"properties": {"home": {"$ref": "#/definitions/address"}}
	}`)
	res, err := validate.Validate(map[string]any{"home": map[string]any{}}, s, nil, nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "required", res.Errors[0].Name)
	assert.Equal(t, []string{"is a required property"}, res.ErrorSchema.Messages("home", "city"))

	res, err = validate.Validate(map[string]any{"home": map[string]any{"city": "Oslo"}}, s, nil, nil, nil, nil)
	require.NoError(t, err)
	assert.True(t, res.Valid())
}

func TestValidate_Valid(t *testing.T) {
	res, err := validate.Validate(map[string]any{"name": "Alice", "age": 30}, mustSchema(t, personDoc), nil, nil, nil, nil)
	require.NoError(t, err)
	assert.True(t, res.Valid())
	assert.NoError(t, res.Err())
	assert.True(t, res.ErrorSchema.IsEmpty())
}

func TestValidate_CustomValidate(t *testing.T) {
	s := mustSchema(t, `{"type": "object", "properties": {"pass1": {"type": "string"}, "pass2": {"type": "string"}, "items": {"type": "array"}}}`)
	custom := func(formData any, errs validate.ErrorHandler) {
		m := formData.(map[string]any)
		if m["pass1"] != m["pass2"] {
			errs.Field("pass2").AddError("passwords don't match")
		}
		errs.Field("items").Index(1).AddError("too expensive")
		m["pass1"] = "mutated"
	}
	data := map[string]any{"pass1": "a", "pass2": "b", "items": []any{1, 2}}
	res, err := validate.Validate(data, s, custom, nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, res.Errors, 2)

	assert.Equal(t, validate.NameCustom, res.Errors[0].Name)
	assert.Equal(t, ".pass2", res.Errors[0].Property)
	assert.Equal(t, []string{"passwords don't match"}, res.ErrorSchema.Messages("pass2"))
	assert.Equal(t, []string{"too expensive"}, res.ErrorSchema.Messages("items", "1"))
	assert.Equal(t, "a", data["pass1"], "custom validate must not see the caller's data")
}

func TestValidate_TransformErrors(t *testing.T) {
	transform := func(errs validate.Errors) validate.Errors {
		out := validate.Errors{}
		for _, e := range errs {
			if e.Name == "required" && e.Property == ".age" {
				continue
			}
			e.Message = strings.ToUpper(e.Message)
			out = append(out, e)
		}
		return out
	}
	custom := func(_ any, errs validate.ErrorHandler) { errs.AddError("form level") }
	res, err := validate.Validate(map[string]any{}, mustSchema(t, personDoc), custom, transform, nil, nil)
	require.NoError(t, err)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, "IS A REQUIRED PROPERTY", res.Errors[0].Message)
	assert.Equal(t, "FORM LEVEL", res.Errors[1].Message)
	assert.Equal(t, []string{"FORM LEVEL"}, res.ErrorSchema.Messages())
	assert.Nil(t, res.ErrorSchema.Messages("age"))
}

func TestValidate_CustomFormats(t *testing.T) {
	zip, err := validate.FormatPattern(`^\d{3}-\d{4}$`)
	require.NoError(t, err)
	s := mustSchema(t, `{"type": "string", "format": "zip"}`)
	formats := map[string]validate.FormatChecker{"zip": zip}

	res, err := validate.Validate("123-4567", s, nil, nil, nil, formats)
	require.NoError(t, err)
	assert.True(t, res.Valid())

	res, err = validate.Validate("1234567", s, nil, nil, nil, formats)
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "format", res.Errors[0].Name)

	_, err = validate.FormatPattern("(")
	assert.Error(t, err)
}

func TestValidate_MetaSchemas(t *testing.T) {
	s := mustSchema(t, `{"$schema": "http://example.com/meta#", "type": "string"}`)

	_, err := validate.Validate("x", s, nil, nil, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, validate.ErrSchemaCompile))
	assert.Contains(t, err.Error(), "http://example.com/meta")

	meta := mustSchema(t, `{"$id": "http://example.com/meta#", "$schema": "http://json-schema.org/draft-07/schema#"}`)
	res, err := validate.Validate("x", s, nil, nil, []*schema.Schema{meta}, nil)
	require.NoError(t, err)
	assert.True(t, res.Valid())
}

func TestValidate_Dependencies(t *testing.T) {
	s := mustSchema(t, `{
		"type": "object",
		"properties": {"card": {"type": "string"}, "billing": {"type": "string"}},
		"dependencies": {"card": ["billing"]}
	}`)
	res, err := validate.Validate(map[string]any{"card": "1"}, s, nil, nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	e := res.Errors[0]
	assert.Equal(t, "dependencies", e.Name)
	assert.Equal(t, "card", e.Params["dependency"])
	assert.Equal(t, "billing", e.Params["property"])
	assert.Equal(t, "should have property billing when property card is present", e.Message)
}

func TestValidate_Translator(t *testing.T) {
	v := validate.New(validate.Options{Translator: i18n.Dictionary("ja")})
	res, err := v.Validate(map[string]any{}, mustSchema(t, personDoc))
	require.NoError(t, err)
	require.NotEmpty(t, res.Errors)
	assert.Equal(t, "必須プロパティです", res.Errors[0].Message)
}

func TestValidator_Matches(t *testing.T) {
	v := validate.New(validate.Options{})
	s := mustSchema(t, `{"type": "object", "properties": {"n": {"const": 1}}}`)
	assert.True(t, v.Matches(map[string]any{"n": 1}, s))
	assert.False(t, v.Matches(map[string]any{"n": 2}, s))
	assert.False(t, v.Matches(nil, mustSchema(t, `{"$ref": "#/definitions/none"}`)))
}

func TestValidator_ConcurrentUse(t *testing.T) {
	v := validate.New(validate.Options{})
	s := mustSchema(t, personDoc)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := v.Validate(map[string]any{"name": "x"}, s)
			assert.NoError(t, err)
			assert.Len(t, res.Errors, 2)
		}()
	}
	wg.Wait()
}

func TestErrors_Error(t *testing.T) {
	errs := validate.Errors{
		{Name: "required", Property: ".a"},
		{Name: "type", Property: ".b"},
		{Name: "custom", Property: ""},
		{Name: "minimum", Property: ".d"},
	}
	assert.Equal(t, "required at .a; type at .b; custom at .; ... (total 4)", errs.Error())

	got, ok := validate.AsErrors(errs)
	require.True(t, ok)
	assert.Len(t, got, 4)
	_, ok = validate.AsErrors(errors.New("x"))
	assert.False(t, ok)
}
