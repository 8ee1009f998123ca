package formskema_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/formskema"
)

const configYAML = `
schema:
  type: object
  required: [name]
  properties:
    name:
      type: string
    zip:
      type: string
      format: zip
formData:
  zip: "12"
extraErrors:
  name:
    __errors: ["checked on server"]
idPrefix: signup
liveValidate: true
language: ja
customFormats:
  zip: '^\d{3}$'
`

func TestParseConfig_Props(t *testing.T) {
	cfg, err := formskema.ParseConfig([]byte(configYAML))
	require.NoError(t, err)
	p, err := cfg.Props()
	require.NoError(t, err)
	assert.Equal(t, "signup", p.IDPrefix)
	assert.True(t, p.LiveValidate)
	require.NotNil(t, p.Translator)
	require.Contains(t, p.CustomFormats, "zip")
	assert.True(t, p.CustomFormats["zip"]("123"))
	assert.False(t, p.CustomFormats["zip"]("12"))

	f, err := formskema.New(p)
	require.NoError(t, err)
	st := f.State()
	assert.Equal(t, []string{"必須プロパティです", "checked on server"}, st.ErrorSchema.Messages("name"))
	assert.Len(t, st.ErrorSchema.Messages("zip"), 1)
	id, _ := st.IDSchema.ID("zip")
	assert.Equal(t, "signup_zip", id)
}

func TestParseConfig_RejectsUnknownKeys(t *testing.T) {
	_, err := formskema.ParseConfig([]byte("schema: {type: object}\nliveValidat: true\n"))
	assert.Error(t, err)
}

func TestConfig_SchemaSources(t *testing.T) {
	cfg, err := formskema.ParseConfig([]byte("liveValidate: true\n"))
	require.NoError(t, err)
	_, err = cfg.Props()
	assert.ErrorIs(t, err, formskema.ErrNoSchema)

	cfg, err = formskema.ParseConfig([]byte("schema: {type: object}\nschemaFile: s.json\n"))
	require.NoError(t, err)
	_, err = cfg.Props()
	assert.Error(t, err)

	cfg, err = formskema.ParseConfig([]byte("schema: {type: object}\ncustomFormats: {bad: '('}\n"))
	require.NoError(t, err)
	_, err = cfg.Props()
	assert.Error(t, err)
}

func TestLoadConfig_SchemaFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "person.yaml"), []byte("type: object\nproperties:\n  age:\n    type: integer\n    default: 21\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "form.yaml"), []byte("schemaFile: person.yaml\nomitExtraData: true\n"), 0o600))

	cfg, err := formskema.LoadConfig(filepath.Join(dir, "form.yaml"))
	require.NoError(t, err)
	p, err := cfg.Props()
	require.NoError(t, err)
	assert.True(t, p.OmitExtraData)

	f, err := formskema.New(p)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"age": 21.0}, f.State().FormData)

	_, err = formskema.LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadSchemaFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"string"}`), 0o600))
	s, err := formskema.LoadSchemaFile(path)
	require.NoError(t, err)
	assert.Equal(t, "string", s.Type())
}
