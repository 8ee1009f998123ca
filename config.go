package formskema

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/reoring/formskema/i18n"
	"github.com/reoring/formskema/internal/jsonvalue"
	"github.com/reoring/formskema/schema"
	"github.com/reoring/formskema/validate"
)

// Config is a file-based description of a form. YAML and JSON documents are
// both accepted.
type Config struct {
	// Schema is an inline schema document; SchemaFile names a JSON or YAML file
	// relative to the config file. Exactly one should be set.
	Schema     map[string]any `yaml:"schema"`
	SchemaFile string         `yaml:"schemaFile"`

	UISchema    map[string]any `yaml:"uiSchema"`
	FormData    any            `yaml:"formData"`
	ExtraErrors map[string]any `yaml:"extraErrors"`
	IDPrefix    string         `yaml:"idPrefix"`

	LiveValidate  bool `yaml:"liveValidate"`
	NoValidate    bool `yaml:"noValidate"`
	OmitExtraData bool `yaml:"omitExtraData"`
	LiveOmit      bool `yaml:"liveOmit"`
	ShowErrorList bool `yaml:"showErrorList"`

	// Language selects the built-in message catalog ("en", "ja").
	Language string `yaml:"language"`
	// CustomFormats maps a format name to a regular expression.
	CustomFormats map[string]string `yaml:"customFormats"`

	dir string
}

// LoadConfig reads a Config file. Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("formskema: read config: %w", err)
	}
	cfg, err := ParseConfig(b)
	if err != nil {
		return nil, fmt.Errorf("formskema: %s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// ParseConfig decodes a Config document. Relative schema files resolve
// against the working directory.
func ParseConfig(b []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Props converts the config into Props. Callbacks and components are left
// for the caller to fill in.
func (c *Config) Props() (Props, error) {
	s, err := c.loadSchema()
	if err != nil {
		return Props{}, err
	}
	formData, err := jsonvalue.Normalize(c.FormData)
	if err != nil {
		return Props{}, fmt.Errorf("formskema: formData: %w", err)
	}
	p := Props{
		Schema:        s,
		UISchema:      c.UISchema,
		FormData:      formData,
		IDPrefix:      c.IDPrefix,
		LiveValidate:  c.LiveValidate,
		NoValidate:    c.NoValidate,
		OmitExtraData: c.OmitExtraData,
		LiveOmit:      c.LiveOmit,
		ShowErrorList: c.ShowErrorList,
	}
	if c.Language != "" {
		p.Translator = i18n.Dictionary(c.Language)
	}
	if len(c.ExtraErrors) > 0 {
		if p.ExtraErrors, err = validate.FromMap(c.ExtraErrors); err != nil {
			return Props{}, fmt.Errorf("formskema: extraErrors: %w", err)
		}
	}
	if len(c.CustomFormats) > 0 {
		p.CustomFormats = make(map[string]validate.FormatChecker, len(c.CustomFormats))
		for name, expr := range c.CustomFormats {
			fc, err := validate.FormatPattern(expr)
			if err != nil {
				return Props{}, fmt.Errorf("formskema: customFormats.%s: %w", name, err)
			}
			p.CustomFormats[name] = fc
		}
	}
	return p, nil
}

func (c *Config) loadSchema() (*schema.Schema, error) {
	switch {
	case c.Schema != nil && c.SchemaFile != "":
		return nil, fmt.Errorf("formskema: config sets both schema and schemaFile")
	case c.Schema != nil:
		norm, err := jsonvalue.Normalize(c.Schema)
		if err != nil {
			return nil, fmt.Errorf("formskema: schema: %w", err)
		}
		return schema.Parse(norm)
	case c.SchemaFile != "":
		return LoadSchemaFile(filepath.Join(c.dir, c.SchemaFile))
	}
	return nil, ErrNoSchema
}

// LoadSchemaFile reads a schema from a .json, .yaml or .yml file.
func LoadSchemaFile(path string) (*schema.Schema, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("formskema: read schema: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return schema.ParseYAML(b)
	}
	return schema.ParseJSON(b)
}
