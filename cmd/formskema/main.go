package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"
	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/reoring/formskema"
	"github.com/reoring/formskema/defaults"
	"github.com/reoring/formskema/identity"
	"github.com/reoring/formskema/schema"
	"github.com/reoring/formskema/validate"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	sub := os.Args[1]
	switch sub {
	case "defaults":
		defaultsCmd(os.Args[2:])
	case "resolve":
		resolveCmd(os.Args[2:])
	case "ids":
		idsCmd(os.Args[2:])
	case "paths":
		pathsCmd(os.Args[2:])
	case "validate":
		validateCmd(os.Args[2:])
	case "submit":
		submitCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `formskema CLI

Usage:
  formskema defaults -schema s.json [-data d.json] [-data-path a.b]
  formskema resolve  -schema s.json [-data d.json]
  formskema ids      -schema s.json [-data d.json] [-prefix p] [-root-id id]
  formskema paths    -schema s.json [-data d.json] [-fields]
  formskema validate -schema s.json [-data d.json]
  formskema submit   -config form.yaml [-data d.json] [-omit]

Common flags:
  -format json|yaml|spew  output format (default json)
  -data-path path         select the form data inside the data document (gjson syntax)
  -v                      debug logging on stderr`)
}

// common holds the flags shared by every subcommand.
type common struct {
	schemaPath string
	dataPath   string
	selectPath string
	format     string
	verbose    bool
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.schemaPath, "schema", "", "schema file (.json, .yaml, .yml)")
	fs.StringVar(&c.dataPath, "data", "", "form data file (.json, .yaml, .yml); - reads stdin")
	fs.StringVar(&c.selectPath, "data-path", "", "gjson path selecting the form data inside the data document")
	fs.StringVar(&c.format, "format", "json", "output format: json, yaml or spew")
	fs.BoolVar(&c.verbose, "v", false, "debug logging")
}

func (c *common) setup() {
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func (c *common) schema() *schema.Schema {
	if c.schemaPath == "" {
		fatalf("-schema is required")
	}
	s, err := formskema.LoadSchemaFile(c.schemaPath)
	if err != nil {
		fatalf("load schema: %v", err)
	}
	return s
}

func (c *common) data() any {
	if c.dataPath == "" {
		return nil
	}
	v, err := readData(c.dataPath, c.selectPath)
	if err != nil {
		fatalf("load data: %v", err)
	}
	return v
}

// readData loads a JSON or YAML document and optionally narrows it with a
// gjson path.
func readData(path, selectPath string) (any, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		doc, err := schema.DecodeYAML(bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		if b, err = json.Marshal(doc); err != nil {
			return nil, err
		}
	}
	if selectPath != "" {
		r := gjson.GetBytes(b, selectPath)
		if !r.Exists() {
			return nil, fmt.Errorf("data path %q not found", selectPath)
		}
		b = []byte(r.Raw)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func defaultsCmd(args []string) {
	fs := flag.NewFlagSet("defaults", flag.ExitOnError)
	var c common
	c.register(fs)
	_ = fs.Parse(args)
	c.setup()

	s := c.schema()
	out, err := defaults.Compute(schema.NewResolver(s), s, c.data())
	if err != nil {
		fatalf("defaults: %v", err)
	}
	emit(c.format, out)
}

func resolveCmd(args []string) {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	var c common
	c.register(fs)
	_ = fs.Parse(args)
	c.setup()

	s := c.schema()
	diag := &schema.Diag{}
	r := schema.NewResolver(s, schema.WithDiag(diag))
	out, err := r.Resolve(s, c.data())
	if err != nil {
		fatalf("resolve: %v", err)
	}
	logWarnings(diag)
	emit(c.format, out)
}

func idsCmd(args []string) {
	fs := flag.NewFlagSet("ids", flag.ExitOnError)
	var c common
	var prefix, rootID string
	c.register(fs)
	fs.StringVar(&prefix, "prefix", "", "identifier prefix")
	fs.StringVar(&rootID, "root-id", "", "root identifier (overrides -prefix)")
	_ = fs.Parse(args)
	c.setup()

	s := c.schema()
	r := schema.NewResolver(s)
	data := c.data()
	resolved, err := r.Resolve(s, data)
	if err != nil {
		fatalf("resolve: %v", err)
	}
	ids, err := identity.ToIDSchema(r, resolved, rootID, data, prefix)
	if err != nil {
		fatalf("ids: %v", err)
	}
	emit(c.format, ids)
}

func pathsCmd(args []string) {
	fs := flag.NewFlagSet("paths", flag.ExitOnError)
	var c common
	var fields bool
	c.register(fs)
	fs.BoolVar(&fields, "fields", false, "print leaf field paths instead of the path tree")
	_ = fs.Parse(args)
	c.setup()

	s := c.schema()
	r := schema.NewResolver(s)
	data := c.data()
	resolved, err := r.Resolve(s, data)
	if err != nil {
		fatalf("resolve: %v", err)
	}
	paths, err := identity.ToPathSchema(r, resolved, "", data)
	if err != nil {
		fatalf("paths: %v", err)
	}
	if !fields {
		emit(c.format, paths)
		return
	}
	names := make([]string, 0)
	for _, p := range identity.FieldNames(paths) {
		names = append(names, p.String())
	}
	emit(c.format, names)
}

type validateOutput struct {
	Valid       bool                 `json:"valid"`
	Errors      []errorOutput        `json:"errors"`
	ErrorSchema validate.ErrorSchema `json:"errorSchema"`
}

type errorOutput struct {
	Name       string         `json:"name"`
	Property   string         `json:"property"`
	Message    string         `json:"message"`
	Params     map[string]any `json:"params,omitempty"`
	Stack      string         `json:"stack"`
	SchemaPath string         `json:"schemaPath,omitempty"`
}

func toOutput(res validate.Result) validateOutput {
	out := validateOutput{Valid: res.Valid(), Errors: []errorOutput{}, ErrorSchema: res.ErrorSchema}
	for _, e := range res.Errors {
		out.Errors = append(out.Errors, errorOutput{
			Name: e.Name, Property: e.Property, Message: e.Message,
			Params: e.Params, Stack: e.Stack, SchemaPath: e.SchemaPath,
		})
	}
	return out
}

func validateCmd(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	var c common
	c.register(fs)
	_ = fs.Parse(args)
	c.setup()

	s := c.schema()
	data := c.data()
	v := validate.New(validate.Options{})
	diag := &schema.Diag{}
	r := schema.NewResolver(s, schema.WithMatcher(v), schema.WithDiag(diag))
	resolved, err := r.Resolve(s, data)
	if err != nil {
		fatalf("resolve: %v", err)
	}
	logWarnings(diag)
	res, err := v.Validate(data, resolved.WithDefinitionsFrom(r.Root()))
	if err != nil {
		fatalf("validate: %v", err)
	}
	emit(c.format, toOutput(res))
	if !res.Valid() {
		os.Exit(1)
	}
}

func submitCmd(args []string) {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	var c common
	var configPath string
	var omitExtra bool
	c.register(fs)
	fs.StringVar(&configPath, "config", "", "form config file (.yaml or .json)")
	fs.BoolVar(&omitExtra, "omit", false, "strip fields unknown to the schema")
	_ = fs.Parse(args)
	c.setup()

	var p formskema.Props
	if configPath != "" {
		cfg, err := formskema.LoadConfig(configPath)
		if err != nil {
			fatalf("%v", err)
		}
		if p, err = cfg.Props(); err != nil {
			fatalf("%v", err)
		}
	} else {
		p.Schema = c.schema()
	}
	if c.dataPath != "" {
		p.FormData = c.data()
	}
	p.OmitExtraData = p.OmitExtraData || omitExtra

	var submitted any
	p.OnSubmit = func(st formskema.State, _ formskema.SubmitEvent) { submitted = st.FormData }
	p.OnError = func(validate.Errors) {}
	f, err := formskema.New(p)
	if err != nil {
		fatalf("form: %v", err)
	}
	err = f.RequestSubmit()
	if sb, ok := formskema.AsSubmissionBlocked(err); ok {
		st := f.State()
		emit(c.format, toOutput(validate.Result{Errors: sb.Errors, ErrorSchema: st.ErrorSchema}))
		os.Exit(1)
	}
	if err != nil {
		fatalf("submit: %v", err)
	}
	emit(c.format, submitted)
}

func logWarnings(d *schema.Diag) {
	for _, w := range d.Warnings() {
		slog.Warn("schema resolution warning", "warning", w)
	}
}

func emit(format string, v any) {
	switch format {
	case "spew":
		spew.Fdump(os.Stdout, v)
	case "yaml":
		b, err := json.Marshal(v)
		if err != nil {
			fatalf("encode: %v", err)
		}
		var generic any
		if err := json.Unmarshal(b, &generic); err != nil {
			fatalf("encode: %v", err)
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			fatalf("encode: %v", err)
		}
		_ = enc.Close()
	default:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			fatalf("encode: %v", err)
		}
		fmt.Println(string(b))
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
