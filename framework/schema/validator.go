// Package schema validates response bodies against JSON schema files kept on disk, and can
// generate those files from a known-good response.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/conduit-qa/conduit-test-harness/framework"
	"github.com/conduit-qa/conduit-test-harness/framework/helpers"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/jsonc"
)

// DefaultBaseDir is where schema files live unless configured otherwise.
const DefaultBaseDir = "./response-schemas"

// Validator reads schema files from <base>/<dir>/<name>_schema.json. Schema files may contain
// comments, which are stripped before parsing.
type Validator struct {
	baseDir   string
	updateAll bool
	logger    framework.Logger
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithUpdateAll makes every validation regenerate its schema from the body first, as if
// CreateSchema had been passed to each call. It is for refreshing the whole schema set in one run.
func WithUpdateAll(updateAll bool) ValidatorOption {
	return func(v *Validator) { v.updateAll = updateAll }
}

// NewValidator creates a Validator rooted at baseDir, or DefaultBaseDir if that is empty.
func NewValidator(baseDir string, logger framework.Logger, options ...ValidatorOption) *Validator {
	if baseDir == "" {
		baseDir = DefaultBaseDir
	}
	if logger == nil {
		logger = framework.NullLogger()
	}
	v := &Validator{baseDir: baseDir, logger: logger}
	for _, o := range options {
		o(v)
	}
	return v
}

// ValidateOption modifies a single validation.
type ValidateOption func(*validateOptions)

type validateOptions struct {
	create bool
}

// CreateSchema makes Validate write a schema inferred from the body before validating against it.
// The body therefore always passes; what it leaves behind is a schema file for later runs.
func CreateSchema() ValidateOption {
	return func(o *validateOptions) { o.create = true }
}

// BaseDir returns the schema root.
func (v *Validator) BaseDir() string { return v.baseDir }

// Path returns the location of a schema file.
func (v *Validator) Path(f File) string {
	return filepath.Join(v.baseDir, string(f.dir), f.FileName())
}

// Validate checks body against the schema file. Every violation is reported, not just the first:
// the error is a *ViolationError if the body does not match, or a *FileError if the schema is
// missing or unusable.
func (v *Validator) Validate(f File, body interface{}, options ...ValidateOption) error {
	if !f.IsDefined() {
		return errors.New("no schema file specified")
	}
	var opts validateOptions
	for _, o := range options {
		o(&opts)
	}

	instance, err := normalize(body)
	if err != nil {
		return err
	}

	if opts.create || v.updateAll {
		if err := v.write(f, InferSchema(instance)); err != nil {
			return err
		}
	}

	compiled, err := v.compile(f)
	if err != nil {
		return err
	}
	if err := compiled.Validate(instance); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		ret := &ViolationError{File: f, Body: instance}
		collectViolations(ve, &ret.Violations)
		return ret
	}
	return nil
}

// Generate writes a schema inferred from body, replacing any existing file.
func (v *Validator) Generate(f File, body interface{}) error {
	instance, err := normalize(body)
	if err != nil {
		return err
	}
	return v.write(f, InferSchema(instance))
}

// Load returns the schema file's contents as plain JSON, with any comments removed.
func (v *Validator) Load(f File) ([]byte, error) {
	path := v.Path(f)
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &FileError{Kind: FileNotFound, Path: path}
		}
		return nil, &FileError{Kind: FileUnreadable, Path: path, Err: err}
	}
	stripped := jsonc.ToJSON(data)
	var parsed interface{}
	if err := json.Unmarshal(stripped, &parsed); err != nil {
		return nil, &FileError{Kind: FileMalformed, Path: path, Err: err}
	}
	if _, ok := parsed.(map[string]interface{}); !ok {
		return nil, &FileError{Kind: FileMalformed, Path: path, Err: errors.New("top level is not a JSON object")}
	}
	return stripped, nil
}

func (v *Validator) compile(f File) (*jsonschema.Schema, error) {
	data, err := v.Load(f)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	url := "file:///" + filepath.ToSlash(f.String()) + FileSuffix
	if err := compiler.AddResource(url, bytes.NewReader(data)); err != nil {
		return nil, &FileError{Kind: FileUncompilable, Path: v.Path(f), Err: err}
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, &FileError{Kind: FileUncompilable, Path: v.Path(f), Err: err}
	}
	return compiled, nil
}

func (v *Validator) write(f File, schema map[string]interface{}) error {
	path := v.Path(f)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec
		return fmt.Errorf("cannot create schema directory: %w", err)
	}
	data := []byte(helpers.AsIndentedJSONString(schema) + "\n")
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("cannot write schema file: %w", err)
	}
	v.logger.Printf("Wrote schema %s", path)
	return nil
}

// Decode validates body against the schema and then decodes it into a T, so that a test only
// works with data whose shape has been checked.
func Decode[T any](v *Validator, f File, body interface{}, options ...ValidateOption) (T, error) {
	var ret T
	if err := v.Validate(f, body, options...); err != nil {
		return ret, err
	}
	data, err := json.Marshal(body)
	if err != nil {
		return ret, err
	}
	err = json.Unmarshal(data, &ret)
	return ret, err
}

func normalize(body interface{}) (interface{}, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("body is not JSON-serializable: %w", err)
	}
	var ret interface{}
	if err := json.Unmarshal(data, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func collectViolations(ve *jsonschema.ValidationError, out *[]Violation) {
	if len(ve.Causes) == 0 {
		*out = append(*out, Violation{
			InstanceLocation: ve.InstanceLocation,
			KeywordLocation:  ve.KeywordLocation,
			Message:          ve.Message,
		})
		return
	}
	for _, cause := range ve.Causes {
		collectViolations(cause, out)
	}
}
