package schema

import (
	"fmt"
	"strings"

	"github.com/conduit-qa/conduit-test-harness/framework/helpers"
)

// FileErrorKind says what was wrong with a schema file.
type FileErrorKind string

const (
	FileNotFound     FileErrorKind = "not found"
	FileUnreadable   FileErrorKind = "unreadable"
	FileMalformed    FileErrorKind = "malformed"
	FileUncompilable FileErrorKind = "not a valid JSON schema"
)

// FileError means the schema itself could not be used, as opposed to the body failing validation.
type FileError struct {
	Kind FileErrorKind
	Path string
	Err  error
}

func (e *FileError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("schema file %s is %s", e.Path, e.Kind)
	}
	return fmt.Sprintf("schema file %s is %s: %s", e.Path, e.Kind, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Violation is one reason a body did not match its schema.
type Violation struct {
	InstanceLocation string `json:"instanceLocation"`
	KeywordLocation  string `json:"keywordLocation"`
	Message          string `json:"message"`
}

// ViolationError lists every way a body failed to match a schema, followed by the body itself.
type ViolationError struct {
	File       File
	Violations []Violation
	Body       interface{}
}

func (e *ViolationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Schema validation %s failed:\n", e.File.FileName())
	fmt.Fprintf(&b, "%s\n\n", helpers.AsIndentedJSONString(e.Violations))
	fmt.Fprintf(&b, "Actual response body:\n%s\n", helpers.AsIndentedJSONString(e.Body))
	return b.String()
}
