package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/conduit-qa/conduit-test-harness/framework"

	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/ohler55/ojg/jp"
)

type bodyKind int

const (
	bodyEmpty bodyKind = iota
	bodyJSON
	bodyText
)

// Body is a response body as seen by a test: empty, parsed JSON, or raw text when the response
// was not valid JSON. The zero value is an empty body.
type Body struct {
	kind  bodyKind
	value ldvalue.Value
	text  string
}

// JSONBody wraps an already-parsed JSON value.
func JSONBody(value ldvalue.Value) Body {
	return Body{kind: bodyJSON, value: value, text: value.JSONString()}
}

// TextBody wraps raw text that is not JSON.
func TextBody(text string) Body {
	if text == "" {
		return Body{}
	}
	return Body{kind: bodyText, text: text}
}

// ParseBody interprets a response body. A 204 status or an empty payload produces an empty Body.
// Otherwise the payload must be exactly one JSON value; if it is not, the parse error is written to
// debugLogger and the raw text is kept instead.
func ParseBody(statusCode int, data []byte, debugLogger framework.Logger) Body {
	if statusCode == http.StatusNoContent || len(strings.TrimSpace(string(data))) == 0 {
		return Body{}
	}
	value, err := parseJSON(data)
	if err != nil {
		if debugLogger != nil {
			debugLogger.Printf("Response body is not valid JSON (%s); keeping it as text", err)
		}
		return TextBody(string(data))
	}
	return Body{kind: bodyJSON, value: value, text: string(data)}
}

// parseJSON reads exactly one JSON value; anything but whitespace after it is an error.
func parseJSON(data []byte) (ldvalue.Value, error) {
	r := jreader.NewReader(data)
	var value ldvalue.Value
	value.ReadFromJSONReader(&r)
	if err := r.Error(); err != nil {
		return ldvalue.Null(), err
	}
	return value, r.RequireEOF()
}

// ResponseBody interprets a Response the way the request handler does. Only a response that declares
// a JSON content type is parsed; anything else, including a response with no Content-Type, is kept
// as text.
func ResponseBody(resp *Response, debugLogger framework.Logger) Body {
	if isJSON, _ := resp.DeclaresJSON(); !isJSON {
		if resp.StatusCode == http.StatusNoContent || len(strings.TrimSpace(string(resp.Body))) == 0 {
			return Body{}
		}
		return TextBody(string(resp.Body))
	}
	return ParseBody(resp.StatusCode, resp.Body, debugLogger)
}

func (b Body) IsEmpty() bool { return b.kind == bodyEmpty }

func (b Body) IsJSON() bool { return b.kind == bodyJSON }

// Value returns the parsed JSON value, or ldvalue.Null() if the body is empty or not JSON.
func (b Body) Value() ldvalue.Value {
	if b.kind != bodyJSON {
		return ldvalue.Null()
	}
	return b.value
}

// Text returns the body exactly as received.
func (b Body) Text() string { return b.text }

// Get follows a chain of object property names, returning ldvalue.Null() if any step is missing.
func (b Body) Get(keys ...string) ldvalue.Value {
	v := b.Value()
	for _, k := range keys {
		v = v.GetByKey(k)
	}
	return v
}

// Path evaluates a JSONPath expression such as "$.articles[*].slug" against the body and returns
// every match as a plain Go value.
func (b Body) Path(expr string) ([]interface{}, error) {
	x, err := jp.ParseString(expr)
	if err != nil {
		return nil, err
	}
	return x.Get(b.Value().AsArbitraryValue()), nil
}

// Decode unmarshals the body into out, the way json.Unmarshal would.
func (b Body) Decode(out interface{}) error {
	return json.Unmarshal([]byte(b.JSONString()), out)
}

// JSONString returns the body as JSON text: "null" for an empty body, a JSON string for a text body.
func (b Body) JSONString() string {
	switch b.kind {
	case bodyJSON:
		return b.value.JSONString()
	case bodyText:
		return ldvalue.String(b.text).JSONString()
	default:
		return "null"
	}
}

func (b Body) MarshalJSON() ([]byte, error) {
	return []byte(b.JSONString()), nil
}

func (b Body) String() string {
	if b.kind == bodyJSON {
		return b.value.JSONString()
	}
	return b.text
}
