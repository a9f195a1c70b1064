package api

import (
	"fmt"
	"strings"
	"sync"

	"github.com/conduit-qa/conduit-test-harness/framework"
	"github.com/conduit-qa/conduit-test-harness/framework/helpers"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// RedactedValue replaces the value of any "password" property before a body is logged.
const RedactedValue = "***"

// LogKind distinguishes the two kinds of entries recorded by Logger.
type LogKind string

const (
	RequestLog  LogKind = "Request Details"
	ResponseLog LogKind = "Response Details"
)

// RequestDetails is what gets logged for an outgoing request.
type RequestDetails struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Body    interface{}       `json:"body,omitempty"`
}

// ResponseDetails is what gets logged for a response.
type ResponseDetails struct {
	StatusCode int         `json:"statusCode"`
	Body       interface{} `json:"body,omitempty"`
}

// LogEntry is one recorded request or response.
type LogEntry struct {
	Kind LogKind
	Data interface{}
}

// Logger keeps an ordered record of the API activity of a single test, so that an assertion
// failure can show what was sent and received. Entries are also mirrored to a debug logger,
// normally the test scope's own.
//
// Passwords never reach the record: request bodies are redacted when they are logged.
type Logger struct {
	debugLogger framework.Logger
	entries     []LogEntry
	lock        sync.Mutex
}

// NewLogger creates an empty Logger. debugLogger may be nil.
func NewLogger(debugLogger framework.Logger) *Logger {
	if debugLogger == nil {
		debugLogger = framework.NullLogger()
	}
	return &Logger{debugLogger: debugLogger}
}

// LogRequest records an outgoing request. The headers are logged as given, including Authorization.
func (l *Logger) LogRequest(method, url string, headers map[string]string, body interface{}) {
	copied := make(map[string]string, len(headers))
	for k, v := range headers {
		copied[k] = v
	}
	l.add(LogEntry{Kind: RequestLog, Data: RequestDetails{
		Method:  method,
		URL:     url,
		Headers: copied,
		Body:    RedactPasswords(body),
	}})
}

// LogResponse records a response.
func (l *Logger) LogResponse(statusCode int, body Body) {
	var logged interface{}
	if !body.IsEmpty() {
		logged = RedactPasswords(body)
	}
	l.add(LogEntry{Kind: ResponseLog, Data: ResponseDetails{StatusCode: statusCode, Body: logged}})
}

func (l *Logger) add(e LogEntry) {
	l.lock.Lock()
	l.entries = append(l.entries, e)
	l.lock.Unlock()
	l.debugLogger.Println(formatEntry(e))
}

// DebugLogger returns the logger that activity is mirrored to.
func (l *Logger) DebugLogger() framework.Logger { return l.debugLogger }

// Entries returns a copy of everything logged so far, oldest first.
func (l *Logger) Entries() []LogEntry {
	l.lock.Lock()
	defer l.lock.Unlock()
	return append([]LogEntry(nil), l.entries...)
}

// RecentLogs renders every entry as a "=====<Kind>=====" line followed by its data as indented
// JSON, with a blank line between entries.
func (l *Logger) RecentLogs() string {
	entries := l.Entries()
	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		blocks = append(blocks, formatEntry(e))
	}
	return strings.Join(blocks, "\n\n")
}

func formatEntry(e LogEntry) string {
	return fmt.Sprintf("=====%s=====\n%s", e.Kind, helpers.AsIndentedJSONString(e.Data))
}

// RedactPasswords returns a deep copy of body, as plain JSON-compatible data, in which the value
// of every "password" property at any depth has been replaced with RedactedValue. The argument
// is never modified. A nil body stays nil. A string holding a JSON object or array is parsed and
// redacted, so pre-serialized payloads are covered too; any other string is returned unchanged.
func RedactPasswords(body interface{}) interface{} {
	switch b := body.(type) {
	case nil:
		return nil
	case string:
		parsed, err := parseJSON([]byte(b))
		if err != nil || (parsed.Type() != ldvalue.ObjectType && parsed.Type() != ldvalue.ArrayType) {
			return b
		}
		return redactValue(parsed).AsArbitraryValue()
	}
	return redactValue(ldvalue.FromJSONMarshal(body)).AsArbitraryValue()
}

func redactValue(v ldvalue.Value) ldvalue.Value {
	switch v.Type() {
	case ldvalue.ObjectType:
		b := ldvalue.ObjectBuild()
		for k, item := range v.AsValueMap().AsMap() {
			if strings.EqualFold(k, "password") {
				b.Set(k, ldvalue.String(RedactedValue))
			} else {
				b.Set(k, redactValue(item))
			}
		}
		return b.Build()
	case ldvalue.ArrayType:
		b := ldvalue.ArrayBuild()
		for _, item := range v.AsValueArray().AsSlice() {
			b.Add(redactValue(item))
		}
		return b.Build()
	default:
		return v
	}
}
