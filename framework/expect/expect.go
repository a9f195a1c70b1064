// Package expect provides assertions whose failure messages include the recent API activity of
// the test, so that a failed check can be understood without rerunning it.
package expect

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/conduit-qa/conduit-test-harness/framework/api"
	"github.com/conduit-qa/conduit-test-harness/framework/helpers"
	"github.com/conduit-qa/conduit-test-harness/framework/schema"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	m "github.com/launchdarkly/go-test-helpers/v2/matchers"
)

// NoLogsMessage stands in for the activity log when an Expect has no api.Logger.
const NoLogsMessage = "No API logs available"

// Expect creates subjects for assertions. It is cheap to copy.
type Expect struct {
	t         helpers.TestContext
	logger    *api.Logger
	validator *schema.Validator
}

// New creates an Expect that reports failures to t. logger and validator may be nil; without a
// validator, schema assertions fail.
func New(t helpers.TestContext, logger *api.Logger, validator *schema.Validator) Expect {
	return Expect{t: t, logger: logger, validator: validator}
}

// Subject is a value under test.
type Subject struct {
	e       Expect
	value   interface{}
	negated bool
	soft    bool
}

// That starts an assertion about value.
func (e Expect) That(value interface{}) Subject {
	return Subject{e: e, value: value}
}

// Not inverts the following assertion.
func (s Subject) Not() Subject {
	s.negated = !s.negated
	return s
}

// Soft makes a failing assertion mark the test as failed without stopping it.
func (s Subject) Soft() Subject {
	s.soft = true
	return s
}

// ShouldBeEqual passes if the value equals expected. Values are compared structurally; when either
// side is JSON data (an api.Body or ldvalue.Value) they are compared by their JSON representation,
// so ldvalue.String("x") equals "x".
func (s Subject) ShouldBeEqual(expected interface{}) bool {
	s.e.t.Helper()
	return s.check("shouldBeEqual", equalMatcher(s.value, expected), expected)
}

// ShouldBeLessThanOrEqual passes if the value is a number no greater than expected, or a string
// that sorts no later than expected.
func (s Subject) ShouldBeLessThanOrEqual(expected interface{}) bool {
	s.e.t.Helper()
	return s.check("shouldBeLessThanOrEqual", LessThanOrEqual(expected), expected)
}

// ShouldMatchSchema passes if the value validates against the schema file. With Not, it passes
// only if validation fails for a reason other than a missing or unusable schema file.
func (s Subject) ShouldMatchSchema(file schema.File, options ...schema.ValidateOption) bool {
	s.e.t.Helper()
	var err error
	if s.e.validator == nil {
		err = fmt.Errorf("no schema validator is configured")
	} else {
		err = s.e.validator.Validate(file, s.value, options...)
	}
	_, isFileError := err.(*schema.FileError)
	pass := err == nil
	if s.negated {
		pass = err != nil && !isFileError
	}
	if pass {
		return true
	}

	hint := matcherHint("shouldMatchSchema", s.negated)
	var detail string
	switch {
	case err != nil:
		detail = err.Error()
	default:
		detail = fmt.Sprintf("Expected: not matching %s\nReceived: %s", file.FileName(), describeValue(s.value))
	}
	s.fail(hint + "\n\n" + strings.TrimRight(detail, "\n"))
	return false
}

func (s Subject) check(name string, matcher m.Matcher, expected interface{}) bool {
	s.e.t.Helper()
	if s.negated {
		matcher = m.Not(matcher)
	}
	if pass, _ := matcher.Test(s.value); pass {
		return true
	}
	not := ""
	if s.negated {
		not = "not "
	}
	s.fail(fmt.Sprintf("%s\n\nExpected: %s%s\nReceived: %s",
		matcherHint(name, s.negated), not, describeValue(expected), describeValue(s.value)))
	return false
}

func (s Subject) fail(message string) {
	s.e.t.Helper()
	s.e.t.Errorf("%s\n\nRecent API Activity: \n%s", message, s.e.recentLogs())
	if !s.soft {
		s.e.t.FailNow()
	}
}

func (e Expect) recentLogs() string {
	if e.logger == nil {
		return NoLogsMessage
	}
	if logs := e.logger.RecentLogs(); logs != "" {
		return logs
	}
	return NoLogsMessage
}

// MatchSchemaAs asserts that body matches the schema and returns it decoded as a T. If the
// assertion fails the test stops, unless the Expect's test context lets execution continue, in
// which case the zero T is returned.
func MatchSchemaAs[T any](e Expect, body interface{}, file schema.File, options ...schema.ValidateOption) T {
	e.t.Helper()
	var ret T
	if !e.That(body).ShouldMatchSchema(file, options...) {
		return ret
	}
	if err := json.Unmarshal(helpers.AsJSON(body), &ret); err != nil {
		e.t.Errorf("cannot decode body as %T: %s", ret, err)
		e.t.FailNow()
	}
	return ret
}

func matcherHint(name string, negated bool) string {
	if negated {
		return "expect(received).not." + name + "(expected)"
	}
	return "expect(received)." + name + "(expected)"
}

func isJSONData(v interface{}) bool {
	switch v.(type) {
	case api.Body, ldvalue.Value:
		return true
	}
	return false
}

func equalMatcher(actual, expected interface{}) m.Matcher {
	if isJSONData(actual) || isJSONData(expected) {
		return m.JSONEqual(expected)
	}
	return m.Equal(expected)
}

// LessThanOrEqual is a matcher for numbers, or for strings compared lexically. JSON numbers held
// in an api.Body or ldvalue.Value count as numbers.
func LessThanOrEqual(limit interface{}) m.Matcher {
	return m.New(
		func(value interface{}) bool {
			if a, ok := asNumber(value); ok {
				if b, ok := asNumber(limit); ok {
					return a <= b
				}
				return false
			}
			a, aok := value.(string)
			b, bok := limit.(string)
			return aok && bok && a <= b
		},
		func() string {
			return "less than or equal to " + describeValue(limit)
		},
		func(value interface{}) string {
			return fmt.Sprintf("expected a value less than or equal to %s, got %s", describeValue(limit), describeValue(value))
		},
	)
}

func asNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case ldvalue.Value:
		return n.Float64Value(), n.IsNumber()
	case api.Body:
		return asNumber(n.Value())
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func describeValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "undefined"
	case string:
		return strconv.Quote(x)
	case ldvalue.Value:
		return x.JSONString()
	case api.Body:
		if x.IsEmpty() {
			return "undefined"
		}
		return x.JSONString()
	case fmt.Stringer:
		return x.String()
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Ptr:
		return helpers.AsJSONString(v)
	}
	return fmt.Sprintf("%v", v)
}
