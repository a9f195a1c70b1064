package apitest

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/conduit-qa/conduit-test-harness/framework"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Failure type attribute of a non-critical failure; CI tools still show it, but it does not fail
// the run.
const jUnitNonCriticalType = "non-critical"

// JUnitTestLogger collects results in memory and writes them as JUnit XML when the run ends. Each
// top-level test group becomes a test suite, and each scope within it a test case.
type JUnitTestLogger struct {
	filePath   string
	suiteName  string
	properties map[string]string
	filters    RegexFilters
	order      []TestID
	cases      map[string]*jUnitCase
	now        func() time.Time
	lock       sync.Mutex
}

type jUnitCase struct {
	errors      []error
	skipReason  ldvalue.OptionalString
	nonCritical string
	output      string
	started     time.Time
	elapsed     time.Duration
}

// XML element types, following https://github.com/jstemmer/go-junit-report

type jUnitXMLDocument struct {
	XMLName xml.Name            `xml:"testsuites"`
	Suites  []jUnitXMLTestSuite `xml:"testsuite"`
}

type jUnitXMLTestSuite struct {
	XMLName    xml.Name           `xml:"testsuite"`
	Name       string             `xml:"name,attr"`
	Tests      int                `xml:"tests,attr"`
	Failures   int                `xml:"failures,attr"`
	Skipped    int                `xml:"skipped,attr"`
	Time       string             `xml:"time,attr"`
	Timestamp  string             `xml:"timestamp,attr,omitempty"`
	Properties []jUnitXMLProperty `xml:"properties>property,omitempty"`
	TestCases  []jUnitXMLTestCase `xml:"testcase"`
}

type jUnitXMLTestCase struct {
	XMLName   xml.Name         `xml:"testcase"`
	Classname string           `xml:"classname,attr"`
	Name      string           `xml:"name,attr"`
	Time      string           `xml:"time,attr"`
	Skipped   *jUnitXMLSkipped `xml:"skipped,omitempty"`
	Failure   *jUnitXMLFailure `xml:"failure,omitempty"`
	SystemOut string           `xml:"system-out,omitempty"`
}

type jUnitXMLSkipped struct {
	Message string `xml:"message,attr"`
}

type jUnitXMLProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type jUnitXMLFailure struct {
	Message  string `xml:"message,attr"`
	Type     string `xml:"type,attr,omitempty"`
	Contents string `xml:",chardata"`
}

// NewJUnitTestLogger creates a logger that will write to filePath. The properties describe the
// environment under test and are attached to every suite.
func NewJUnitTestLogger(
	filePath string,
	suiteName string,
	properties map[string]string,
	filters RegexFilters,
) *JUnitTestLogger {
	return &JUnitTestLogger{
		filePath:   filePath,
		suiteName:  suiteName,
		properties: properties,
		filters:    filters,
		cases:      make(map[string]*jUnitCase),
		now:        time.Now,
	}
}

// update applies fn to the record of a test, creating it if this is the first event for that test.
func (j *JUnitTestLogger) update(id TestID, fn func(*jUnitCase)) {
	j.lock.Lock()
	defer j.lock.Unlock()
	c := j.cases[id.String()]
	if c == nil {
		c = &jUnitCase{started: j.now()}
		j.cases[id.String()] = c
		j.order = append(j.order, id)
	}
	fn(c)
}

func (j *JUnitTestLogger) TestStarted(id TestID) {
	j.update(id, func(*jUnitCase) {})
}

func (j *JUnitTestLogger) TestError(id TestID, err error) {
	j.update(id, func(c *jUnitCase) { c.errors = append(c.errors, err) })
}

func (j *JUnitTestLogger) TestFinished(id TestID, result TestResult, debugOutput framework.CapturedOutput) {
	j.update(id, func(c *jUnitCase) {
		c.output = debugOutput.ToString("")
		c.elapsed = j.now().Sub(c.started)
		if result.NonCritical {
			c.nonCritical = result.Explanation
		}
	})
}

func (j *JUnitTestLogger) TestSkipped(id TestID, reason string) {
	j.update(id, func(c *jUnitCase) { c.skipReason = ldvalue.NewOptionalString(reason) })
}

func (j *JUnitTestLogger) EndLog(Results) error {
	fmt.Printf("Writing JUnit data to %s\n", j.filePath)

	data, err := xml.MarshalIndent(j.document(), "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(j.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec
			return err
		}
	}
	return os.WriteFile(j.filePath, append(data, '\n'), 0o644) //nolint:gosec
}

func (j *JUnitTestLogger) suiteProperties() []jUnitXMLProperty {
	names := maps.Keys(j.properties)
	slices.Sort(names)
	ret := make([]jUnitXMLProperty, 0, len(names)+2)
	for _, name := range names {
		ret = append(ret, jUnitXMLProperty{Name: name, Value: j.properties[name]})
	}
	return append(ret,
		jUnitXMLProperty{Name: "filter.run", Value: j.filters.MustMatch.String()},
		jUnitXMLProperty{Name: "filter.skip", Value: j.filters.MustNotMatch.String()},
	)
}

func (j *JUnitTestLogger) document() jUnitXMLDocument {
	j.lock.Lock()
	defer j.lock.Unlock()

	properties := j.suiteProperties()
	suites := make(map[string]*jUnitXMLTestSuite)
	var suiteOrder []string
	elapsed := make(map[string]time.Duration)

	for _, id := range j.order {
		if len(id) == 0 {
			continue
		}
		group := id[0]
		suite := suites[group]
		if suite == nil {
			suite = &jUnitXMLTestSuite{
				Name:       fmt.Sprintf("%s: %s", j.suiteName, group),
				Timestamp:  j.cases[id.String()].started.UTC().Format(time.RFC3339),
				Properties: properties,
			}
			suites[group] = suite
			suiteOrder = append(suiteOrder, group)
		}
		c := j.cases[id.String()]
		tc := jUnitXMLTestCase{
			Classname: group,
			Name:      id.String(),
			Time:      jUnitSeconds(c.elapsed),
		}
		suite.Tests++
		switch {
		case c.skipReason.IsDefined():
			suite.Skipped++
			tc.Skipped = &jUnitXMLSkipped{Message: c.skipReason.StringValue()}
		case len(c.errors) != 0:
			tc.Failure = &jUnitXMLFailure{Message: describeErrors(c.errors), Contents: c.output}
			if c.nonCritical != "" {
				tc.Failure.Type = jUnitNonCriticalType
				tc.Failure.Message += "\n(non-critical: " + c.nonCritical + ")"
			} else {
				suite.Failures++
			}
		default:
			tc.SystemOut = c.output
		}
		if len(id) == 1 {
			elapsed[group] = c.elapsed
		}
		suite.TestCases = append(suite.TestCases, tc)
	}

	var doc jUnitXMLDocument
	for _, group := range suiteOrder {
		suite := suites[group]
		suite.Time = jUnitSeconds(elapsed[group])
		doc.Suites = append(doc.Suites, *suite)
	}
	return doc
}

func describeErrors(errs []error) string {
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		var b strings.Builder
		b.WriteString(e.Error())
		if ft, ok := e.(FailureWithTrace); ok && len(ft.Frames) != 0 {
			b.WriteString("\n  Stacktrace:")
			for _, s := range ft.Frames {
				b.WriteString("\n    " + s.String())
			}
		}
		messages = append(messages, b.String())
	}
	return strings.Join(messages, "\n")
}

func jUnitSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
