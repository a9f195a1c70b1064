package apitest

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/conduit-qa/conduit-test-harness/framework"
)

type environment struct {
	config  TestConfiguration
	results Results
	lock    sync.Mutex
}

// T represents a test scope. It is very similar to Go's testing.T type.
//
// A T is not safe for concurrent use; parallelism happens between workers (see RunParallel), each
// of which owns its own tree of scopes.
type T struct {
	env         *environment
	id          TestID
	worker      int
	context     interface{}
	debugLogger framework.CapturingLogger
	nonCritical string
	step        string
	failed      bool
	skipped     bool
	skipReason  string
	cleanups    []func()
	errors      []error
	helperFns   []string
}

// TestConfiguration contains options for the entire test run.
type TestConfiguration struct {
	// Filter is an optional function for determining which tests to run based on their names.
	Filter Filter

	// TestLogger receives status information about each test.
	TestLogger TestLogger

	// Context is an optional value of any type defined by the application which can be accessed from tests.
	Context interface{}

	// WorkerContext, if set, is called once per worker by RunParallel and its result replaces
	// Context for every test that worker runs. This is how state is scoped to a worker.
	WorkerContext func(worker int) interface{}

	// Capabilities is a list of strings which are used by T.HasCapability and T.RequireCapability.
	Capabilities []string
}

func (t TestConfiguration) WithContext(context interface{}) TestConfiguration {
	t.Context = context
	return t
}

func newEnvironment(config TestConfiguration) *environment {
	if config.TestLogger == nil {
		config.TestLogger = nullTestLogger{}
	}
	return &environment{config: config}
}

func (e *environment) newRoot(worker int) *T {
	context := e.config.Context
	if e.config.WorkerContext != nil {
		context = e.config.WorkerContext(worker)
	}
	return &T{env: e, worker: worker, context: context}
}

func (e *environment) record(result TestResult, failed bool) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if failed {
		if result.NonCritical {
			e.results.NonCriticalFailures = append(e.results.NonCriticalFailures, result)
		} else {
			e.results.Failures = append(e.results.Failures, result)
		}
	}
	e.results.Tests = append(e.results.Tests, result)
}

func (e *environment) snapshot() Results {
	e.lock.Lock()
	defer e.lock.Unlock()
	return Results{
		Tests:               append([]TestResult(nil), e.results.Tests...),
		Failures:            append([]TestResult(nil), e.results.Failures...),
		NonCriticalFailures: append([]TestResult(nil), e.results.NonCriticalFailures...),
	}
}

// Run starts a top-level test scope.
func Run(
	config TestConfiguration,
	action func(*T),
) Results {
	env := newEnvironment(config)
	t := env.newRoot(0)
	t.run(action)
	return env.snapshot()
}

func (t *T) run(action func(*T)) (result TestResult) {
	result.TestID = t.id
	defer func() {
		defer t.runCleanups()
		if r := recover(); r != nil {
			if t.skipped {
				return
			}
			t.failed = true
			var addError error
			if _, ok := r.(*T); ok {
				if len(t.errors) == 0 {
					addError = errors.New("test failed with no failure message")
				}
			} else {
				addError = fmt.Errorf("unexpected panic in test: %+v\n%s", r, string(debug.Stack()))
			}
			if addError != nil {
				t.errors = append(t.errors, addError)
				t.env.config.TestLogger.TestError(t.id, addError)
			}
		}
		result.Errors = t.errors
		if t.failed && t.nonCritical != "" {
			result.Explanation = t.nonCritical
			result.NonCritical = true
		}
		t.env.record(result, t.failed)
	}()

	action(t)
	return result
}

func (t *T) runCleanups() {
	for i := len(t.cleanups) - 1; i >= 0; i-- {
		t.cleanups[i]()
	}
}

// ID returns the full name of the current test.
func (t *T) ID() TestID {
	return t.id
}

// Worker returns the index of the worker running this test. It is always 0 for tests started by Run.
func (t *T) Worker() int {
	return t.worker
}

// Run runs a subtest in its own scope.
//
// This is equivalent to Go's testing.T.Run.
func (t *T) Run(name string, action func(*T)) {
	id := t.id.Plus(name)

	t.env.config.TestLogger.TestStarted(id)
	if t.env.config.Filter != nil && !t.env.config.Filter.Match(id) {
		t.env.config.TestLogger.TestSkipped(id, "excluded by filter parameters")
		return
	}
	c1 := &T{
		id:      id,
		env:     t.env,
		worker:  t.worker,
		context: t.context,
	}
	t.debugLogger.AddChildLogger(&c1.debugLogger) // see comments on t.DebugLogger()
	result := c1.run(action)
	t.debugLogger.RemoveChildLogger(&c1.debugLogger)
	if c1.skipped {
		t.env.config.TestLogger.TestSkipped(id, c1.skipReason)
	} else {
		t.env.config.TestLogger.TestFinished(id, result, c1.debugLogger.Output())
	}
}

// Step runs part of a test under a descriptive name. The name is written to the debug output
// when the step starts, and failures reported during the step are prefixed with it. Steps do not
// create a new scope: a failure inside a step fails the enclosing test.
func (t *T) Step(name string, action func()) {
	t.Debug("STEP: %s", name)
	previous := t.step
	t.step = name
	defer func() { t.step = previous }()
	action()
}

// NonCritical indicates that if this test fails, we would like to know about it but we're willing to
// live with it. It will be shown in the output as a non-critical failure, accompanied by the
// explanation that is specified here. Non-critical failures do not cause the harness to return
// a non-zero exit code on termination, as regular failures do.
func (t *T) NonCritical(explanation string) {
	t.nonCritical = explanation
}

// Errorf reports a test failure. It is equivalent to Go's testing.T.Errorf. It does not cause the test
// to terminate, but adds the failure message to the output and marks the test as failed.
//
// You will rarely use this method directly; it is part of this type's implementation of the base
// interfaces testing.T and assert.TestingT, allowing it to be called from assertion helpers.
func (t *T) Errorf(format string, args ...interface{}) {
	t.failed = true
	err := fmt.Errorf(format, args...)
	if t.step != "" {
		err = fmt.Errorf("[%s] %w", t.step, err)
	}

	err = withTrace(err, captureTrace(false, t.helperFns))

	t.errors = append(t.errors, err)
	t.env.config.TestLogger.TestError(t.id, err)
}

// FailNow causes the test to immediately terminate and be marked as failed.
//
// You will rarely use this method directly; it is part of this type's implementation of the base
// interfaces testing.T and assert.TestingT, allowing it to be called from assertion helpers.
func (t *T) FailNow() {
	panic(t)
}

// Failed returns true if the test has reported a failure so far.
func (t *T) Failed() bool {
	return t.failed
}

// Skip causes the test to immediately terminate and be marked as skipped.
func (t *T) Skip() {
	t.skipped = true
	panic(t)
}

// SkipWithReason is equivalent to Skip but provides a message.
func (t *T) SkipWithReason(reason string) {
	t.skipReason = reason
	t.Skip()
}

// Debug writes a message to the output for this test scope.
func (t *T) Debug(message string, args ...interface{}) {
	t.debugLogger.Printf(message, args...)
}

// DebugLogger returns a Logger instance for writing output for this test scope.
//
// The output that is captured for a test will be passed to TestLogger.TestFinished at the end of
// the test. The test runner can choose whether to display this or not based on command-line options.
//
// When a test has subtests (created with t.Run), the logger for a subtest starts out with a copy of
// any output that was already logged for the parent test. During the lifetime of the subtest, any
// further output that is sent to the parent test's logger will go to the child test's logger
// instead. This is useful when the parent test scope acquires something, such as an auth token,
// that is reused by many subtests.
func (t *T) DebugLogger() framework.Logger {
	return &t.debugLogger
}

// Defer schedules a cleanup function which is guaranteed to be called when this test scope
// exits for any reason, including a skip. Unlike a Go defer statement, Defer can be used from
// within helper functions.
func (t *T) Defer(cleanupFn func()) {
	t.cleanups = append(t.cleanups, cleanupFn)
}

// Context returns the application-defined context value, if any, that was specified in the
// TestConfiguration or produced for this worker by TestConfiguration.WorkerContext.
func (t *T) Context() interface{} {
	return t.context
}

// WithContext returns a copy of this scope that reports a different context value. Results are
// still recorded in the same test run.
func (t *T) WithContext(context interface{}) *T {
	copied := *t
	copied.context = context
	return &copied
}

// Capabilities returns the capabilities of the environment under test.
func (t *T) Capabilities() framework.Capabilities {
	return append(framework.Capabilities(nil), t.env.config.Capabilities...)
}

// RequireCapability causes the test to be skipped if the environment does not have the named
// capability.
func (t *T) RequireCapability(name string) {
	if !t.Capabilities().Has(name) {
		t.SkipWithReason(fmt.Sprintf("environment does not have capability %q", name))
	}
}

// Helper marks the function that calls it as a test helper that shouldn't appear in stacktraces.
// Equivalent to Go's testing.T.Helper().
func (t *T) Helper() {
	pc, _, _, ok := runtime.Caller(1) // 0 is Helper() itself, 1 is who called it
	if !ok {
		return
	}
	f := runtime.FuncForPC(pc)
	if f == nil {
		return
	}
	t.helperFns = append(t.helperFns, f.Name())
}
