package helpers

import (
	"errors"
	"fmt"
	"strings"
)

// TestContext is a minimal interface for types like *testing.T and *apitest.T representing a
// test that can fail. Functions can use this to avoid specific dependencies on those packages.
type TestContext interface {
	Errorf(msgFormat string, msgArgs ...interface{})
	FailNow()
	Helper()
}

// TestRecorder is a TestContext that just records failures. It is used to verify that
// assertion helpers fail when they should, without failing the test that calls them.
type TestRecorder struct {
	Errors           []string
	Terminated       bool
	PanicOnTerminate bool
}

type testRecorderTerminated struct{}

func (r *TestRecorder) Errorf(msgFormat string, msgArgs ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(msgFormat, msgArgs...))
}

func (r *TestRecorder) FailNow() {
	r.Terminated = true
	if r.PanicOnTerminate {
		panic(testRecorderTerminated{})
	}
}

func (r *TestRecorder) Helper() {}

// Err returns nil if there were no failures, or else an error that joins all failure messages.
func (r *TestRecorder) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return errors.New(strings.Join(r.Errors, ", "))
}

// Run calls action with a recorder whose FailNow aborts the action, and returns the recorder.
func Run(action func(TestContext)) *TestRecorder {
	r := &TestRecorder{PanicOnTerminate: true}
	func() {
		defer func() {
			if e := recover(); e != nil {
				if _, ok := e.(testRecorderTerminated); !ok {
					panic(e)
				}
			}
		}()
		action(r)
	}()
	return r
}
