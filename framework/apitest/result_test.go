package apitest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTestID(t *testing.T) {
	assert.Equal(t, "", TestID{}.String())
	assert.Equal(t, "users/login/happy path", TestID{"users", "login", "happy path"}.String())

	parent := TestID{"articles"}
	create := parent.Plus("create and delete article")
	update := parent.Plus("create, update and delete article")
	assert.Equal(t, TestID{"articles"}, parent)
	assert.Equal(t, TestID{"articles", "create and delete article"}, create)
	assert.Equal(t, TestID{"articles", "create, update and delete article"}, update)
}

func TestResults(t *testing.T) {
	passed := TestResult{TestID: TestID{"tags"}}
	failed := TestResult{TestID: TestID{"articles"}, Errors: []error{errors.New("boom")}}
	assert.False(t, passed.Failed())
	assert.True(t, failed.Failed())

	assert.True(t, Results{Tests: []TestResult{passed}}.OK())
	assert.True(t, Results{NonCriticalFailures: []TestResult{failed}}.OK())
	assert.False(t, Results{Failures: []TestResult{failed}}.OK())

	assert.Equal(t, "[articles]: boom", TestFailure{ID: failed.TestID, Err: failed.Errors[0]}.Error())
}
