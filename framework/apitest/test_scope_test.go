package apitest

import (
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/conduit-qa/conduit-test-harness/framework"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestScopeInheritsConfiguration(t *testing.T) {
	myContextValue := "hi"
	myCapabilities := framework.Capabilities{"a", "b"}
	config := TestConfiguration{
		Context:      myContextValue,
		Capabilities: myCapabilities,
	}
	_ = Run(config, func(at *T) {
		assert.Equal(t, myContextValue, at.Context())
		assert.Equal(t, myCapabilities, at.Capabilities())

		at.Run("subtest", func(at1 *T) {
			assert.Equal(t, myContextValue, at1.Context())
			assert.Equal(t, myCapabilities, at1.Capabilities())
		})
	})
}

func TestTestScopeExitsImmediatelyOnFailNow(t *testing.T) {
	executed1 := false
	executed2 := false
	executed3 := false
	_ = Run(TestConfiguration{}, func(at *T) {
		at.Run("", func(at *T) {
			executed1 = true
			at.FailNow()
			executed2 = true
		})
		executed3 = true
	})
	assert.True(t, executed1)
	assert.False(t, executed2)
	assert.True(t, executed3)
}

func TestTestScopeExitsImmediatelyOnSkip(t *testing.T) {
	executed1 := false
	executed2 := false
	executed3 := false
	_ = Run(TestConfiguration{}, func(at *T) {
		at.Run("", func(at *T) {
			executed1 = true
			at.Skip()
			executed2 = true
		})
		executed3 = true
	})
	assert.True(t, executed1)
	assert.False(t, executed2)
	assert.True(t, executed3)
}

func TestTestScopePassedResult(t *testing.T) {
	result := Run(TestConfiguration{}, func(at *T) {
		at.Run("parent", func(at0 *T) {
			at0.Run("subtest1", func(at1 *T) {
				// this test passes
			})
			at0.Run("subtest2", func(at2 *T) {
				// this test passes
			})
		})
	})

	assert.True(t, result.OK())
	assert.Len(t, result.Tests, 4)
	assert.Len(t, result.Failures, 0)

	assert.Equal(t, TestID{"parent", "subtest1"}, result.Tests[0].TestID)
	assert.Len(t, result.Tests[0].Errors, 0)

	assert.Equal(t, TestID{"parent", "subtest2"}, result.Tests[1].TestID)
	assert.Len(t, result.Tests[1].Errors, 0)

	assert.Equal(t, TestID{"parent"}, result.Tests[2].TestID)
	assert.Len(t, result.Tests[2].Errors, 0)

	assert.Nil(t, result.Tests[3].TestID)
	assert.Len(t, result.Tests[3].Errors, 0)
}

func TestTestScopeFailedResult(t *testing.T) {
	result := Run(TestConfiguration{}, func(at *T) {
		at.Run("parent", func(at0 *T) {
			at0.Run("subtest1", func(at1 *T) {
				// this test passes
			})
			at0.Run("subtest2", func(at2 *T) {
				at2.Errorf("failed because %s", "reasons")
				at2.Errorf("and failed some more")
			})
			at0.Errorf("and parent failed")
		})
	})

	assert.False(t, result.OK())
	assert.Len(t, result.Tests, 4)
	assert.Len(t, result.Failures, 2)

	assert.Equal(t, TestID{"parent", "subtest1"}, result.Tests[0].TestID)
	assert.Len(t, result.Tests[0].Errors, 0)

	assert.Equal(t, TestID{"parent", "subtest2"}, result.Tests[1].TestID)
	assert.Len(t, result.Tests[1].Errors, 2)
	assert.Equal(t, "failed because reasons", result.Tests[1].Errors[0].Error())
	assert.Equal(t, "and failed some more", result.Tests[1].Errors[1].Error())

	assert.Equal(t, TestID{"parent"}, result.Tests[2].TestID)
	assert.Len(t, result.Tests[2].Errors, 1)
	assert.Equal(t, "and parent failed", result.Tests[2].Errors[0].Error())

	assert.Nil(t, result.Tests[3].TestID)
	assert.Len(t, result.Tests[3].Errors, 0)
}

func TestTestScopeSkippedResult(t *testing.T) {
	result := Run(TestConfiguration{}, func(at *T) {
		at.Run("parent", func(at0 *T) {
			at0.Run("subtest1", func(at1 *T) {
				at1.Skip()
			})
			at0.Run("subtest2", func(at2 *T) {
				at2.SkipWithReason("why not")
			})
		})
	})

	assert.True(t, result.OK())
	assert.Len(t, result.Tests, 2)
	assert.Len(t, result.Failures, 0)

	assert.Equal(t, TestID{"parent"}, result.Tests[0].TestID)
	assert.Len(t, result.Tests[0].Errors, 0)

	assert.Nil(t, result.Tests[1].TestID)
	assert.Len(t, result.Tests[1].Errors, 0)
}

func TestTestScopeFilter(t *testing.T) {
	filter := FilterFunc(func(id TestID) bool {
		return len(id) == 0 || id[0] == "b"
	})

	result := Run(TestConfiguration{Filter: filter}, func(at *T) {
		at.Run("a", func(at0 *T) {
			at0.Run("sub1a", func(at1 *T) {})
			at0.Run("sub2a", func(at1 *T) {})
		})
		at.Run("b", func(at0 *T) {
			at0.Run("sub1b", func(at1 *T) {})
			at0.Run("sub2b", func(at1 *T) {})
		})
	})

	assert.True(t, result.OK())
	assert.Len(t, result.Tests, 4)
	assert.Len(t, result.Failures, 0)

	assert.Equal(t, TestID{"b", "sub1b"}, result.Tests[0].TestID)
	assert.Equal(t, TestID{"b", "sub2b"}, result.Tests[1].TestID)
	assert.Equal(t, TestID{"b"}, result.Tests[2].TestID)
	assert.Equal(t, TestID(nil), result.Tests[3].TestID)
}

func TestTestScopeRunsCleanupsInReverseOrderEvenWhenSkipped(t *testing.T) {
	var calls []string
	_ = Run(TestConfiguration{}, func(at *T) {
		at.Run("skipped", func(at1 *T) {
			at1.Defer(func() { calls = append(calls, "first") })
			at1.Defer(func() { calls = append(calls, "second") })
			at1.SkipWithReason("not today")
		})
	})
	assert.Equal(t, []string{"second", "first"}, calls)
}

func TestTestScopeStepPrefixesFailures(t *testing.T) {
	executedAfterStep := false
	result := Run(TestConfiguration{}, func(at *T) {
		at.Run("test", func(at1 *T) {
			at1.Step("create article", func() {
				at1.Errorf("bad status %d", 500)
			})
			executedAfterStep = true
			at1.Errorf("outside")
		})
	})
	require.Len(t, result.Failures, 1)
	errs := result.Failures[0].Errors
	require.Len(t, errs, 2)
	assert.Equal(t, "[create article] bad status 500", errs[0].Error())
	assert.Equal(t, "outside", errs[1].Error())
	assert.True(t, executedAfterStep)
}

func TestTestScopeStepWritesDebugOutput(t *testing.T) {
	var output []string
	logger := testLoggerFunc(func(id TestID, result TestResult, out []string) { output = out })
	_ = Run(TestConfiguration{TestLogger: logger}, func(at *T) {
		at.Run("test", func(at1 *T) {
			at1.Step("log in", func() {})
		})
	})
	assert.Equal(t, []string{"STEP: log in"}, output)
}

func TestTestScopeUnexpectedPanicIsFailure(t *testing.T) {
	result := Run(TestConfiguration{}, func(at *T) {
		at.Run("panics", func(*T) {
			panic(errors.New("kaboom"))
		})
	})
	require.Len(t, result.Failures, 1)
	assert.Contains(t, result.Failures[0].Errors[0].Error(), "unexpected panic in test: kaboom")
}

func TestTestScopeNonCriticalFailure(t *testing.T) {
	result := Run(TestConfiguration{}, func(at *T) {
		at.Run("flaky", func(at1 *T) {
			at1.NonCritical("depends on a third-party page layout")
			at1.FailNow()
		})
	})
	assert.True(t, result.OK())
	require.Len(t, result.NonCriticalFailures, 1)
	assert.Equal(t, "depends on a third-party page layout", result.NonCriticalFailures[0].Explanation)
}

func TestTestScopeWithContext(t *testing.T) {
	_ = Run(TestConfiguration{Context: "outer"}, func(at *T) {
		inner := at.WithContext("inner")
		assert.Equal(t, "inner", inner.Context())
		assert.Equal(t, "outer", at.Context())
		inner.Run("subtest", func(at1 *T) {
			assert.Equal(t, "inner", at1.Context())
		})
	})
}

func TestRequireCapabilitySkips(t *testing.T) {
	ran := false
	result := Run(TestConfiguration{Capabilities: []string{"a"}}, func(at *T) {
		at.Run("needs b", func(at1 *T) {
			at1.RequireCapability("b")
			ran = true
		})
	})
	assert.False(t, ran)
	assert.True(t, result.OK())
}

func TestRunParallelMergesResultsFromAllWorkers(t *testing.T) {
	var lock sync.Mutex
	workersSeen := make(map[int]bool)
	var groups []TestGroup
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		name := name
		groups = append(groups, TestGroup{Name: name, Action: func(at *T) {
			lock.Lock()
			workersSeen[at.Worker()] = true
			lock.Unlock()
			if name == "c" {
				at.Errorf("c failed")
			}
		}})
	}

	result := RunParallel(TestConfiguration{}, 3, groups)

	assert.False(t, result.OK())
	require.Len(t, result.Failures, 1)
	assert.Equal(t, TestID{"c"}, result.Failures[0].TestID)

	var names []string
	roots := 0
	for _, r := range result.Tests {
		if len(r.TestID) == 0 {
			roots++
		} else {
			names = append(names, r.TestID.String())
		}
	}
	sort.Strings(names)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, names)
	assert.Equal(t, 3, roots)
	for w := range workersSeen {
		assert.True(t, w >= 0 && w < 3)
	}
}

func TestRunParallelGivesEachWorkerItsOwnContext(t *testing.T) {
	var lock sync.Mutex
	created := 0
	seen := make(map[int][]interface{})
	config := TestConfiguration{
		WorkerContext: func(worker int) interface{} {
			lock.Lock()
			defer lock.Unlock()
			created++
			return worker * 10
		},
	}
	var groups []TestGroup
	for _, name := range []string{"a", "b", "c", "d"} {
		groups = append(groups, TestGroup{Name: name, Action: func(at *T) {
			at.Run("sub", func(at1 *T) {
				lock.Lock()
				seen[at1.Worker()] = append(seen[at1.Worker()], at1.Context())
				lock.Unlock()
			})
		}})
	}

	result := RunParallel(config, 2, groups)

	assert.True(t, result.OK())
	assert.Equal(t, 2, created)
	for worker, contexts := range seen {
		for _, c := range contexts {
			assert.Equal(t, worker*10, c)
		}
	}
}

func TestRunParallelRunsGroupCleanups(t *testing.T) {
	var lock sync.Mutex
	cleanups := 0
	config := TestConfiguration{WorkerContext: func(worker int) interface{} { return worker }}
	groups := []TestGroup{
		{Name: "a", Action: func(at *T) {}},
		{Name: "b", Action: func(at *T) {}},
	}
	_ = RunParallel(config, 1, append(groups, TestGroup{Name: "c", Action: func(at *T) {
		at.Defer(func() {
			lock.Lock()
			cleanups++
			lock.Unlock()
		})
	}}))
	assert.Equal(t, 1, cleanups)
}

type testLoggerFunc func(id TestID, result TestResult, output []string)

func (f testLoggerFunc) TestStarted(TestID)         {}
func (f testLoggerFunc) TestError(TestID, error)    {}
func (f testLoggerFunc) TestSkipped(TestID, string) {}
func (f testLoggerFunc) EndLog(Results) error       { return nil }
func (f testLoggerFunc) TestFinished(id TestID, result TestResult, out framework.CapturedOutput) {
	var messages []string
	for _, m := range out {
		messages = append(messages, m.Message)
	}
	f(id, result, messages)
}
