package apitest

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"runtime"
	"strings"
)

// maxTraceDepth bounds how far up the goroutine stack a failure trace looks.
const maxTraceDepth = 64

// FailureWithTrace is a test failure plus the test code that led to it, innermost call first.
// Runner frames and functions registered with T.Helper are left out.
type FailureWithTrace struct {
	Message string
	Frames  []TraceFrame
}

func (f FailureWithTrace) Error() string { return f.Message }

// TraceFrame is one call site in a FailureWithTrace.
type TraceFrame struct {
	File     string // base name only
	Package  string
	Function string
	Line     int
}

// String renders the frame as "pkg.Func (file.go:12)", with the package shown relative to the
// module root.
func (f TraceFrame) String() string {
	pkg := strings.TrimPrefix(f.Package, moduleRoot+"/")
	return fmt.Sprintf("%s.%s (%s:%d)", pkg, f.Function, f.File, f.Line)
}

var (
	runnerPackage = thisPackage()
	moduleRoot    = firstPathElements(runnerPackage, 3)

	// testify prefixes its messages with "Error Trace:" and "Error:" blocks when the TestingT has no
	// Helper-aware output of its own.
	testifyTracePrefix = regexp.MustCompile(`^(?s:\s*Error Trace:.*\sError:\s*)`)
)

// withTrace drops any trace testify wrote into the message and attaches frames, if there are any.
func withTrace(err error, frames []TraceFrame) error {
	message := err.Error()
	if strings.Contains(message, "Error Trace:") {
		message = strings.TrimSpace(testifyTracePrefix.ReplaceAllLiteralString(message, ""))
	}
	if len(frames) == 0 {
		return errors.New(message)
	}
	return FailureWithTrace{Message: message, Frames: frames}
}

// captureTrace walks the stack above its caller up to the test root: Run, or the worker
// goroutine started by RunParallel.
func captureTrace(includeRunner bool, helpers []string) []TraceFrame {
	pcs := make([]uintptr, maxTraceDepth)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var ret []TraceFrame
	for {
		frame, more := frames.Next()
		if frame.Function != "" {
			pkg, fn := splitFunctionName(frame.Function)
			if pkg == runnerPackage && (fn == "Run" || strings.HasPrefix(fn, "RunParallel.")) {
				break
			}
			if (includeRunner || pkg != runnerPackage) && !isHelper(frame.Function, helpers) {
				ret = append(ret, TraceFrame{File: path.Base(frame.File), Package: pkg, Function: fn, Line: frame.Line})
			}
		}
		if !more {
			break
		}
	}
	return ret
}

func isHelper(function string, helpers []string) bool {
	for _, h := range helpers {
		if h == function {
			return true
		}
	}
	return false
}

// splitFunctionName turns "example.com/a/b.(*T).run.func1" into "example.com/a/b" and
// "(*T).run.func1".
func splitFunctionName(full string) (pkg, fn string) {
	lastSlash := strings.LastIndex(full, "/")
	dot := strings.Index(full[lastSlash+1:], ".")
	if dot < 0 {
		return full, ""
	}
	cut := lastSlash + 1 + dot
	return full[:cut], full[cut+1:]
}

func thisPackage() string {
	pc, _, _, ok := runtime.Caller(0)
	if !ok {
		return "?"
	}
	f := runtime.FuncForPC(pc)
	if f == nil {
		return "?"
	}
	pkg, _ := splitFunctionName(f.Name())
	return pkg
}

func firstPathElements(p string, n int) string {
	parts := strings.SplitN(p, "/", n+1)
	if len(parts) > n {
		parts = parts[:n]
	}
	return strings.Join(parts, "/")
}
