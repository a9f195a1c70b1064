package api

import (
	"fmt"
	"strconv"
	"strings"
)

// ExpectedStatus is the set of status codes a request is allowed to return.
type ExpectedStatus []int

// Includes returns true if status is one of the expected codes.
func (e ExpectedStatus) Includes(status int) bool {
	for _, s := range e {
		if s == status {
			return true
		}
	}
	return false
}

func (e ExpectedStatus) String() string {
	ss := make([]string, 0, len(e))
	for _, s := range e {
		ss = append(ss, strconv.Itoa(s))
	}
	return strings.Join(ss, " or ")
}

// StatusMismatchError is returned when a response arrives with a status that was not expected.
// The message includes the recent API activity of the test.
type StatusMismatchError struct {
	Method     string
	URL        string
	Expected   ExpectedStatus
	Actual     int
	Body       Body
	RecentLogs string
}

func (e *StatusMismatchError) Error() string {
	return fmt.Sprintf("[%s] Expected status %s, but received %d\n\nRecent API Activity:\n%s",
		e.Method, e.Expected, e.Actual, e.RecentLogs)
}

// TransportError is returned when a request could not be completed at all, for instance because
// the connection was refused or the timeout elapsed.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("[%s] request to %s failed: %s", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
