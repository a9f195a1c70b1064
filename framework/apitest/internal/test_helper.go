// Package internal lives outside apitest so that stacktrace tests have a frame that is not
// filtered out as framework code.
package internal

// Invoke calls action.
func Invoke(action func()) {
	action()
}
