// Package framework contains the low-level implementation of test harness infrastructure
// that can be reused for different kinds of API and UI tests. The base package contains shared
// types such as Logger; other components are in the subpackages.
//
// The general model is:
//
// 1. The test harness talks to a remote service over HTTP. Every request goes through an
// immutable request builder (package api) that records what was sent and received.
//
// 2. Responses are checked against JSON schema files on disk (package schema), and with
// assertions that attach the recent API activity to every failure message (package expect).
//
// 3. There is a general notion of a test context which is similar to Go's testing.T,
// allowing pieces of test logic to be associated with a test identifier and to accumulate
// success/failure results (package apitest).
//
// The domain-specific code that knows what is being tested is responsible for providing
// endpoints, credentials, and the test logic on top of the test context.
package framework
