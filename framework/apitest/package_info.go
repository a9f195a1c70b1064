// Package apitest contains a test runner framework that is similar to Go's testing package,
// but is run as regular Go application code rather than Go tests. It adds named steps, worker-level
// parallelism with per-worker context, and richer result reporting to the console and JUnit XML.
package apitest
