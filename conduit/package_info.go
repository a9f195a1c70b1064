// Package conduit contains the test suite for the Conduit API and web front end.
//
// Tests in this package use other packages as follows:
//
// apitest: the basic test scope framework
//
// api: the request builder that every API test drives
//
// expect: assertions that attach the recent API activity to failures
//
// schema: the response schemas under response-schemas/
//
// pages: page objects for the browser tests
package conduit
