// Package api is the HTTP layer used by tests: an immutable request builder, a pluggable transport,
// response bodies that tolerate non-JSON payloads, and a per-test log of API activity.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// AuthorizationHeader is the header the default auth token is sent in.
const AuthorizationHeader = "Authorization"

// Default statuses expected by the verb methods when none are given.
const (
	DefaultGetStatus    = http.StatusOK
	DefaultPostStatus   = http.StatusCreated
	DefaultPutStatus    = http.StatusOK
	DefaultPatchStatus  = http.StatusOK
	DefaultDeleteStatus = http.StatusNoContent
)

// TestingT is the subset of a test scope that the verb methods need in order to fail a test.
type TestingT interface {
	Errorf(format string, args ...interface{})
	FailNow()
	Helper()
}

// RequestConfig is the accumulated state of a request being built.
type RequestConfig struct {
	BaseURL     string
	Path        string
	QueryParams map[string]interface{}
	Headers     map[string]string
	Body        interface{}
	IncludeAuth bool
	Timeout     ldvalue.OptionalInt // milliseconds
}

func (c RequestConfig) copy() RequestConfig {
	ret := c
	ret.QueryParams = make(map[string]interface{}, len(c.QueryParams))
	for k, v := range c.QueryParams {
		ret.QueryParams[k] = v
	}
	ret.Headers = make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		ret.Headers[k] = v
	}
	return ret
}

// RequestHandler builds and sends requests. It is a value type and every builder method returns a
// new RequestHandler, leaving the receiver unchanged, so a partially configured handler can be
// shared and extended freely:
//
//	articles := handler.Path("/api/articles")
//	first := articles.Params(map[string]interface{}{"limit": 1}).Get(t)
//	all := articles.Get(t) // no limit
//
// Every request and response is recorded in the handler's Logger.
type RequestHandler struct {
	transport        Transport
	logger           *Logger
	defaultBaseURL   string
	defaultAuthToken string
	ctx              context.Context
	config           RequestConfig
}

// NewRequestHandler creates a handler whose requests go to baseURL unless URL is called, and which
// sends authToken in the Authorization header unless the caller set that header or called
// WithoutAuth. An empty authToken means no header is added.
func NewRequestHandler(transport Transport, baseURL string, logger *Logger, authToken string) RequestHandler {
	if logger == nil {
		logger = NewLogger(nil)
	}
	return RequestHandler{
		transport:        transport,
		logger:           logger,
		defaultBaseURL:   baseURL,
		defaultAuthToken: authToken,
		ctx:              context.Background(),
		config:           RequestConfig{IncludeAuth: true}.copy(),
	}
}

func (r RequestHandler) with(change func(*RequestConfig)) RequestHandler {
	c := r.config.copy()
	change(&c)
	r.config = c
	return r
}

// Config returns a copy of the accumulated configuration.
func (r RequestHandler) Config() RequestConfig { return r.config.copy() }

// Logger returns the logger shared by this handler and everything derived from it.
func (r RequestHandler) Logger() *Logger { return r.logger }

// URL overrides the default base URL.
func (r RequestHandler) URL(baseURL string) RequestHandler {
	return r.with(func(c *RequestConfig) { c.BaseURL = baseURL })
}

// Path sets the path appended to the base URL.
func (r RequestHandler) Path(path string) RequestHandler {
	return r.with(func(c *RequestConfig) { c.Path = path })
}

// Params merges query parameters into those already set. Later values win.
func (r RequestHandler) Params(params map[string]interface{}) RequestHandler {
	return r.with(func(c *RequestConfig) {
		for k, v := range params {
			c.QueryParams[k] = v
		}
	})
}

// Headers merges headers into those already set. Later values win.
func (r RequestHandler) Headers(headers map[string]string) RequestHandler {
	return r.with(func(c *RequestConfig) {
		for k, v := range headers {
			c.Headers[k] = v
		}
	})
}

// Body sets the request payload. A string is sent as is; anything else is JSON-encoded.
func (r RequestHandler) Body(body interface{}) RequestHandler {
	return r.with(func(c *RequestConfig) { c.Body = body })
}

// Timeout bounds each request, in milliseconds.
func (r RequestHandler) Timeout(ms int) RequestHandler {
	return r.with(func(c *RequestConfig) { c.Timeout = ldvalue.NewOptionalInt(ms) })
}

// WithoutAuth suppresses the default Authorization header. A header set explicitly with
// Headers is still sent.
func (r RequestHandler) WithoutAuth() RequestHandler {
	return r.with(func(c *RequestConfig) { c.IncludeAuth = false })
}

// ClearAuth is an alias for WithoutAuth.
func (r RequestHandler) ClearAuth() RequestHandler { return r.WithoutAuth() }

// WithContext sets the context used for cancellation of requests.
func (r RequestHandler) WithContext(ctx context.Context) RequestHandler {
	r.config = r.config.copy()
	r.ctx = ctx
	return r
}

// ResolveURL joins the base URL and path, inserting a slash between them if neither provides one,
// and appends the query parameters sorted by name.
func (r RequestHandler) ResolveURL() (string, error) {
	base := r.config.BaseURL
	if base == "" {
		base = r.defaultBaseURL
	}
	full := base
	if r.config.Path != "" {
		switch {
		case strings.HasSuffix(base, "/") && strings.HasPrefix(r.config.Path, "/"):
			full = base + strings.TrimPrefix(r.config.Path, "/")
		case strings.HasSuffix(base, "/") || strings.HasPrefix(r.config.Path, "/"):
			full = base + r.config.Path
		default:
			full = base + "/" + r.config.Path
		}
	}
	u, err := url.Parse(full)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid request URL %q", full)
	}
	if len(r.config.QueryParams) != 0 {
		keys := maps.Keys(r.config.QueryParams)
		slices.Sort(keys)
		query := make([]string, 0, len(keys))
		for _, k := range keys {
			query = append(query, url.QueryEscape(k)+"="+url.QueryEscape(fmt.Sprint(r.config.QueryParams[k])))
		}
		sep := "?"
		if u.RawQuery != "" {
			sep = "&"
		}
		full += sep + strings.Join(query, "&")
	}
	return full, nil
}

// ResolveHeaders returns the headers that will be sent, including the default Authorization
// header when it applies. An Authorization header set by the caller, in any letter case, is
// never overridden.
func (r RequestHandler) ResolveHeaders() map[string]string {
	headers := make(map[string]string, len(r.config.Headers)+1)
	hasAuth := false
	for k, v := range r.config.Headers {
		headers[k] = v
		if strings.EqualFold(k, AuthorizationHeader) {
			hasAuth = true
		}
	}
	if !hasAuth && r.config.IncludeAuth && r.defaultAuthToken != "" {
		headers[AuthorizationHeader] = r.defaultAuthToken
	}
	return headers
}

// Do sends the request with the given method and returns the parsed body. If the status is not
// one of expected the body is still returned, along with a *StatusMismatchError. If the request
// could not be sent the error is a *TransportError.
func (r RequestHandler) Do(method string, expected ExpectedStatus) (Body, error) {
	target, err := r.ResolveURL()
	if err != nil {
		return Body{}, &TransportError{Method: method, URL: r.config.Path, Err: err}
	}
	headers := r.ResolveHeaders()

	var payload []byte
	switch b := r.config.Body.(type) {
	case nil:
	case string:
		payload = []byte(b)
	default:
		payload, err = json.Marshal(b)
		if err != nil {
			return Body{}, &TransportError{Method: method, URL: target, Err: fmt.Errorf("cannot encode request body: %w", err)}
		}
		if !hasHeader(headers, "Content-Type") {
			headers["Content-Type"] = "application/json"
		}
	}

	r.logger.LogRequest(method, target, headers, r.config.Body)

	req := Request{Method: method, URL: target, Headers: headers, Body: payload}
	if r.config.Timeout.IsDefined() {
		req.Timeout = time.Duration(r.config.Timeout.IntValue()) * time.Millisecond
	}
	resp, err := r.transport.Fetch(r.ctx, req)
	if err != nil {
		return Body{}, &TransportError{Method: method, URL: target, Err: err}
	}

	body := ResponseBody(resp, r.logger.debugLogger)
	r.logger.LogResponse(resp.StatusCode, body)

	if !expected.Includes(resp.StatusCode) {
		return body, &StatusMismatchError{
			Method:     method,
			URL:        target,
			Expected:   expected,
			Actual:     resp.StatusCode,
			Body:       body,
			RecentLogs: r.logger.RecentLogs(),
		}
	}
	return body, nil
}

// Get sends a GET request, failing the test unless the status is one of expected (default 200).
func (r RequestHandler) Get(t TestingT, expected ...int) Body {
	t.Helper()
	return r.must(t, http.MethodGet, expectedOrDefault(expected, DefaultGetStatus))
}

// Post sends a POST request, failing the test unless the status is one of expected (default 201).
func (r RequestHandler) Post(t TestingT, expected ...int) Body {
	t.Helper()
	return r.must(t, http.MethodPost, expectedOrDefault(expected, DefaultPostStatus))
}

// Put sends a PUT request, failing the test unless the status is one of expected (default 200).
func (r RequestHandler) Put(t TestingT, expected ...int) Body {
	t.Helper()
	return r.must(t, http.MethodPut, expectedOrDefault(expected, DefaultPutStatus))
}

// Patch sends a PATCH request, failing the test unless the status is one of expected (default 200).
func (r RequestHandler) Patch(t TestingT, expected ...int) Body {
	t.Helper()
	return r.must(t, http.MethodPatch, expectedOrDefault(expected, DefaultPatchStatus))
}

// Delete sends a DELETE request, failing the test unless the status is one of expected (default 204).
func (r RequestHandler) Delete(t TestingT, expected ...int) Body {
	t.Helper()
	return r.must(t, http.MethodDelete, expectedOrDefault(expected, DefaultDeleteStatus))
}

func (r RequestHandler) must(t TestingT, method string, expected ExpectedStatus) Body {
	t.Helper()
	body, err := r.Do(method, expected)
	if err != nil {
		t.Errorf("%s", err)
		t.FailNow()
	}
	return body
}

func expectedOrDefault(expected []int, defaultStatus int) ExpectedStatus {
	if len(expected) == 0 {
		return ExpectedStatus{defaultStatus}
	}
	return ExpectedStatus(expected)
}

func hasHeader(headers map[string]string, name string) bool {
	for k := range headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}
