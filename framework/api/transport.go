package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
)

// Request is everything a Transport needs to perform one HTTP call. The URL is already fully
// resolved, including query parameters.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte

	// Timeout, if nonzero, bounds the whole exchange including reading the response body.
	Timeout time.Duration
}

// Response is the raw result of a call. The body has already been read in full.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Text returns the body as a string.
func (r *Response) Text() string { return string(r.Body) }

// JSON decodes the body into out.
func (r *Response) JSON(out interface{}) error { return json.Unmarshal(r.Body, out) }

// DeclaresJSON reports whether the Content-Type header names a JSON media type. The second return
// value is false if there is no Content-Type header at all.
func (r *Response) DeclaresJSON() (isJSON bool, declared bool) {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false, false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"), true
}

// Transport performs HTTP calls. The default implementation is HTTPTransport; tests can supply
// their own to avoid the network entirely.
type Transport interface {
	Fetch(ctx context.Context, req Request) (*Response, error)
}

// TransportFunc adapts a plain function to the Transport interface.
type TransportFunc func(ctx context.Context, req Request) (*Response, error)

func (f TransportFunc) Fetch(ctx context.Context, req Request) (*Response, error) { return f(ctx, req) }

// HTTPTransport is a Transport backed by net/http.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport creates a transport using the given client, or a new default client if it is nil.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	}
	return &HTTPTransport{client: client}
}

func (t *HTTPTransport) Fetch(ctx context.Context, req Request) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	hr, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}
	for k, v := range req.Headers {
		hr.Header.Set(k, v)
	}

	resp, err := t.client.Do(hr)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && req.Timeout > 0 {
			return nil, fmt.Errorf("request timed out after %s: %w", req.Timeout, err)
		}
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// Close releases idle connections held by the transport. The transport remains usable.
func (t *HTTPTransport) Close() {
	t.client.CloseIdleConnections()
}
