package harness

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/conduit-qa/conduit-test-harness/framework"
	"github.com/conduit-qa/conduit-test-harness/framework/api"
	"github.com/conduit-qa/conduit-test-harness/framework/schema"
)

// DefaultStatusPath is the endpoint used to verify that the API is up. It needs no authentication.
const DefaultStatusPath = "api/tags"

// Params configures a TestHarness.
type Params struct {
	// APIBaseURL is the root of the REST API, such as "https://conduit-api.bondaracademy.com/".
	APIBaseURL string

	// UIBaseURL is the root of the web front end. It is only needed by browser tests.
	UIBaseURL string

	// SchemaDir is the root directory of the response schemas.
	SchemaDir string

	// UpdateSchemas makes every schema check rewrite its schema file from the observed body.
	UpdateSchemas bool

	// StatusQueryTimeout is how long to keep retrying the initial status query.
	StatusQueryTimeout time.Duration

	// StatusPath overrides DefaultStatusPath.
	StatusPath string

	// Transport overrides the default HTTP transport; tests use this to avoid the network.
	Transport api.Transport
}

// TestHarness is the main component that manages communication with the API under test.
//
// It verifies on startup that the API is responding, and then provides the shared pieces that
// every test needs: a transport, a schema validator, and a way to create request handlers bound to
// the API's base URL.
//
// It contains no domain-specific test logic, but only provides a general mechanism for test suites
// to build on.
type TestHarness struct {
	params      Params
	transport   api.Transport
	ownedHTTP   *api.HTTPTransport
	validator   *schema.Validator
	serviceInfo ServiceInfo
	logger      framework.Logger
}

// NewTestHarness creates a TestHarness instance, and verifies that the API is responding by
// querying its status endpoint.
func NewTestHarness(
	params Params,
	debugLogger framework.Logger,
	startupOutput io.Writer,
) (*TestHarness, error) {
	if debugLogger == nil {
		debugLogger = framework.NullLogger()
	}
	if startupOutput == nil {
		startupOutput = io.Discard
	}
	if params.StatusPath == "" {
		params.StatusPath = DefaultStatusPath
	}

	h := &TestHarness{
		params: params,
		logger: debugLogger,
		validator: schema.NewValidator(params.SchemaDir, debugLogger,
			schema.WithUpdateAll(params.UpdateSchemas)),
	}
	if params.Transport != nil {
		h.transport = params.Transport
	} else {
		h.ownedHTTP = api.NewHTTPTransport(nil)
		h.transport = h.ownedHTTP
	}

	info, err := queryServiceInfo(h.transport, joinURL(params.APIBaseURL, params.StatusPath),
		params.StatusQueryTimeout, startupOutput)
	if err != nil {
		h.Close()
		return nil, err
	}
	info.APIURL = params.APIBaseURL
	info.UIURL = params.UIBaseURL
	h.serviceInfo = info

	return h, nil
}

// ServiceInfo returns what was learned about the API from the initial status query.
func (h *TestHarness) ServiceInfo() ServiceInfo {
	return h.serviceInfo
}

func (h *TestHarness) APIBaseURL() string { return h.params.APIBaseURL }

func (h *TestHarness) UIBaseURL() string { return h.params.UIBaseURL }

func (h *TestHarness) Transport() api.Transport { return h.transport }

// InjectedTransport returns the transport given in Params, or nil if the harness created its own.
// Components that want a dedicated connection pool use this to decide whether they may create one.
func (h *TestHarness) InjectedTransport() api.Transport { return h.params.Transport }

func (h *TestHarness) Validator() *schema.Validator { return h.validator }

// NewRequestHandler returns a request handler for the API that records its activity in logger
// and sends authToken, if not empty, as its Authorization header.
func (h *TestHarness) NewRequestHandler(logger *api.Logger, authToken string) api.RequestHandler {
	return api.NewRequestHandler(h.transport, h.params.APIBaseURL, logger, authToken)
}

// Close releases idle connections of the transport the harness created. A transport supplied in
// Params is left alone.
func (h *TestHarness) Close() {
	if h.ownedHTTP != nil {
		h.ownedHTTP.Close()
	}
}

func joinURL(base, path string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}

func isServerError(status int) bool {
	return status >= http.StatusInternalServerError
}
