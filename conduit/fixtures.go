package conduit

import (
	"github.com/conduit-qa/conduit-test-harness/framework/api"
	"github.com/conduit-qa/conduit-test-harness/framework/apitest"
	"github.com/conduit-qa/conduit-test-harness/framework/expect"
)

// APIFixture is what an API test works with: a request handler, the log of its activity, and
// assertions that report that activity when they fail. All three belong to one test.
type APIFixture struct {
	API    api.RequestHandler
	Logger *api.Logger
	Expect expect.Expect
}

// AuthorizedAPI returns a fixture whose requests carry the worker's auth token. The test is skipped
// if no credentials are configured, and fails if logging in fails.
func AuthorizedAPI(t *apitest.T) APIFixture {
	t.Helper()
	t.RequireCapability(CapabilityCredentials)
	c := requireContext(t)
	token, err := c.authToken(t)
	if err != nil {
		t.Errorf("could not acquire auth token: %s", err)
		t.FailNow()
	}
	return newAPIFixture(t, c, token)
}

// PublicAPI returns a fixture that sends no Authorization header.
func PublicAPI(t *apitest.T) APIFixture {
	return newAPIFixture(t, requireContext(t), "")
}

func newAPIFixture(t *apitest.T, c ConduitTestContext, token string) APIFixture {
	logger := api.NewLogger(t.DebugLogger())
	handler := c.harness.NewRequestHandler(logger, token)
	if c.requestTimeoutMs > 0 {
		handler = handler.Timeout(c.requestTimeoutMs)
	}
	return APIFixture{
		API:    handler,
		Logger: logger,
		Expect: expect.New(t, logger, c.harness.Validator()),
	}
}

// That is shorthand for f.Expect.That(v).
func (f APIFixture) That(v interface{}) expect.Subject {
	return f.Expect.That(v)
}
