package conduit

import (
	"context"
	"sync"

	"github.com/conduit-qa/conduit-test-harness/framework/apitest"
	"github.com/conduit-qa/conduit-test-harness/framework/harness"
)

// Credentials identify the user that authenticated tests log in as.
type Credentials struct {
	Email    string
	Password string
}

func (c Credentials) IsDefined() bool {
	return c.Email != "" && c.Password != ""
}

// UIParams configures the browser tests.
type UIParams struct {
	Headless      bool
	ScreenshotDir string
}

// ConduitTestContext is the per-worker context value available from t.Context().
type ConduitTestContext struct {
	harness          *harness.TestHarness
	credentials      Credentials
	ui               UIParams
	requestTimeoutMs int
	token            *workerToken
}

// workerToken holds the auth token of one worker. It is acquired the first time a test asks for it
// and then reused, without refreshing, for every later test on that worker.
type workerToken struct {
	once  sync.Once
	value string
	err   error
}

func (w *workerToken) get(acquire func() (string, error)) (string, error) {
	w.once.Do(func() {
		w.value, w.err = acquire()
	})
	return w.value, w.err
}

func (c ConduitTestContext) forWorker() ConduitTestContext {
	c.token = &workerToken{}
	return c
}

// authToken returns the worker's token, logging in on first use.
func (c ConduitTestContext) authToken(t *apitest.T) (string, error) {
	return c.token.get(func() (string, error) {
		t.Debug("Acquiring auth token for worker %d", t.Worker())
		return CreateToken(context.Background(), c.harness.InjectedTransport(), c.harness.APIBaseURL(),
			c.credentials.Email, c.credentials.Password, t.DebugLogger())
	})
}

func requireContext(t *apitest.T) ConduitTestContext {
	if c, ok := t.Context().(ConduitTestContext); ok {
		return c
	}
	panic("ConduitTestContext was not included in the global test configuration!" +
		" This is a basic mistake in the initialization logic.")
}
