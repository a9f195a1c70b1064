package conduit

import (
	"fmt"
	"os"

	"github.com/conduit-qa/conduit-test-harness/framework"
	"github.com/conduit-qa/conduit-test-harness/framework/apitest"
	"github.com/conduit-qa/conduit-test-harness/framework/harness"
)

// SuiteParams configures RunConduitTestSuite.
type SuiteParams struct {
	// Credentials are used by tests that log in. If they are not defined, those tests are skipped.
	Credentials Credentials

	// Workers is the number of test groups that may run at once. Each worker logs in once.
	Workers int

	// UIEnabled turns on the browser tests.
	UIEnabled bool
	UI        UIParams

	// RequestTimeoutMs, if positive, overrides the transport's timeout for every request.
	RequestTimeoutMs int

	Filter     apitest.RegexFilters
	TestLogger apitest.TestLogger
}

// RunConduitTestSuite runs every test group against the API that h is connected to.
func RunConduitTestSuite(h *harness.TestHarness, params SuiteParams) apitest.Results {
	var capabilities framework.Capabilities
	if params.Credentials.IsDefined() {
		capabilities = capabilities.With(CapabilityCredentials)
	}
	if params.UIEnabled {
		capabilities = capabilities.With(CapabilityUI)
	}

	fmt.Println()
	apitest.PrintFilterDescription(os.Stdout, params.Filter, allCapabilities(), capabilities)

	base := ConduitTestContext{
		harness:          h,
		credentials:      params.Credentials,
		ui:               params.UI,
		requestTimeoutMs: params.RequestTimeoutMs,
	}
	config := apitest.TestConfiguration{
		Filter:       params.Filter,
		Capabilities: capabilities,
		TestLogger:   params.TestLogger,
		Context:      base.forWorker(),
		WorkerContext: func(int) interface{} {
			return base.forWorker()
		},
	}

	return apitest.RunParallel(config, params.Workers, []apitest.TestGroup{
		{Name: "tags", Action: doTagsTests},
		{Name: "articles", Action: doArticlesTests},
		{Name: "users", Action: doUsersTests},
		{Name: "ui", Action: doUITests},
	})
}

func allCapabilities() framework.Capabilities {
	return framework.Capabilities{CapabilityCredentials, CapabilityUI}
}
