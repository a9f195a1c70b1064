package conduit

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/conduit-qa/conduit-test-harness/framework/apitest"
	"github.com/conduit-qa/conduit-test-harness/framework/harness"
	"github.com/conduit-qa/conduit-test-harness/internal/fakeconduit"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fakeEmail    = "qa@example.com"
	fakeUsername = "qa-user"
	fakePassword = "password123"
)

func withFakeHarness(t *testing.T, action func(*fakeconduit.Service, *harness.TestHarness)) {
	service := fakeconduit.NewService(nil)
	service.AddUser(fakeEmail, fakeUsername, fakePassword)
	httphelpers.WithServer(service, func(server *httptest.Server) {
		h, err := harness.NewTestHarness(harness.Params{
			APIBaseURL:         server.URL + "/",
			SchemaDir:          "../response-schemas",
			StatusQueryTimeout: time.Second,
		}, nil, nil)
		require.NoError(t, err)
		defer h.Close()
		action(service, h)
	})
}

func testIDs(results []apitest.TestResult) []string {
	var ret []string
	for _, r := range results {
		ret = append(ret, r.TestID.String())
	}
	return ret
}

func describeFailures(results apitest.Results) string {
	var lines []string
	for _, f := range results.Failures {
		for _, err := range f.Errors {
			lines = append(lines, f.TestID.String()+": "+err.Error())
		}
	}
	return strings.Join(lines, "\n")
}

func TestSuitePassesAgainstFakeAPI(t *testing.T) {
	for _, workers := range []int{1, 4} {
		withFakeHarness(t, func(service *fakeconduit.Service, h *harness.TestHarness) {
			seedSlugs := service.ArticleSlugs()

			results := RunConduitTestSuite(h, SuiteParams{
				Credentials: Credentials{Email: fakeEmail, Password: fakePassword},
				Workers:     workers,
			})
			require.True(t, results.OK(), describeFailures(results))

			ids := testIDs(results.Tests)
			for _, expected := range []string{
				"tags/GET tags",
				"articles/GET articles",
				"articles/create and delete article",
				"articles/create, update and delete article",
				"users/login/negative/blank email",
				"users/login/happy path",
				"users/registration/username length/too long with 21 characters",
				"users/profile/GET user profile",
				"users/user articles/GET current user articles",
			} {
				assert.Contains(t, ids, expected)
			}
			assert.Equal(t, seedSlugs, service.ArticleSlugs(), "suite should delete every article it creates")
		})
	}
}

func TestSuiteSkipsAuthorizedTestsWithoutCredentials(t *testing.T) {
	withFakeHarness(t, func(service *fakeconduit.Service, h *harness.TestHarness) {
		results := RunConduitTestSuite(h, SuiteParams{Workers: 2})
		require.True(t, results.OK(), describeFailures(results))

		ids := testIDs(results.Tests)
		assert.Contains(t, ids, "tags/GET tags")
		assert.Contains(t, ids, "users/login/negative/invalid credentials")
		assert.NotContains(t, ids, "articles/create and delete article")
		assert.NotContains(t, ids, "users/login/happy path")
	})
}

func TestSuiteReportsWrongCredentials(t *testing.T) {
	withFakeHarness(t, func(service *fakeconduit.Service, h *harness.TestHarness) {
		filter := apitest.RegexFilters{}
		require.NoError(t, filter.MustMatch.Set("articles"))

		results := RunConduitTestSuite(h, SuiteParams{
			Credentials: Credentials{Email: fakeEmail, Password: "wrong-password"},
			Filter:      filter,
		})
		require.False(t, results.OK())
		assert.Contains(t, testIDs(results.Failures), "articles/create and delete article")
		assert.Contains(t, describeFailures(results), "could not acquire auth token")
	})
}
