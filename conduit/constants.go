package conduit

// Endpoints are relative to the API base URL.
const (
	EndpointUser     = "api/user"
	EndpointUsers    = "api/users"
	EndpointTags     = "api/tags"
	EndpointLogin    = "api/users/login"
	EndpointArticles = "api/articles"
)

// ArticleBySlug is the endpoint for reading, updating or deleting one article.
func ArticleBySlug(slug string) string {
	return EndpointArticles + "/" + slug
}

// ProfileByUsername is the endpoint for a user's public profile.
func ProfileByUsername(username string) string {
	return "api/profiles/" + username
}

// Capabilities that the suite checks for with apitest.T.RequireCapability.
const (
	// CapabilityCredentials means a user email and password are configured, so that tests can
	// log in. It is absent in the prod environment.
	CapabilityCredentials = "credentials"

	// CapabilityUI means browser tests are enabled.
	CapabilityUI = "ui"
)

const maxTagsInResponse = 10

const defaultPageSize = 10
