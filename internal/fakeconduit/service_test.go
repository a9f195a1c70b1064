package fakeconduit

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "qa@example.com"
	testUsername = "qa-user"
	testPassword = "password123"
)

type client struct {
	t      *testing.T
	server *httptest.Server
	token  string
}

func (c client) do(method, path string, body interface{}) (int, ldvalue.Value) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.server.URL+path, reader)
	require.NoError(c.t, err)
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}
	resp, err := c.server.Client().Do(req)
	require.NoError(c.t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	if len(data) == 0 {
		return resp.StatusCode, ldvalue.Null()
	}
	assert.True(c.t, strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json"))
	return resp.StatusCode, ldvalue.Parse(data)
}

func withService(t *testing.T, action func(*Service, client)) {
	s := NewService(nil)
	s.AddUser(testEmail, testUsername, testPassword)
	httphelpers.WithServer(s, func(server *httptest.Server) {
		action(s, client{t: t, server: server})
	})
}

func loginBody(email, password string) map[string]interface{} {
	return map[string]interface{}{"user": map[string]string{"email": email, "password": password}}
}

func TestTags(t *testing.T) {
	withService(t, func(s *Service, c client) {
		status, body := c.do("GET", "/api/tags", nil)
		assert.Equal(t, 200, status)
		tags := body.GetByKey("tags")
		assert.Equal(t, MaxTags, tags.Count())
		assert.Equal(t, "Test", tags.GetByIndex(0).StringValue())
	})
}

func TestLogin(t *testing.T) {
	withService(t, func(s *Service, c client) {
		status, body := c.do("POST", "/api/users/login", loginBody(testEmail, testPassword))
		require.Equal(t, 200, status)
		assert.Equal(t, testUsername, body.GetByKey("user").GetByKey("username").StringValue())
		token := body.GetByKey("user").GetByKey("token").StringValue()
		assert.Len(t, strings.Split(token, "."), 3)

		status, body = c.do("POST", "/api/users/login", loginBody(testEmail, "wrong-password"))
		assert.Equal(t, 403, status)
		assert.Equal(t, `{"errors":{"email or password":["is invalid"]}}`, body.JSONString())

		status, body = c.do("POST", "/api/users/login", loginBody("", testPassword))
		assert.Equal(t, 422, status)
		assert.Equal(t, `{"errors":{"email":["can't be blank"]}}`, body.JSONString())

		status, body = c.do("POST", "/api/users/login", loginBody(testEmail, ""))
		assert.Equal(t, 422, status)
		assert.Equal(t, `{"errors":{"password":["can't be blank"]}}`, body.JSONString())
	})
}

func TestCurrentUserRequiresValidToken(t *testing.T) {
	withService(t, func(s *Service, c client) {
		status, _ := c.do("GET", "/api/user", nil)
		assert.Equal(t, 401, status)

		c.token = "not-a-jwt"
		status, _ = c.do("GET", "/api/user", nil)
		assert.Equal(t, 401, status)

		token, err := s.Token(testEmail)
		require.NoError(t, err)
		c.token = token
		status, body := c.do("GET", "/api/user", nil)
		assert.Equal(t, 200, status)
		assert.Equal(t, testEmail, body.GetByKey("user").GetByKey("email").StringValue())
		assert.True(t, body.GetByKey("user").GetByKey("bio").IsNull())
	})
}

func TestSignupValidation(t *testing.T) {
	withService(t, func(s *Service, c client) {
		signup := func(username, email, password string) (int, ldvalue.Value) {
			return c.do("POST", "/api/users", map[string]interface{}{
				"user": map[string]string{"username": username, "email": email, "password": password},
			})
		}

		status, body := signup("dd", "invalid_email", "password123")
		assert.Equal(t, 422, status)
		errs := body.GetByKey("errors")
		assert.Equal(t, "is too short (minimum is 3 characters)", errs.GetByKey("username").GetByIndex(0).StringValue())
		assert.Equal(t, "is invalid", errs.GetByKey("email").GetByIndex(0).StringValue())
		assert.False(t, errs.GetByKey("password").IsDefined())

		_, body = signup(strings.Repeat("d", 20), "invalid_email", "password123")
		assert.False(t, body.GetByKey("errors").GetByKey("username").IsDefined())

		_, body = signup(strings.Repeat("d", 21), "invalid_email", "password123")
		assert.Equal(t, "is too long (maximum is 20 characters)",
			body.GetByKey("errors").GetByKey("username").GetByIndex(0).StringValue())

		_, body = signup("newuser", "invalid_email", strings.Repeat("d", 7))
		assert.Equal(t, "is too short (minimum is 8 characters)",
			body.GetByKey("errors").GetByKey("password").GetByIndex(0).StringValue())

		status, body = signup("newuser", "new@example.com", "password123")
		assert.Equal(t, 201, status)
		assert.Equal(t, "newuser", body.GetByKey("user").GetByKey("username").StringValue())

		status, body = signup("newuser", "new@example.com", "password123")
		assert.Equal(t, 422, status)
		assert.Equal(t, "has already been taken", body.GetByKey("errors").GetByKey("email").GetByIndex(0).StringValue())
	})
}

func TestArticleLifecycle(t *testing.T) {
	withService(t, func(s *Service, c client) {
		token, err := s.Token(testEmail)
		require.NoError(t, err)
		c.token = token

		status, body := c.do("POST", "/api/articles", map[string]interface{}{
			"article": map[string]interface{}{
				"title": "QA TEST: Hello World", "description": "d", "body": "b", "tagList": []string{"go"},
			},
		})
		require.Equal(t, 201, status)
		slug := body.GetByKey("article").GetByKey("slug").StringValue()
		assert.True(t, strings.HasPrefix(slug, "qa-test-hello-world-"), slug)
		assert.Equal(t, "b", body.GetByKey("article").GetByKey("body").StringValue())

		_, list := c.do("GET", "/api/articles?limit=10&offset=0", nil)
		assert.Equal(t, slug, list.GetByKey("articles").GetByIndex(0).GetByKey("slug").StringValue())
		assert.Equal(t, 10, list.GetByKey("articlesCount").IntValue())

		_, mine := c.do("GET", "/api/articles?author="+testUsername, nil)
		assert.Equal(t, 1, mine.GetByKey("articlesCount").IntValue())

		status, body = c.do("PUT", "/api/articles/"+slug, map[string]interface{}{
			"article": map[string]interface{}{"title": "Renamed"},
		})
		require.Equal(t, 200, status)
		newSlug := body.GetByKey("article").GetByKey("slug").StringValue()
		assert.NotEqual(t, slug, newSlug)
		assert.Equal(t, "d", body.GetByKey("article").GetByKey("description").StringValue())

		status, _ = c.do("POST", "/api/articles/"+newSlug+"/favorite", nil)
		assert.Equal(t, 200, status)
		_, favs := c.do("GET", "/api/articles?favorited="+testUsername, nil)
		assert.Equal(t, 1, favs.GetByKey("articlesCount").IntValue())

		status, body = c.do("DELETE", "/api/articles/"+newSlug, nil)
		assert.Equal(t, 204, status)
		assert.True(t, body.IsNull())
		assert.NotContains(t, s.ArticleSlugs(), newSlug)

		status, _ = c.do("GET", "/api/articles/"+newSlug, nil)
		assert.Equal(t, 404, status)
	})
}

func TestArticleOwnership(t *testing.T) {
	withService(t, func(s *Service, c client) {
		token, err := s.Token(testEmail)
		require.NoError(t, err)
		c.token = token
		seedSlug := s.ArticleSlugs()[0]

		status, _ := c.do("DELETE", "/api/articles/"+seedSlug, nil)
		assert.Equal(t, 403, status)

		status, _ = c.do("POST", "/api/articles", map[string]interface{}{"article": map[string]string{"title": ""}})
		assert.Equal(t, 422, status)
	})
}

func TestProfile(t *testing.T) {
	withService(t, func(s *Service, c client) {
		status, body := c.do("GET", "/api/profiles/"+testUsername, nil)
		assert.Equal(t, 200, status)
		assert.Equal(t, testUsername, body.GetByKey("profile").GetByKey("username").StringValue())

		status, _ = c.do("GET", "/api/profiles/nobody", nil)
		assert.Equal(t, 404, status)
	})
}
