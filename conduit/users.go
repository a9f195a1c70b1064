package conduit

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/conduit-qa/conduit-test-harness/framework/apitest"
	"github.com/conduit-qa/conduit-test-harness/framework/expect"
	"github.com/conduit-qa/conduit-test-harness/framework/schema"

	m "github.com/launchdarkly/go-test-helpers/v2/matchers"
)

func doUsersTests(t *apitest.T) {
	t.Run("login", doLoginTests)
	t.Run("registration", doRegistrationTests)
	t.Run("profile", doProfileTests)
	t.Run("user articles", doUserArticlesTests)
}

func doLoginTests(t *apitest.T) {
	invalid := InvalidUser()

	negativeCase := func(t *apitest.T, name string, status int, creds UserFields, file schema.File, field string) {
		t.Run(name, func(t *apitest.T) {
			f := PublicAPI(t)
			body := f.API.Path(EndpointLogin).Body(UserRequest{User: creds}).WithoutAuth().Post(t, status)
			errs := expect.MatchSchemaAs[ErrorsResponse](f.Expect, body, file)
			m.In(t).Assert(errs, FieldErrors(field).Should(m.Length().Should(m.Equal(1))))
		})
	}

	t.Run("negative", func(t *apitest.T) {
		negativeCase(t, "invalid credentials", http.StatusForbidden,
			UserFields{Email: invalid.User.Email, Password: invalid.User.Password},
			schema.UsersInvalidLogin, "email or password")
		negativeCase(t, "blank email", http.StatusUnprocessableEntity,
			UserFields{Email: "", Password: invalid.User.Password},
			schema.UsersBlankEmailLogin, "email")
		negativeCase(t, "blank password", http.StatusUnprocessableEntity,
			UserFields{Email: invalid.User.Email, Password: ""},
			schema.UsersBlankPasswordLogin, "password")
	})

	t.Run("happy path", func(t *apitest.T) {
		t.RequireCapability(CapabilityCredentials)
		creds := requireContext(t).credentials
		f := PublicAPI(t)

		body := f.API.Path(EndpointLogin).
			Body(UserRequest{User: UserFields{Email: creds.Email, Password: creds.Password}}).
			WithoutAuth().
			Post(t, http.StatusOK)
		login := expect.MatchSchemaAs[UserResponse](f.Expect, body, schema.UsersLogin)
		f.That(login.User.Email).ShouldBeEqual(creds.Email)
		m.In(t).Assert(login.User.Token, IsJWT())
	})
}

type lengthCase struct {
	name          string
	value         string
	expectedError string
}

func doRegistrationTests(t *apitest.T) {
	usernameCases := []lengthCase{
		{"too short with 2 characters", strings.Repeat("d", 2), "is too short (minimum is 3 characters)"},
		{"minimum with 3 characters", strings.Repeat("d", 3), ""},
		{"maximum with 20 characters", strings.Repeat("d", 20), ""},
		{"too long with 21 characters", strings.Repeat("d", 21), "is too long (maximum is 20 characters)"},
	}
	passwordCases := []lengthCase{
		{"too short with 7 characters", strings.Repeat("d", 7), "is too short (minimum is 8 characters)"},
		{"too long with 21 characters", strings.Repeat("d", 21), "is too long (maximum is 20 characters)"},
	}

	// The email is always invalid, so that no case actually creates a user.
	run := func(t *apitest.T, field string, c lengthCase) {
		t.Run(c.name, func(t *apitest.T) {
			fields := NewUser().User
			fields.Email = "invalid_email"
			switch field {
			case "username":
				fields.Username = c.value
			case "password":
				fields.Password = c.value
			}

			f := PublicAPI(t)
			body := f.API.Path(EndpointUsers).Body(UserRequest{User: fields}).WithoutAuth().
				Post(t, http.StatusUnprocessableEntity)
			errs := expect.MatchSchemaAs[ErrorsResponse](f.Expect, body, schema.UsersSignupErrors)
			if c.expectedError == "" {
				f.That(len(errs.Errors[field])).ShouldBeEqual(0)
			} else {
				m.In(t).Assert(errs, FieldErrors(field).Should(IncludesString(c.expectedError)))
			}
		})
	}

	for _, field := range []string{"username", "password"} {
		cases := usernameCases
		if field == "password" {
			cases = passwordCases
		}
		t.Run(fmt.Sprintf("%s length", field), func(t *apitest.T) {
			for _, c := range cases {
				run(t, field, c)
			}
		})
	}
}

func currentUser(t *apitest.T, f APIFixture) User {
	t.Helper()
	body := f.API.Path(EndpointUser).Get(t)
	return expect.MatchSchemaAs[UserResponse](f.Expect, body, schema.UserGET).User
}

func doProfileTests(t *apitest.T) {
	t.Run("GET user profile", func(t *apitest.T) {
		f := AuthorizedAPI(t)
		user := currentUser(t, f)

		body := f.API.Path(ProfileByUsername(user.Username)).Get(t)
		f.That(body).ShouldMatchSchema(schema.ProfileGET)
		f.That(body.Get("profile", "username")).Soft().ShouldBeEqual(user.Username)
	})
}

func doUserArticlesTests(t *apitest.T) {
	t.Run("GET current user favorite articles", func(t *apitest.T) {
		f := AuthorizedAPI(t)
		user := currentUser(t, f)

		params := firstPage()
		params["favorited"] = user.Username
		body := f.API.Path(EndpointArticles).WithoutAuth().Params(params).Get(t)
		articles := expect.MatchSchemaAs[ArticlesResponse](f.Expect, body, schema.ArticlesFavoriteGET)
		f.That(articles.ArticlesCount).ShouldBeEqual(0)
	})

	t.Run("GET current user articles", func(t *apitest.T) {
		f := AuthorizedAPI(t)
		user := currentUser(t, f)

		params := firstPage()
		params["author"] = user.Username
		body := f.API.Path(EndpointArticles).Params(params).Get(t)
		articles := expect.MatchSchemaAs[ArticlesResponse](f.Expect, body, schema.ArticlesUserArticles)
		f.That(articles.ArticlesCount).ShouldBeLessThanOrEqual(defaultPageSize)
		m.In(t).Assert(articles, ArticleAuthors().Should(AllStringsEqual(user.Username)))
	})
}
