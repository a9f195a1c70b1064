package conduit

import (
	"fmt"
	"strings"

	m "github.com/launchdarkly/go-test-helpers/v2/matchers"
)

// The functions in this file are for convenient use of the matchers API with the response types in
// models.go. For more information, see matchers.Transform.

func ArticleSlugs() m.MatcherTransform {
	return m.Transform(
		"article slugs",
		func(value interface{}) (interface{}, error) {
			articles := value.(ArticlesResponse).Articles
			ret := make([]string, 0, len(articles))
			for _, a := range articles {
				ret = append(ret, a.Slug)
			}
			return ret, nil
		}).
		EnsureInputValueType(ArticlesResponse{})
}

func ArticleAuthors() m.MatcherTransform {
	return m.Transform(
		"article authors",
		func(value interface{}) (interface{}, error) {
			articles := value.(ArticlesResponse).Articles
			ret := make([]string, 0, len(articles))
			for _, a := range articles {
				ret = append(ret, a.Author.Username)
			}
			return ret, nil
		}).
		EnsureInputValueType(ArticlesResponse{})
}

func FirstArticleTitle() m.MatcherTransform {
	return m.Transform(
		"title of first article",
		func(value interface{}) (interface{}, error) {
			articles := value.(ArticlesResponse).Articles
			if len(articles) == 0 {
				return nil, fmt.Errorf("no articles in response")
			}
			return articles[0].Title, nil
		}).
		EnsureInputValueType(ArticlesResponse{})
}

// FieldErrors selects the messages reported for one field of an error response. The result is nil
// if the field has no errors.
func FieldErrors(field string) m.MatcherTransform {
	return m.Transform(
		fmt.Sprintf("errors for %q", field),
		func(value interface{}) (interface{}, error) {
			return value.(ErrorsResponse).Errors[field], nil
		}).
		EnsureInputValueType(ErrorsResponse{})
}

// IncludesString is a matcher for a []string that contains s.
func IncludesString(s string) m.Matcher {
	return m.New(
		func(value interface{}) bool {
			list, _ := value.([]string)
			for _, v := range list {
				if v == s {
					return true
				}
			}
			return false
		},
		func() string {
			return fmt.Sprintf("includes %q", s)
		},
		func(value interface{}) string {
			return fmt.Sprintf("%q was not in %v", s, value)
		},
	)
}

// AllStringsEqual is a matcher for a []string whose items are all s. An empty list passes.
func AllStringsEqual(s string) m.Matcher {
	return m.New(
		func(value interface{}) bool {
			list, _ := value.([]string)
			for _, v := range list {
				if v != s {
					return false
				}
			}
			return true
		},
		func() string {
			return fmt.Sprintf("every item is %q", s)
		},
		func(value interface{}) string {
			return fmt.Sprintf("not every item of %v was %q", value, s)
		},
	)
}

// IsJWT is a matcher for a string that decodes as a JSON Web Token. The signature is not checked.
func IsJWT() m.Matcher {
	return m.New(
		func(value interface{}) bool {
			s, ok := value.(string)
			if !ok || len(strings.Split(s, ".")) != 3 {
				return false
			}
			_, err := ParseTokenClaims(s)
			return err == nil
		},
		func() string {
			return "is a JWT"
		},
		func(value interface{}) string {
			return fmt.Sprintf("%v is not a JWT", value)
		},
	)
}
