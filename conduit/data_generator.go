package conduit

import (
	_ "embed"
	"encoding/json"
	"math/rand"
	"strings"

	"github.com/google/uuid"
)

// ArticleTitlePrefix marks articles created by the suite, so that leftovers are easy to find.
const ArticleTitlePrefix = "QA TEST: "

//go:embed request_objects/articles/POST_article.json
var articleTemplate []byte

var loremWords = strings.Fields(`lorem ipsum dolor sit amet consectetur adipiscing elit sed do eiusmod
tempor incididunt ut labore et dolore magna aliqua enim ad minim veniam quis nostrud exercitation
ullamco laboris nisi aliquip ex ea commodo consequat duis aute irure in reprehenderit voluptate velit
esse cillum fugiat nulla pariatur excepteur sint occaecat cupidatat non proident sunt culpa qui
officia deserunt mollit anim id est laborum`)

func sentence(words int) string {
	picked := make([]string, words)
	for i := range picked {
		picked[i] = loremWords[rand.Intn(len(loremWords))]
	}
	s := strings.Join(picked, " ")
	return strings.ToUpper(s[:1]) + s[1:] + "."
}

func uniqueSuffix(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}

// NewRandomArticle returns an article payload built from the request template, with a random
// title, description and body. The title always starts with ArticleTitlePrefix and ends with a
// unique suffix.
func NewRandomArticle() ArticleRequest {
	var req ArticleRequest
	if err := json.Unmarshal(articleTemplate, &req); err != nil {
		panic("article request template is malformed: " + err.Error())
	}
	req.Article.Title = ArticleTitlePrefix + sentence(5) + " " + uniqueSuffix(8)
	req.Article.Description = sentence(3)
	req.Article.Body = sentence(8)
	return req
}

// NewUser returns registration data for a user that does not exist yet and that passes all of
// the API's validation rules.
func NewUser() UserRequest {
	username := "qa_" + uniqueSuffix(12)
	return UserRequest{User: UserFields{
		Username: username,
		Email:    username + "@example.com",
		Password: "Pw" + uniqueSuffix(10),
	}}
}

// InvalidUser returns login credentials that do not belong to any user.
func InvalidUser() UserRequest {
	u := NewUser()
	u.User.Username = ""
	u.User.Email = "nobody_" + uniqueSuffix(12) + "@example.com"
	return u
}
