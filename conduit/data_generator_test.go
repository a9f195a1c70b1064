package conduit

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRandomArticle(t *testing.T) {
	a1, a2 := NewRandomArticle(), NewRandomArticle()

	assert.True(t, strings.HasPrefix(a1.Article.Title, ArticleTitlePrefix), a1.Article.Title)
	assert.NotEqual(t, a1.Article.Title, a2.Article.Title)
	assert.NotEmpty(t, a1.Article.Description)
	assert.NotEmpty(t, a1.Article.Body)
	assert.Equal(t, []string{"qa", "automation"}, a1.Article.TagList)

	a1.Article.TagList[0] = "changed"
	assert.Equal(t, "qa", NewRandomArticle().Article.TagList[0])
}

func TestNewUserPassesRegistrationRules(t *testing.T) {
	u := NewUser().User

	assert.GreaterOrEqual(t, len(u.Username), 3)
	assert.LessOrEqual(t, len(u.Username), 20)
	assert.GreaterOrEqual(t, len(u.Password), 8)
	assert.LessOrEqual(t, len(u.Password), 20)
	addr, err := mail.ParseAddress(u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.Email, addr.Address)

	assert.NotEqual(t, u.Username, NewUser().User.Username)
}

func TestInvalidUser(t *testing.T) {
	u := InvalidUser().User
	assert.Empty(t, u.Username)
	assert.True(t, strings.HasPrefix(u.Email, "nobody_"))
	assert.NotEmpty(t, u.Password)
}
