package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	f, err := Lookup("articles", "POST_articles")
	require.NoError(t, err)
	assert.Equal(t, ArticlesPOST, f)

	f, err = Lookup("users", "POST_users_login_schema.json")
	require.NoError(t, err)
	assert.Equal(t, UsersLogin, f)

	_, err = Lookup("tags", "POST_articles")
	assert.EqualError(t, err, `schema "POST_articles" belongs in directory "articles", not "tags"`)

	_, err = Lookup("tags", "nope")
	assert.Error(t, err)
}

func TestEveryFileBelongsToAKnownDir(t *testing.T) {
	dirs := make(map[Dir]bool)
	for _, d := range Dirs() {
		dirs[d] = true
	}
	total := 0
	for _, d := range Dirs() {
		total += len(FilesIn(d))
	}
	assert.Equal(t, len(Files()), total)
	for _, f := range Files() {
		assert.True(t, dirs[f.Dir()], f.String())
	}
}
