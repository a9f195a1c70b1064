package conduit

import (
	"net/http"

	"github.com/conduit-qa/conduit-test-harness/framework/api"
	"github.com/conduit-qa/conduit-test-harness/framework/apitest"
	"github.com/conduit-qa/conduit-test-harness/framework/expect"
	"github.com/conduit-qa/conduit-test-harness/framework/schema"

	m "github.com/launchdarkly/go-test-helpers/v2/matchers"
	"github.com/stretchr/testify/require"
)

func doArticlesTests(t *apitest.T) {
	t.Run("GET articles", doGetArticlesTest)
	t.Run("create and delete article", doCreateAndDeleteArticleTest)
	t.Run("create, update and delete article", doCreateUpdateDeleteArticleTest)
}

func firstPage() map[string]interface{} {
	return map[string]interface{}{"limit": defaultPageSize, "offset": 0}
}

func doGetArticlesTest(t *apitest.T) {
	f := PublicAPI(t)
	body := f.API.Path(EndpointArticles).Params(firstPage()).Get(t)

	articles := expect.MatchSchemaAs[ArticlesResponse](f.Expect, body, schema.ArticlesGET)
	f.That(len(articles.Articles)).ShouldBeLessThanOrEqual(defaultPageSize)
	f.That(articles.ArticlesCount).ShouldBeEqual(defaultPageSize)

	slugs, err := body.Path("$.articles[*].slug")
	require.NoError(t, err)
	f.That(len(slugs)).ShouldBeEqual(len(articles.Articles))
}

// createArticle posts a random article and schedules its deletion in case the test ends before
// deleting it itself. The returned function tells the cleanup which slug to delete.
func createArticle(t *apitest.T, f APIFixture) (ArticleRequest, ArticleResponse, func(slug string)) {
	t.Helper()
	payload := NewRandomArticle()
	body := f.API.Path(EndpointArticles).Body(payload).Post(t)

	slug := body.Get("article", "slug").StringValue()
	deleted := false
	t.Defer(func() {
		if deleted || slug == "" {
			return
		}
		t.Debug("Cleaning up article %s", slug)
		_, _ = f.API.Path(ArticleBySlug(slug)).Do(http.MethodDelete,
			api.ExpectedStatus{http.StatusNoContent, http.StatusNotFound})
	})
	track := func(newSlug string) {
		if newSlug == "" {
			deleted = true
			return
		}
		slug = newSlug
	}
	created := expect.MatchSchemaAs[ArticleResponse](f.Expect, body, schema.ArticlesPOST)
	return payload, created, track
}

func deleteArticleAndVerify(t *apitest.T, f APIFixture, slug string) {
	t.Helper()
	deleted := f.API.Path(ArticleBySlug(slug)).Delete(t)
	f.That(deleted).ShouldMatchSchema(schema.ArticlesDELETE)
	f.That(deleted.IsEmpty()).ShouldBeEqual(true)

	body := f.API.Path(EndpointArticles).Params(firstPage()).Get(t)
	remaining := expect.MatchSchemaAs[ArticlesResponse](f.Expect, body, schema.ArticlesGET)
	m.In(t).Assert(remaining, ArticleSlugs().Should(m.Not(IncludesString(slug))))
}

func doCreateAndDeleteArticleTest(t *apitest.T) {
	f := AuthorizedAPI(t)
	var payload ArticleRequest
	var created ArticleResponse
	var track func(string)

	t.Step("create", func() {
		payload, created, track = createArticle(t, f)
		f.That(created.Article.Title).ShouldBeEqual(payload.Article.Title)
		f.That(created.Article.Description).ShouldBeEqual(payload.Article.Description)
		f.That(created.Article.Body).ShouldBeEqual(payload.Article.Body)
	})

	t.Step("read", func() {
		var list ArticlesResponse
		require.NoError(t, f.API.Path(EndpointArticles).Get(t).Decode(&list))
		m.In(t).Assert(list, FirstArticleTitle().Should(m.Equal(payload.Article.Title)))
	})

	t.Step("delete", func() {
		deleteArticleAndVerify(t, f, created.Article.Slug)
		track("")
	})
}

func doCreateUpdateDeleteArticleTest(t *apitest.T) {
	f := AuthorizedAPI(t)
	var payload ArticleRequest
	var created ArticleResponse
	var track func(string)
	update := NewRandomArticle()
	slug := ""

	t.Step("create", func() {
		payload, created, track = createArticle(t, f)
		f.That(created.Article.Title).ShouldBeEqual(payload.Article.Title)
		slug = created.Article.Slug
	})

	t.Step("read", func() {
		body := f.API.Path(EndpointArticles).Params(firstPage()).Get(t)
		list := expect.MatchSchemaAs[ArticlesResponse](f.Expect, body, schema.ArticlesGET)
		m.In(t).Assert(list, FirstArticleTitle().Should(m.Equal(payload.Article.Title)))
	})

	t.Step("update", func() {
		body := f.API.Path(ArticleBySlug(slug)).Body(update).Put(t)
		updated := expect.MatchSchemaAs[ArticleResponse](f.Expect, body, schema.ArticlesPUT)
		f.That(updated.Article.Title).ShouldBeEqual(update.Article.Title)
		slug = updated.Article.Slug
		track(slug)
	})

	t.Step("delete", func() {
		deleteArticleAndVerify(t, f, slug)
		track("")
	})
}
