package fakeconduit

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"golang.org/x/exp/slices"
)

const (
	defaultLimit = 20
	timeFormat   = "2006-01-02T15:04:05.000Z"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

type article struct {
	slug        string
	title       string
	description string
	body        string
	tagList     []string
	author      string
	favoritedBy map[string]bool
	createdAt   time.Time
	updatedAt   time.Time
}

type articleInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Body        string   `json:"body"`
	TagList     []string `json:"tagList"`
}

type articleRequest struct {
	Article articleInput `json:"article"`
}

func slugify(title string) string {
	slug := strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(title), "-"), "-")
	return slug + "-" + uuid.NewString()[:8]
}

func (s *Service) newArticle(author string, in articleInput) *article {
	now := s.now().UTC()
	return &article{
		slug:        slugify(in.Title),
		title:       in.Title,
		description: in.Description,
		body:        in.Body,
		tagList:     append([]string{}, in.TagList...),
		author:      author,
		favoritedBy: make(map[string]bool),
		createdAt:   now,
		updatedAt:   now,
	}
}

// articleJSON renders an article as seen by viewer, which may be nil. List responses leave out the
// body, as the real API does.
func (s *Service) articleJSON(a *article, viewer *user, includeBody bool) ldvalue.Value {
	tags := ldvalue.ArrayBuild()
	for _, t := range a.tagList {
		tags.Add(ldvalue.String(t))
	}
	author := ldvalue.ObjectBuild().Set("username", ldvalue.String(a.author)).
		Set("bio", ldvalue.Null()).
		Set("image", ldvalue.String("")).
		Set("following", ldvalue.Bool(false))
	for _, u := range s.users {
		if u.username == a.author {
			author = ldvalue.ObjectBuild().Set("username", ldvalue.String(u.username)).
				Set("bio", u.bioValue()).
				Set("image", ldvalue.String(u.image)).
				Set("following", ldvalue.Bool(false))
		}
	}
	b := ldvalue.ObjectBuild().
		Set("slug", ldvalue.String(a.slug)).
		Set("title", ldvalue.String(a.title)).
		Set("description", ldvalue.String(a.description))
	if includeBody {
		b.Set("body", ldvalue.String(a.body))
	}
	return b.
		Set("tagList", tags.Build()).
		Set("createdAt", ldvalue.String(a.createdAt.UTC().Format(timeFormat))).
		Set("updatedAt", ldvalue.String(a.updatedAt.UTC().Format(timeFormat))).
		Set("favorited", ldvalue.Bool(viewer != nil && a.favoritedBy[viewer.username])).
		Set("favoritesCount", ldvalue.Int(len(a.favoritedBy))).
		Set("author", author.Build()).
		Build()
}

func (s *Service) singleArticle(a *article, viewer *user) ldvalue.Value {
	return ldvalue.ObjectBuild().Set("article", s.articleJSON(a, viewer, true)).Build()
}

func (s *Service) findArticle(slug string) (int, *article) {
	for i, a := range s.articles {
		if a.slug == slug {
			return i, a
		}
	}
	return -1, nil
}

func intParam(r *http.Request, name string, defaultValue int) (int, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return defaultValue, true
	}
	n, err := strconv.Atoi(v)
	return n, err == nil && n >= 0
}

// listArticles supports the author, favorited, tag, limit and offset query parameters. Like the
// public demo instance, articlesCount is the number of articles in the returned page.
func (s *Service) listArticles(w http.ResponseWriter, r *http.Request) {
	viewer, ok := s.optionalUser(w, r)
	if !ok {
		return
	}
	limit, okLimit := intParam(r, "limit", defaultLimit)
	offset, okOffset := intParam(r, "offset", 0)
	if !okLimit || !okOffset {
		writeErrors(w, http.StatusUnprocessableEntity, "query", "limit and offset must be non-negative integers")
		return
	}
	query := r.URL.Query()
	author, favorited, tag := query.Get("author"), query.Get("favorited"), query.Get("tag")

	s.lock.RLock()
	defer s.lock.RUnlock()

	var matching []*article
	for _, a := range s.articles {
		if author != "" && a.author != author {
			continue
		}
		if favorited != "" && !a.favoritedBy[favorited] {
			continue
		}
		if tag != "" && !slices.Contains(a.tagList, tag) {
			continue
		}
		matching = append(matching, a)
	}
	if offset > len(matching) {
		offset = len(matching)
	}
	page := matching[offset:]
	if len(page) > limit {
		page = page[:limit]
	}

	list := ldvalue.ArrayBuild()
	for _, a := range page {
		list.Add(s.articleJSON(a, viewer, false))
	}
	writeJSON(w, http.StatusOK, ldvalue.ObjectBuild().
		Set("articles", list.Build()).
		Set("articlesCount", ldvalue.Int(len(page))).
		Build())
}

func (s *Service) getArticle(w http.ResponseWriter, r *http.Request) {
	viewer, ok := s.optionalUser(w, r)
	if !ok {
		return
	}
	s.lock.RLock()
	defer s.lock.RUnlock()
	_, a := s.findArticle(mux.Vars(r)["slug"])
	if a == nil {
		writeErrors(w, http.StatusNotFound, "article", "not found")
		return
	}
	writeJSON(w, http.StatusOK, s.singleArticle(a, viewer))
}

func validateArticle(in articleInput, partial bool) map[string][]string {
	errs := make(map[string][]string)
	if !partial || in.Title != "" {
		if strings.TrimSpace(in.Title) == "" {
			errs["title"] = []string{"can't be blank"}
		}
	}
	if !partial && strings.TrimSpace(in.Description) == "" {
		errs["description"] = []string{"can't be blank"}
	}
	if !partial && strings.TrimSpace(in.Body) == "" {
		errs["body"] = []string{"can't be blank"}
	}
	return errs
}

func (s *Service) createArticle(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	var req articleRequest
	if err := decodeRequest(r, &req); err != nil {
		writeErrors(w, http.StatusUnprocessableEntity, "body", "is invalid")
		return
	}
	if errs := validateArticle(req.Article, false); len(errs) != 0 {
		writeFieldErrors(w, http.StatusUnprocessableEntity, errs)
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	a := s.newArticle(u.username, req.Article)
	s.articles = append([]*article{a}, s.articles...)
	for _, t := range a.tagList {
		if !slices.Contains(s.tags, t) {
			s.tags = append(s.tags, t)
		}
	}
	writeJSON(w, http.StatusCreated, s.singleArticle(a, u))
}

// ownedArticle finds the article named in the URL and checks that the current user wrote it. The
// caller must hold the write lock.
func (s *Service) ownedArticle(w http.ResponseWriter, r *http.Request) (int, *article) {
	i, a := s.findArticle(mux.Vars(r)["slug"])
	if a == nil {
		writeErrors(w, http.StatusNotFound, "article", "not found")
		return -1, nil
	}
	if a.author != currentUser(r).username {
		writeErrors(w, http.StatusForbidden, "article", "forbidden")
		return -1, nil
	}
	return i, a
}

func (s *Service) updateArticle(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if err := decodeRequest(r, &req); err != nil {
		writeErrors(w, http.StatusUnprocessableEntity, "body", "is invalid")
		return
	}
	if errs := validateArticle(req.Article, true); len(errs) != 0 {
		writeFieldErrors(w, http.StatusUnprocessableEntity, errs)
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	_, a := s.ownedArticle(w, r)
	if a == nil {
		return
	}
	in := req.Article
	if in.Title != "" && in.Title != a.title {
		a.title = in.Title
		a.slug = slugify(in.Title)
	}
	if in.Description != "" {
		a.description = in.Description
	}
	if in.Body != "" {
		a.body = in.Body
	}
	if in.TagList != nil {
		a.tagList = append([]string{}, in.TagList...)
	}
	a.updatedAt = s.now().UTC()
	writeJSON(w, http.StatusOK, s.singleArticle(a, currentUser(r)))
}

func (s *Service) deleteArticle(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	defer s.lock.Unlock()
	i, a := s.ownedArticle(w, r)
	if a == nil {
		return
	}
	s.articles = append(s.articles[:i], s.articles[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) setFavorite(w http.ResponseWriter, r *http.Request, favorite bool) {
	u := currentUser(r)
	s.lock.Lock()
	defer s.lock.Unlock()
	_, a := s.findArticle(mux.Vars(r)["slug"])
	if a == nil {
		writeErrors(w, http.StatusNotFound, "article", "not found")
		return
	}
	if favorite {
		a.favoritedBy[u.username] = true
	} else {
		delete(a.favoritedBy, u.username)
	}
	writeJSON(w, http.StatusOK, s.singleArticle(a, u))
}

func (s *Service) favoriteArticle(w http.ResponseWriter, r *http.Request) {
	s.setFavorite(w, r, true)
}

func (s *Service) unfavoriteArticle(w http.ResponseWriter, r *http.Request) {
	s.setFavorite(w, r, false)
}
