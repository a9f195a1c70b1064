// Package fakeconduit is an in-memory imitation of the Conduit REST API, close enough to the real
// service for the suite to be run against it in unit tests. It is not used by the command itself.
package fakeconduit

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/conduit-qa/conduit-test-harness/framework"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// SeedAuthor is the user that owns the articles a new Service starts with.
const SeedAuthor = "Artem Bondar"

// MaxTags is the number of tags returned by GET /api/tags.
const MaxTags = 10

var seedTags = []string{
	"Test", "GitHub", "Coding", "Git", "Zoom", "Enroll", "YouTube", "Exam", "Bondar Academy", "Blog", "qa",
}

// Service is an http.Handler serving the fake API. It is safe for concurrent use.
type Service struct {
	handler     http.Handler
	secret      []byte
	users       map[string]*user // by email
	articles    []*article       // newest first
	tags        []string
	debugLogger framework.Logger
	now         func() time.Time
	lock        sync.RWMutex
}

// NewService creates a Service seeded with tags and a page's worth of articles.
func NewService(debugLogger framework.Logger) *Service {
	if debugLogger == nil {
		debugLogger = framework.NullLogger()
	}
	s := &Service{
		secret:      []byte(uuid.NewString()),
		users:       make(map[string]*user),
		tags:        append([]string(nil), seedTags...),
		debugLogger: debugLogger,
		now:         time.Now,
	}

	s.AddUser("artem@example.com", SeedAuthor, "conduit-seed")
	base := s.now().Add(-time.Hour)
	for i := 0; i < 12; i++ {
		a := s.newArticle(SeedAuthor, articleInput{
			Title:       "Discover Bondar Academy " + string(rune('A'+i)),
			Description: "Seed article",
			Body:        "Seed article body",
			TagList:     []string{seedTags[i%len(seedTags)]},
		})
		a.createdAt = base.Add(time.Duration(i) * time.Minute)
		a.updatedAt = a.createdAt
		s.articles = append([]*article{a}, s.articles...)
	}

	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/tags", s.getTags).Methods("GET")
	api.HandleFunc("/users/login", s.login).Methods("POST")
	api.HandleFunc("/users", s.signup).Methods("POST")
	api.HandleFunc("/user", s.withUser(s.getCurrentUser)).Methods("GET")
	api.HandleFunc("/profiles/{username}", s.getProfile).Methods("GET")
	api.HandleFunc("/articles", s.listArticles).Methods("GET")
	api.HandleFunc("/articles", s.withUser(s.createArticle)).Methods("POST")
	api.HandleFunc("/articles/{slug}", s.getArticle).Methods("GET")
	api.HandleFunc("/articles/{slug}", s.withUser(s.updateArticle)).Methods("PUT")
	api.HandleFunc("/articles/{slug}", s.withUser(s.deleteArticle)).Methods("DELETE")
	api.HandleFunc("/articles/{slug}/favorite", s.withUser(s.favoriteArticle)).Methods("POST")
	api.HandleFunc("/articles/{slug}/favorite", s.withUser(s.unfavoriteArticle)).Methods("DELETE")
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrors(w, http.StatusNotFound, "path", "not found")
	})
	s.handler = router

	return s
}

func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.debugLogger.Printf("Fake Conduit received %s %s", r.Method, r.URL)
	s.handler.ServeHTTP(w, r)
}

// Tags returns the current tag list.
func (s *Service) Tags() []string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return append([]string(nil), s.tags...)
}

// ArticleSlugs returns the slugs of all articles, newest first.
func (s *Service) ArticleSlugs() []string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	ret := make([]string, 0, len(s.articles))
	for _, a := range s.articles {
		ret = append(ret, a.slug)
	}
	return ret
}

func decodeRequest(r *http.Request, out interface{}) error {
	return json.NewDecoder(r.Body).Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, value ldvalue.Value) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(value.JSONString()))
}

// writeErrors writes the error envelope the API uses: {"errors":{"<field>":["<message>", ...]}}.
func writeErrors(w http.ResponseWriter, status int, field string, messages ...string) {
	writeFieldErrors(w, status, map[string][]string{field: messages})
}

func writeFieldErrors(w http.ResponseWriter, status int, errs map[string][]string) {
	fields := ldvalue.ObjectBuild()
	for field, messages := range errs {
		list := ldvalue.ArrayBuild()
		for _, m := range messages {
			list.Add(ldvalue.String(m))
		}
		fields.Set(field, list.Build())
	}
	writeJSON(w, status, ldvalue.ObjectBuild().Set("errors", fields.Build()).Build())
}

func (s *Service) getTags(w http.ResponseWriter, r *http.Request) {
	tags := s.Tags()
	if len(tags) > MaxTags {
		tags = tags[:MaxTags]
	}
	list := ldvalue.ArrayBuild()
	for _, t := range tags {
		list.Add(ldvalue.String(t))
	}
	writeJSON(w, http.StatusOK, ldvalue.ObjectBuild().Set("tags", list.Build()).Build())
}
