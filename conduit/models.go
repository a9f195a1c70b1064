package conduit

// Response and request bodies of the API. Optional properties that the API may send as null are
// pointers.

type TagsResponse struct {
	Tags []string `json:"tags"`
}

type Author struct {
	Username  string  `json:"username"`
	Bio       *string `json:"bio"`
	Image     string  `json:"image"`
	Following bool    `json:"following"`
}

type Article struct {
	Slug           string   `json:"slug"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Body           string   `json:"body,omitempty"`
	TagList        []string `json:"tagList"`
	CreatedAt      string   `json:"createdAt"`
	UpdatedAt      string   `json:"updatedAt"`
	Favorited      bool     `json:"favorited"`
	FavoritesCount int      `json:"favoritesCount"`
	Author         Author   `json:"author"`
}

type ArticleResponse struct {
	Article Article `json:"article"`
}

type ArticlesResponse struct {
	Articles      []Article `json:"articles"`
	ArticlesCount int       `json:"articlesCount"`
}

type User struct {
	Email    string  `json:"email"`
	Username string  `json:"username"`
	Bio      *string `json:"bio"`
	Image    string  `json:"image"`
	Token    string  `json:"token"`
}

type UserResponse struct {
	User User `json:"user"`
}

type ProfileResponse struct {
	Profile Author `json:"profile"`
}

// ErrorsResponse is the body of a 4xx response: each invalid field maps to its messages.
type ErrorsResponse struct {
	Errors map[string][]string `json:"errors"`
}

type ArticleFields struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Body        string   `json:"body"`
	TagList     []string `json:"tagList"`
}

type ArticleRequest struct {
	Article ArticleFields `json:"article"`
}

type UserFields struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserRequest struct {
	User UserFields `json:"user"`
}
