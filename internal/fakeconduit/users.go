package fakeconduit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

const tokenLifetime = 24 * time.Hour

// Length limits enforced on registration.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 20
	MinPasswordLength = 8
	MaxPasswordLength = 20
)

type user struct {
	email    string
	username string
	password string
	bio      ldvalue.OptionalString
	image    string
}

type credentials struct {
	User struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	} `json:"user"`
}

type userKey struct{}

// AddUser registers a user directly, bypassing validation.
func (s *Service) AddUser(email, username, password string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.users[strings.ToLower(email)] = &user{
		email:    email,
		username: username,
		password: password,
		image:    "https://api.realworld.io/images/smiley-cyrus.jpeg",
	}
}

// Token issues a token for the user with the given email, as a successful login would.
func (s *Service) Token(email string) (string, error) {
	s.lock.RLock()
	u := s.users[strings.ToLower(email)]
	s.lock.RUnlock()
	if u == nil {
		return "", fmt.Errorf("no user with email %q", email)
	}
	return s.issueToken(u)
}

func (s *Service) issueToken(u *user) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"email":    u.email,
		"username": u.username,
		"iat":      now.Unix(),
		"exp":      now.Add(tokenLifetime).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Service) userFromToken(tokenString string) (*user, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims format")
	}
	email, _ := claims["email"].(string)
	s.lock.RLock()
	defer s.lock.RUnlock()
	u := s.users[strings.ToLower(email)]
	if u == nil {
		return nil, errors.New("user no longer exists")
	}
	return u, nil
}

// withUser requires an "Authorization: Token <jwt>" header and passes the user on in the context.
func (s *Service) withUser(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := s.optionalUser(w, r)
		if !ok {
			return
		}
		if u == nil {
			writeErrors(w, http.StatusUnauthorized, "message", "missing authorization credentials")
			return
		}
		handler(w, r.WithContext(context.WithValue(r.Context(), userKey{}, u)))
	}
}

// optionalUser returns the authenticated user, or nil if there is no Authorization header. If the
// header is present but invalid it writes a 401 and returns false.
func (s *Service) optionalUser(w http.ResponseWriter, r *http.Request) (*user, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, true
	}
	tokenString, found := strings.CutPrefix(header, "Token ")
	if !found {
		writeErrors(w, http.StatusUnauthorized, "message", "authorization scheme must be Token")
		return nil, false
	}
	u, err := s.userFromToken(tokenString)
	if err != nil {
		s.debugLogger.Printf("Rejected token: %s", err)
		writeErrors(w, http.StatusUnauthorized, "message", "invalid token")
		return nil, false
	}
	return u, true
}

func currentUser(r *http.Request) *user {
	u, _ := r.Context().Value(userKey{}).(*user)
	return u
}

func (u *user) bioValue() ldvalue.Value {
	return u.bio.AsValue()
}

func (u *user) userJSON(token string) ldvalue.Value {
	return ldvalue.ObjectBuild().Set("user", ldvalue.ObjectBuild().
		Set("email", ldvalue.String(u.email)).
		Set("username", ldvalue.String(u.username)).
		Set("bio", u.bioValue()).
		Set("image", ldvalue.String(u.image)).
		Set("token", ldvalue.String(token)).
		Build()).Build()
}

func (u *user) profileJSON() ldvalue.Value {
	return ldvalue.ObjectBuild().
		Set("username", ldvalue.String(u.username)).
		Set("bio", u.bioValue()).
		Set("image", ldvalue.String(u.image)).
		Set("following", ldvalue.Bool(false)).
		Build()
}

func (s *Service) login(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decodeRequest(r, &c); err != nil {
		writeErrors(w, http.StatusUnprocessableEntity, "body", "is invalid")
		return
	}
	switch {
	case c.User.Email == "":
		writeErrors(w, http.StatusUnprocessableEntity, "email", "can't be blank")
		return
	case c.User.Password == "":
		writeErrors(w, http.StatusUnprocessableEntity, "password", "can't be blank")
		return
	}

	s.lock.RLock()
	u := s.users[strings.ToLower(c.User.Email)]
	s.lock.RUnlock()
	if u == nil || u.password != c.User.Password {
		writeErrors(w, http.StatusForbidden, "email or password", "is invalid")
		return
	}
	token, err := s.issueToken(u)
	if err != nil {
		writeErrors(w, http.StatusInternalServerError, "token", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, u.userJSON(token))
}

func validateRegistration(c credentials, taken func(email, username string) (bool, bool)) map[string][]string {
	errs := make(map[string][]string)
	checkLength := func(field, value string, min, max int) {
		switch {
		case value == "":
			errs[field] = append(errs[field], "can't be blank")
		case len(value) < min:
			errs[field] = append(errs[field], fmt.Sprintf("is too short (minimum is %d characters)", min))
		case len(value) > max:
			errs[field] = append(errs[field], fmt.Sprintf("is too long (maximum is %d characters)", max))
		}
	}
	checkLength("username", c.User.Username, MinUsernameLength, MaxUsernameLength)
	checkLength("password", c.User.Password, MinPasswordLength, MaxPasswordLength)

	if c.User.Email == "" {
		errs["email"] = append(errs["email"], "can't be blank")
	} else if addr, err := mail.ParseAddress(c.User.Email); err != nil || addr.Address != c.User.Email {
		errs["email"] = append(errs["email"], "is invalid")
	}

	emailTaken, usernameTaken := taken(c.User.Email, c.User.Username)
	if emailTaken {
		errs["email"] = append(errs["email"], "has already been taken")
	}
	if usernameTaken {
		errs["username"] = append(errs["username"], "has already been taken")
	}
	return errs
}

func (s *Service) signup(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decodeRequest(r, &c); err != nil {
		writeErrors(w, http.StatusUnprocessableEntity, "body", "is invalid")
		return
	}

	s.lock.Lock()
	errs := validateRegistration(c, func(email, username string) (bool, bool) {
		emailTaken := s.users[strings.ToLower(email)] != nil
		usernameTaken := false
		for _, u := range s.users {
			if u.username == username {
				usernameTaken = true
			}
		}
		return emailTaken, usernameTaken
	})
	if len(errs) != 0 {
		s.lock.Unlock()
		writeFieldErrors(w, http.StatusUnprocessableEntity, errs)
		return
	}
	u := &user{email: c.User.Email, username: c.User.Username, password: c.User.Password}
	s.users[strings.ToLower(u.email)] = u
	s.lock.Unlock()

	token, err := s.issueToken(u)
	if err != nil {
		writeErrors(w, http.StatusInternalServerError, "token", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, u.userJSON(token))
}

func (s *Service) getCurrentUser(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Token ")
	writeJSON(w, http.StatusOK, u.userJSON(token))
}

func (s *Service) findUserByName(username string) *user {
	s.lock.RLock()
	defer s.lock.RUnlock()
	for _, u := range s.users {
		if u.username == username {
			return u
		}
	}
	return nil
}

func (s *Service) getProfile(w http.ResponseWriter, r *http.Request) {
	u := s.findUserByName(mux.Vars(r)["username"])
	if u == nil {
		writeErrors(w, http.StatusNotFound, "profile", "not found")
		return
	}
	writeJSON(w, http.StatusOK, ldvalue.ObjectBuild().Set("profile", u.profileJSON()).Build())
}
