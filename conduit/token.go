package conduit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/conduit-qa/conduit-test-harness/framework"
	"github.com/conduit-qa/conduit-test-harness/framework/api"

	"github.com/golang-jwt/jwt/v5"
)

// TokenScheme is the prefix the API expects in the Authorization header.
const TokenScheme = "Token "

// CreateToken logs in and returns the value to send in the Authorization header, "Token <jwt>".
//
// If transport is nil, a transport is created for this call alone and its connections are released
// before returning, whether or not the login succeeded.
func CreateToken(
	ctx context.Context,
	transport api.Transport,
	baseURL, email, password string,
	debugLogger framework.Logger,
) (string, error) {
	if debugLogger == nil {
		debugLogger = framework.NullLogger()
	}
	if transport == nil {
		dedicated := api.NewHTTPTransport(nil)
		defer dedicated.Close()
		transport = dedicated
	}

	body, err := api.NewRequestHandler(transport, baseURL, api.NewLogger(debugLogger), "").
		WithContext(ctx).
		Path(EndpointLogin).
		Body(UserRequest{User: UserFields{Email: email, Password: password}}).
		Do(http.MethodPost, api.ExpectedStatus{http.StatusOK})
	if err != nil {
		return "", fmt.Errorf("login as %s failed: %w", email, err)
	}
	var resp UserResponse
	if err := body.Decode(&resp); err != nil {
		return "", fmt.Errorf("login response was not a user object: %w", err)
	}
	if resp.User.Token == "" {
		return "", errors.New("login response did not contain a token")
	}

	if claims, err := ParseTokenClaims(resp.User.Token); err != nil {
		debugLogger.Printf("Login token is not a JWT (%s)", err)
	} else if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		debugLogger.Printf("Login token for %s expires at %s", email, exp.Time)
	}
	return TokenScheme + resp.User.Token, nil
}

// ParseTokenClaims decodes the claims of a token without verifying its signature, which only the
// API can do. The "Token " prefix is optional.
func ParseTokenClaims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(strings.TrimPrefix(token, TokenScheme), claims); err != nil {
		return nil, err
	}
	return claims, nil
}
