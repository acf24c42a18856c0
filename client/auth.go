package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/indcloud/console/data"
	"github.com/pkg/errors"
)

// Login authenticates with email and password. On success the returned
// token is used for subsequent requests.
func (c *Client) Login(ctx context.Context, email, password string) (data.Auth, error) {
	var ret data.Auth
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", nil,
		data.Login{Email: email, Password: password}, &ret)
	if err != nil {
		return ret, err
	}
	if ret.Token == "" {
		return ret, errors.New("login response did not include a token")
	}
	c.SetToken(ret.Token)
	return ret, nil
}

// OAuthURL returns the URL that starts an OAuth login with provider. After
// login the backend redirects to redirectURI with the token.
func (c *Client) OAuthURL(provider, redirectURI string) string {
	var q url.Values
	if redirectURI != "" {
		q = url.Values{"redirect_uri": {redirectURI}}
	}
	return c.endpoint("/oauth2/authorization/"+url.PathEscape(provider), q)
}

// TokenInfo is what the console reads from a bearer token. The signature is
// not checked; only the backend can do that.
type TokenInfo struct {
	Subject   string
	Email     string
	Roles     []string
	ExpiresAt time.Time
}

// Expired reports whether the token expired before now
func (t TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

// HasRole reports whether the token carries role
func (t TokenInfo) HasRole(role string) bool {
	for _, r := range t.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ParseToken extracts the claims the console uses from a JWT
func ParseToken(token string) (TokenInfo, error) {
	var ret TokenInfo
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		return ret, fmt.Errorf("invalid token: %w", err)
	}

	if sub, ok := claims["sub"].(string); ok {
		ret.Subject = sub
	}
	if email, ok := claims["email"].(string); ok {
		ret.Email = email
	} else {
		ret.Email = ret.Subject
	}
	if exp, ok := claims["exp"].(float64); ok {
		ret.ExpiresAt = time.Unix(int64(exp), 0)
	}

	switch roles := claims["roles"].(type) {
	case []interface{}:
		for _, r := range roles {
			if s, ok := r.(string); ok {
				ret.Roles = append(ret.Roles, s)
			}
		}
	case string:
		ret.Roles = []string{roles}
	}

	return ret, nil
}
