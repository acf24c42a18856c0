package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/blang/semver/v4"
	"github.com/golang-jwt/jwt/v4"
	"github.com/indcloud/console/client"
	"github.com/indcloud/console/sim"
	"github.com/indcloud/console/testutil"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	_, c := testutil.Backend(t, sim.Options{AdminEmail: "ops@example.com", AdminPassword: "hunter2"})
	c.SetToken("")
	ctx := context.Background()

	_, err := c.Login(ctx, "ops@example.com", "wrong")
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
	require.Empty(t, c.Token())

	auth, err := c.Login(ctx, "ops@example.com", "hunter2")
	require.NoError(t, err)
	require.True(t, auth.IsAdmin)
	require.Equal(t, auth.Token, c.Token())

	info, err := client.ParseToken(c.Token())
	require.NoError(t, err)
	require.Equal(t, "ops@example.com", info.Email)
	require.True(t, info.HasRole(sim.RoleAdmin))
	require.True(t, info.HasRole(sim.RoleDeveloper))
	require.False(t, info.Expired(time.Now()))

	_, err = c.Devices(ctx)
	require.NoError(t, err)
}

func TestParseToken(t *testing.T) {
	claims := jwt.MapClaims{
		"sub":   "jane",
		"roles": "ROLE_USER",
		"exp":   float64(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).Unix()),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)

	info, err := client.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, "jane", info.Subject)
	require.Equal(t, "jane", info.Email)
	require.Equal(t, []string{"ROLE_USER"}, info.Roles)
	require.True(t, info.Expired(time.Now()))

	_, err = client.ParseToken("not-a-token")
	require.Error(t, err)
}

func TestOAuthURL(t *testing.T) {
	c, err := client.New("https://cloud.example.com/")
	require.NoError(t, err)

	u, err := url.Parse(c.OAuthURL("google", "http://localhost:8000/callback"))
	require.NoError(t, err)
	require.Equal(t, "/oauth2/authorization/google", u.Path)
	require.Equal(t, "http://localhost:8000/callback", u.Query().Get("redirect_uri"))

	require.Equal(t, "https://cloud.example.com/oauth2/authorization/github", c.OAuthURL("github", ""))
}

func TestNewClientScheme(t *testing.T) {
	_, err := client.New("ftp://example.com")
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	_, c := testutil.Backend(t, sim.Options{})

	v, err := c.CheckVersion(context.Background())
	require.NoError(t, err)
	require.Equal(t, semver.MustParse(sim.Version), v)

	v, err = client.ParseVersion("v2.1")
	require.NoError(t, err)
	require.Equal(t, semver.MustParse("2.1.0"), v)

	_, err = client.ParseVersion("latest")
	require.Error(t, err)
}
