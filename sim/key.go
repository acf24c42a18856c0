package sim

import (
	"crypto/rand"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// roles carried in simulator tokens
const (
	RoleAdmin     = "ROLE_ADMIN"
	RoleDeveloper = "ROLE_DEVELOPER"
	RoleUser      = "ROLE_USER"
)

// Claims are the claims of a simulator token
type Claims struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Key provides a key for signing authentication tokens.
type Key struct {
	bytes []byte
	ttl   time.Duration
}

// NewKey returns a new random Key of the given size
func NewKey(size int, ttl time.Duration) (key Key, err error) {
	key.bytes = make([]byte, size)
	key.ttl = ttl
	_, err = rand.Read(key.bytes)
	return
}

// NewToken returns a new authentication token signed by the Key
func (k Key) NewToken(email string, admin bool) (string, error) {
	roles := []string{RoleUser}
	if admin {
		roles = append(roles, RoleAdmin, RoleDeveloper)
	}
	now := time.Now()
	claims := Claims{
		Email: email,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    "indcloud-sim",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(k.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString(k.bytes)
}

// Parse returns the claims of a token signed by the Key
func (k Key) Parse(str string) (*Claims, bool) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(str, claims, k.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, false
	}
	return claims, true
}

// RequestClaims returns the claims of the bearer token of a request. The
// token may also be passed as a "token" query parameter, which is how
// WebSocket clients authenticate.
func (k Key) RequestClaims(req *http.Request) (*Claims, bool) {
	fields := strings.Fields(req.Header.Get("Authorization"))
	if len(fields) == 2 && fields[0] == "Bearer" {
		return k.Parse(fields[1])
	}
	if t := req.URL.Query().Get("token"); t != "" {
		return k.Parse(t)
	}
	return nil, false
}

func (k Key) keyFunc(*jwt.Token) (interface{}, error) {
	return k.bytes, nil
}

// HasRole reports whether the claims carry role
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
