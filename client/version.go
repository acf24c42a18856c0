package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/blang/semver/v4"
	"github.com/indcloud/console/data"
)

// MinServerVersion is the oldest backend the console works with
var MinServerVersion = semver.MustParse("1.0.0")

// ServerVersion fetches the backend version
func (c *Client) ServerVersion(ctx context.Context) (semver.Version, error) {
	var v data.Version
	if err := c.do(ctx, http.MethodGet, "/api/v1/version", nil, nil, &v); err != nil {
		return semver.Version{}, err
	}
	return ParseVersion(v.Version)
}

// ParseVersion parses a backend version string, tolerating a leading "v" and
// missing minor or patch numbers.
func ParseVersion(s string) (semver.Version, error) {
	v, err := semver.ParseTolerant(strings.TrimSpace(s))
	if err != nil {
		return v, fmt.Errorf("invalid server version %q: %w", s, err)
	}
	return v, nil
}

// CheckVersion fails when the backend is older than MinServerVersion
func (c *Client) CheckVersion(ctx context.Context) (semver.Version, error) {
	v, err := c.ServerVersion(ctx)
	if err != nil {
		return v, err
	}
	if v.LT(MinServerVersion) {
		return v, fmt.Errorf("server version %v is older than the minimum supported %v",
			v, MinServerVersion)
	}
	return v, nil
}
