package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/indcloud/console/data"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DefaultTimeout applies to every REST call unless overridden
const DefaultTimeout = 30 * time.Second

// APIError is returned when the backend answers with a failure
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error: %v %v", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("server error: %v %v", e.Status, e.Message)
}

// Is lets errors.Is match a 404 against data.ErrNotFound
func (e *APIError) Is(target error) bool {
	return target == data.ErrNotFound && e.Status == http.StatusNotFound
}

// Client is a REST client for the backend. It is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	debug   bool

	lock  sync.RWMutex
	token string
}

// Option configures a Client
type Option func(*Client)

// WithToken sets the bearer token sent with every request
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient replaces the underlying http client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithDebug logs every request and response status
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// New creates a client for the backend at baseURL
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid backend URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// BaseURL returns the backend URL
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// SetToken replaces the bearer token, for example after a login or when the
// config profile is reloaded.
func (c *Client) SetToken(token string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.token = token
}

// Token returns the current bearer token
func (c *Client) Token() string {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.token
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body interface{}) (*http.Request, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "error encoding request")
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), rdr)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// send performs a request and returns the response when the status is 2xx
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body interface{}) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return nil, errors.Wrapf(err, "%v %v", method, path)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%v %v", method, path)
	}

	if c.debug {
		log.WithFields(log.Fields{
			"method":   method,
			"path":     path,
			"status":   resp.StatusCode,
			"duration": time.Since(start),
		}).Debug("api request")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, errors.Wrapf(readAPIError(resp), "%v %v", method, path)
	}

	return resp, nil
}

func readAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var e data.ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && (e.Message != "" || e.Error != "") {
		apiErr.Message = e.Message
		if apiErr.Message == "" {
			apiErr.Message = e.Error
		}
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(body))
	return apiErr
}

// do sends a request and decodes a JSON response into out when out is not nil
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	resp, err := c.send(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "error decoding %v %v", method, path)
	}
	return nil
}

// mutate sends a request whose response is an APIResponse envelope and
// returns the payload
func mutate[T any](ctx context.Context, c *Client, method, path string, query url.Values, body interface{}) (T, error) {
	var r data.APIResponse[T]
	if err := c.do(ctx, method, path, query, body, &r); err != nil {
		return r.Data, err
	}
	if !r.Success {
		return r.Data, errors.Wrapf(&APIError{Status: http.StatusOK, Message: r.Message},
			"%v %v", method, path)
	}
	return r.Data, nil
}

// Message extracts the user facing message of an error returned by the client
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return errors.Cause(err).Error()
}
