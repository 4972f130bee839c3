// Package transport wraps outbound HTTP to the task backend: it joins paths
// to the configured origin, carries the session cookie, normalizes response
// keys to camelCase and enforces the authentication-failure policy.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultTimeout is used when no HTTP client or timeout is supplied.
	DefaultTimeout = 10 * time.Second

	// DefaultLoginPath is where the client navigates after a 401.
	DefaultLoginPath = "/login"

	maxResponseSize = 10 * 1024 * 1024
)

// Navigator moves the user to another entry point of the client.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

// Navigate calls f(path).
func (f NavigatorFunc) Navigate(path string) { f(path) }

// Response is a successful backend response with its payload normalized.
type Response struct {
	Status int
	Header http.Header

	// Data is the decoded JSON body with camelCase keys, or nil if the
	// body was empty.
	Data any
}

// Decode binds the normalized payload into v, which should use camelCase
// json tags. A nil payload leaves v untouched.
func (r *Response) Decode(v any) error {
	if r.Data == nil {
		return nil
	}
	data, err := json.Marshal(r.Data)
	if err != nil {
		return fmt.Errorf("failed to re-encode payload: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	return nil
}

// Client performs requests against one backend origin.
// It is safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	navigator Navigator
	loginPath string
	logger    *zap.Logger

	// authFailed latches after the first 401 so that concurrent failures
	// navigate only once. ResetAuth re-arms it.
	authFailed atomic.Bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. A client without a
// cookie jar gets one.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the underlying HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithNavigator sets the target of the authentication-failure redirect.
func WithNavigator(n Navigator) Option {
	return func(c *Client) { c.navigator = n }
}

// WithLoginPath sets the path handed to the navigator on 401.
func WithLoginPath(path string) Option {
	return func(c *Client) { c.loginPath = path }
}

// WithLogger sets the logger used for failed requests.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l.Named("transport") }
}

// New creates a client for the backend at origin, e.g.
// "http://localhost:80/api/v1/".
func New(origin string, opts ...Option) (*Client, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("invalid origin: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid origin: %q", origin)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	c := &Client{
		baseURL:   u,
		http:      &http.Client{Timeout: DefaultTimeout},
		navigator: NavigatorFunc(func(string) {}),
		loginPath: DefaultLoginPath,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		c.http.Jar = jar
	}
	return c, nil
}

// Jar returns the cookie jar holding the session credential.
func (c *Client) Jar() http.CookieJar {
	return c.http.Jar
}

// BaseURL returns a copy of the origin requests are resolved against.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// ResetAuth re-arms the login redirect. Call it after a successful sign-in.
func (c *Client) ResetAuth() {
	c.authFailed.Store(false)
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, body)
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, path, body)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}

// Do sends method path with an optional JSON body and returns the
// normalized response.
//
// A 401 navigates to the login path once, then returns a *StatusError
// matching ErrUnauthorized. Other failures are logged and returned as is.
// Nothing is retried.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	target, err := c.resolve(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", path, err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("request", zap.String("method", method), zap.String("url", target.String()))

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.logger.Error("failed to read response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s %s: failed to read response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serr := &StatusError{
			Method:  method,
			Path:    path,
			Code:    resp.StatusCode,
			Message: serverMessage(raw),
		}
		if resp.StatusCode == http.StatusUnauthorized {
			c.redirectToLogin()
			return nil, serr
		}
		c.logger.Error("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", serr.Message),
		)
		return nil, serr
	}

	data, err := decodePayload(raw)
	if err != nil {
		c.logger.Error("invalid response body",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		Data:   Normalize(data),
	}, nil
}

// resolve joins path to the origin. Leading slashes are dropped so that
// "/tasks" lands under the origin's path prefix rather than replacing it.
func (c *Client) resolve(path string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimLeft(path, "/"))
	if err != nil {
		return nil, err
	}
	return c.baseURL.ResolveReference(ref), nil
}

func (c *Client) redirectToLogin() {
	if !c.authFailed.CompareAndSwap(false, true) {
		return
	}
	c.logger.Info("session rejected, navigating to login", zap.String("path", c.loginPath))
	c.navigator.Navigate(c.loginPath)
}

// decodePayload decodes a JSON body, keeping numbers as json.Number.
// An empty or whitespace-only body decodes to nil.
func decodePayload(raw []byte) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return v, nil
}
