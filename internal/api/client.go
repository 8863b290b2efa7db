// Package api provides the shared HTTP client every store talks through: one
// base URL, bearer-token injection, JSON encode/decode, structured error
// bodies, and session teardown on 401 responses.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
)

// Config holds client configuration.
type Config struct {
	// BaseURL is the API root, e.g. "https://refconnect.example.com/api".
	BaseURL string

	// Timeout bounds each request including retries of a single attempt.
	Timeout time.Duration

	// UserAgent overrides the default User-Agent header when non-empty.
	UserAgent string

	// HTTPClient lets callers supply a custom client, e.g. one with the
	// caching transport from NewCachingHTTPClient. When nil a plain client
	// with Timeout is used.
	HTTPClient *http.Client
}

// DefaultConfig returns a client configuration with sane defaults.
func DefaultConfig() Config {
	return Config{
		Timeout: 30 * time.Second,
	}
}

// Client is the shared request client. A single instance is constructed at
// startup and handed to every store; the token source and the unauthorized
// hook are the only mutable parts and are set once during wiring.
type Client struct {
	base       *url.URL
	httpClient *http.Client
	userAgent  string

	// tokenSource returns the current bearer token, or "" when logged out.
	tokenSource func() string

	// onUnauthorized is invoked when a request that carried a token comes
	// back 401. Requests sent without a token never trigger it, so an
	// unauthenticated call during startup hydration cannot tear down a
	// session that is still being restored.
	onUnauthorized func()
}

// New creates a Client from cfg. The base URL must be absolute.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("api: base URL is required")
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("api: invalid base URL: %w", err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("api: base URL must be absolute: %s", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "refconnect-cli"
	}

	return &Client{
		base:       base,
		httpClient: httpClient,
		userAgent:  userAgent,
	}, nil
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// SetTokenSource installs the function consulted for the bearer token on
// every request. Must be called before the client is shared.
func (c *Client) SetTokenSource(fn func() string) {
	c.tokenSource = fn
}

// SetUnauthorizedHook installs the 401 teardown callback.
func (c *Client) SetUnauthorizedHook(fn func()) {
	c.onUnauthorized = fn
}

// Get issues a GET and decodes the JSON response into out. Transport-level
// failures (no response received) are retried with exponential backoff; HTTP
// error statuses are not.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	operation := func() ([]byte, error) {
		body, err := c.do(ctx, http.MethodGet, path, nil, "")
		if err != nil {
			var apiErr *Error
			if AsError(err, &apiErr) {
				return nil, backoff.Permanent(err)
			}
			if ctx.Err() != nil {
				return nil, backoff.Permanent(err)
			}
			log.Debug().Err(err).Str("path", path).Msg("transport failure, retrying")
			return nil, err
		}
		return body, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond

	body, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(3),
	)
	if err != nil {
		return err
	}

	return decodeInto(body, out)
}

// Post issues a POST with a JSON body and decodes the response into out.
// Both body and out may be nil.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, out)
}

// Put issues a PUT with a JSON body and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPut, path, body, out)
}

// Delete issues a DELETE. body may be non-nil: the API deletes likes and
// follows by payload rather than by path.
func (c *Client) Delete(ctx context.Context, path string, body any) error {
	return c.doJSON(ctx, http.MethodDelete, path, body, nil)
}

// PostRawJSON posts a pre-encoded JSON body and returns the raw response.
// Used for endpoints that take a bare JSON string rather than an object.
func (c *Client) PostRawJSON(ctx context.Context, path string, raw []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(raw), "application/json")
}

// GetRaw issues a GET and returns the raw response body without retries.
func (c *Client) GetRaw(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil, "")
}

// PostMultipart uploads a file under the given form field and decodes the
// JSON response into out.
func (c *Client) PostMultipart(ctx context.Context, path, field, filename string, r io.Reader, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("api: create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("api: copy upload body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("api: close multipart writer: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, path, &buf, mw.FormDataContentType())
	if err != nil {
		return err
	}

	return decodeInto(body, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	respBody, err := c.do(ctx, method, path, reader, "application/json")
	if err != nil {
		return err
	}

	return decodeInto(respBody, out)
}

// do performs one HTTP round trip and returns the response body. Non-2xx
// statuses become *Error; a 401 on a request that carried a token fires the
// unauthorized hook before returning.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	p, query, _ := strings.Cut(path, "?")
	u := c.base.JoinPath(p)
	u.RawQuery = query

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("api: build request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	hadToken := false
	if c.tokenSource != nil {
		if token := c.tokenSource(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
			hadToken = true
		}
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("api: read response: %w", err)
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(started)).
		Msg("api call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusUnauthorized && hadToken && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return nil, decodeError(resp.StatusCode, respBody)
	}

	return respBody, nil
}

func decodeInto(body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("api: decode response: %w", err)
	}
	return nil
}

// NormalizeAssetURL converts a server-returned asset path into an absolute
// URL against base. Absolute inputs pass through unchanged; when base ends
// in /api and the asset lives under /uploads or /api the suffix is stripped
// so the asset resolves against the host root.
func NormalizeAssetURL(base, path string) string {
	if path == "" {
		return ""
	}
	lower := strings.ToLower(path)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return path
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	base = strings.TrimRight(base, "/")
	if strings.HasSuffix(strings.ToLower(base), "/api") {
		lowerPath := strings.ToLower(path)
		if strings.HasPrefix(lowerPath, "/api/") || strings.HasPrefix(lowerPath, "/uploads/") {
			base = base[:len(base)-len("/api")]
		}
	}

	return base + path
}
