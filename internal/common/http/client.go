// Package http is the outbound HTTP client shared by every source adapter.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "findata-workers/internal/common/errors"
)

const (
	// BrowserUserAgent is sent by default; several profile sites reject bare Go clients.
	BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	DefaultMaxBodyBytes int64 = 5 << 20
)

// Client performs bounded GET requests on behalf of a named source.
type Client struct {
	httpClient   *http.Client
	userAgent    string
	maxBodyBytes int64
}

type Option func(*Client)

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// WithHTTPClient swaps the transport, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:   &http.Client{},
		userAgent:    BrowserUserAgent,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Response is a fully read upstream response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Get issues one GET bounded by timeout. Exceeding the timeout aborts the
// socket and yields a SOURCE_TIMEOUT error; other transport failures yield
// SOURCE_UNAVAILABLE. Non-2xx statuses are returned to the caller untouched.
func (c *Client) Get(ctx context.Context, source, url string, headers map[string]string, timeout time.Duration) (*Response, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.NewSourceUnavailableError(source, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,application/json;q=0.8,*/*;q=0.7")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(reqCtx, source, timeout, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes))
	if err != nil {
		return nil, c.transportError(reqCtx, source, timeout, err)
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func (c *Client) transportError(reqCtx context.Context, source string, timeout time.Duration, err error) error {
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		return apperrors.NewTimeoutError(source, timeout)
	}
	return apperrors.NewSourceUnavailableError(source, err)
}

// StatusError maps the statuses every adapter must surface: 429 to a rate
// limit error, 401 and 403 to an auth error. Anything else returns nil.
func StatusError(source string, status int) error {
	switch status {
	case http.StatusTooManyRequests:
		return apperrors.NewRateLimitError(source)
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperrors.NewAuthError(source, status)
	default:
		return nil
	}
}
