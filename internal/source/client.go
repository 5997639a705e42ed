package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is one request per second, polite for all the
	// public APIs used here.
	DefaultRateLimit = 1.0

	// DefaultMaxRetries is the retry count for 5xx responses.
	DefaultMaxRetries = 3

	// DefaultUserAgent identifies the crawler to upstream APIs.
	DefaultUserAgent = "livingreview/1.0 (https://github.com/accelml/livingreview)"
)

// Client is a rate-limited HTTP client shared by the remote adapters.
// Server errors are retried with exponential backoff.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	authToken  string
	maxRetries int
	backoff    time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit sets the request rate in requests per second.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) { c.userAgent = ua }
}

// WithAuthToken sets a bearer token sent with every request.
func WithAuthToken(tok string) ClientOption {
	return func(c *Client) { c.authToken = tok }
}

// WithMaxRetries sets the retry count for server errors.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) { c.maxRetries = n }
}

// WithBackoff sets the base backoff delay between retries (for testing).
func WithBackoff(d time.Duration) ClientOption {
	return func(c *Client) { c.backoff = d }
}

// NewClient creates a shared adapter client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		userAgent:  DefaultUserAgent,
		maxRetries: DefaultMaxRetries,
		backoff:    time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs a rate-limited GET and returns the response body. 5xx
// responses are retried with exponential backoff; 429 maps to
// ErrRateLimited and other 4xx to a FetchError.
func (c *Client) Get(ctx context.Context, source, rawURL string, params url.Values) ([]byte, error) {
	u := rawURL
	if len(params) > 0 {
		u = rawURL + "?" + params.Encode()
	}

	var lastStatus int
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json, application/atom+xml")
		if c.authToken != "" {
			req.Header.Set("Authorization", "Bearer "+c.authToken)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &FetchError{Source: source, URL: u, Err: err}
		}

		if resp.StatusCode >= 500 {
			lastStatus = resp.StatusCode
			resp.Body.Close()
			continue
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			return nil, &FetchError{Source: source, URL: u, StatusCode: resp.StatusCode,
				Err: ErrRateLimited}
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, &FetchError{Source: source, URL: u, StatusCode: resp.StatusCode,
				Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, &FetchError{Source: source, URL: u, Err: err}
		}
		return body, nil
	}

	return nil, &FetchError{Source: source, URL: u, StatusCode: lastStatus, Err: ErrUnavailable}
}

// GetJSON performs a GET and decodes the JSON response into v.
func (c *Client) GetJSON(ctx context.Context, source, rawURL string, params url.Values, v any) error {
	body, err := c.Get(ctx, source, rawURL, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &ParseError{Source: source, Err: err}
	}
	return nil
}
