package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/forest-army/faucet-claimer/pkg/logger"
	"golang.org/x/time/rate"
)

// TokenHeader carries the session token. The API does not use a bearer scheme.
const TokenHeader = "token"

// Client performs JSON requests against the faucet API.
type Client struct {
	baseURL      string
	providerType string
	headers      map[string]string
	userAgent    string
	httpClient   *http.Client
	limiter      *rate.Limiter
}

type Option func(*Client)

// WithHeaders sets the fixed headers sent on every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		c.headers = headers
	}
}

func WithProviderType(providerType string) Option {
	return func(c *Client) {
		c.providerType = providerType
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithRateLimit caps outgoing requests per second; rps <= 0 disables the limit.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a client whose every call is bounded by timeout.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProviderType is the wallet provider tag sent with auth requests.
func (c *Client) ProviderType() string {
	return c.providerType
}

// Get issues a GET and decodes the JSON response into out. A *[]byte out
// receives the raw body undecoded.
func (c *Client) Get(ctx context.Context, path string, query url.Values, token string, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, endpoint, path, nil, token, out)
}

// Post marshals body as JSON, issues a POST and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body any, token string, out any) error {
	if body == nil {
		body = struct{}{}
	}
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, c.baseURL+path, path, jsonData, token, out)
}

func (c *Client) do(ctx context.Context, method, endpoint, path string, payload []byte, token string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if token != "" {
		req.Header.Set(TokenHeader, token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	logger.Debugf("[api] %s %s -> %d in %v", method, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newError(method, path, resp.StatusCode, respBody)
	}

	if raw, ok := out.(*[]byte); ok {
		*raw = respBody
		return nil
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: failed to unmarshal %s response: %v", ErrProtocol, path, err)
	}
	return nil
}
