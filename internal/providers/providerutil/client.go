// Package providerutil carries the wire plumbing shared by the provider
// adapters: a rate-limited HTTP client and an optional search-response
// cache. Provider search endpoints are rate-sensitive and may block
// scraping-pattern traffic, so every request waits on a per-client limiter.
package providerutil

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

	"golang.org/x/time/rate"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Client is a bounded-timeout, rate-limited HTTP client for one provider.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	headers   map[string]string
}

// New builds a client. rps caps outbound requests per second (burst 1);
// zero disables limiting. headers are sent on every request.
func New(timeout time.Duration, rps float64, headers map[string]string) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		limiter:   limiter,
		userAgent: defaultUserAgent,
		headers:   headers,
	}
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

// Get fetches a URL and returns the raw body.
func (c *Client) Get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.do(req)
}

// PostJSON sends payload as a JSON body and returns the raw response body.
func (c *Client) PostJSON(ctx context.Context, rawURL string, payload any, headers map[string]string) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.do(req)
}

// PostForm sends form-encoded values and returns the raw response body.
func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.do(req)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// SearchCache caches raw search responses for a short TTL so repeated
// conversions of the same teams do not hammer provider search endpoints.
// Implementations must be safe for concurrent use; a nil cache is allowed.
type SearchCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration)
}

// CachedGet serves a GET through the cache when one is configured.
func CachedGet(ctx context.Context, c *Client, cache SearchCache, key, rawURL string, headers map[string]string, ttl time.Duration) ([]byte, error) {
	if cache != nil {
		if body, ok := cache.Get(ctx, key); ok {
			return body, nil
		}
	}
	body, err := c.Get(ctx, rawURL, headers)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		cache.Set(ctx, key, body, ttl)
	}
	return body, nil
}
