package onexbet

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"betbridge/internal/pkg/mirror"
	"betbridge/internal/providers/providerutil"
)

const defaultBaseURL = "https://1xbet.ng"

type client struct {
	baseURL   string
	mirrorURL string
	partner   int
	http      *providerutil.Client
	resolver  *mirror.Resolver
	cache     providerutil.SearchCache
	ttl       time.Duration

	resolvedMu sync.RWMutex
	resolved   string
}

func newClient(baseURL, mirrorURL string, partner int, timeout time.Duration, rps float64, resolver *mirror.Resolver, cache providerutil.SearchCache, ttl time.Duration) *client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if partner <= 0 {
		partner = 159
	}
	headers := map[string]string{
		"Referer": baseURL + "/en/",
		"Origin":  baseURL,
	}
	return &client{
		baseURL:   baseURL,
		mirrorURL: mirrorURL,
		partner:   partner,
		http:      providerutil.New(timeout, rps, headers),
		resolver:  resolver,
		cache:     cache,
		ttl:       ttl,
	}
}

// resolveBaseURL returns the live domain: the configured base URL unless a
// mirror link is configured, in which case the mirror resolution wins.
// Resolution failures fall back to the configured base URL.
func (c *client) resolveBaseURL(ctx context.Context) string {
	if c.mirrorURL == "" || c.resolver == nil {
		return c.baseURL
	}
	c.resolvedMu.RLock()
	resolved := c.resolved
	c.resolvedMu.RUnlock()
	if resolved != "" {
		return resolved
	}
	resolved, err := c.resolver.Resolve(ctx, c.mirrorURL)
	if err != nil {
		return c.baseURL
	}
	c.resolvedMu.Lock()
	c.resolved = resolved
	c.resolvedMu.Unlock()
	return resolved
}

func (c *client) getCoupon(ctx context.Context, code string) ([]byte, error) {
	u := c.resolveBaseURL(ctx) + "/service-api/LiveBet/Open/GetCoupon"
	payload := map[string]any{
		"Guid":    code,
		"Lng":     "en",
		"partner": c.partner,
	}
	return c.http.PostJSON(ctx, u, payload, nil)
}

func (c *client) saveCoupon(ctx context.Context, req xbBookReq) ([]byte, error) {
	u := c.resolveBaseURL(ctx) + "/service-api/LiveBet/Open/SaveCoupon"
	return c.http.PostJSON(ctx, u, req, nil)
}

// search queries the pre-match and live search feeds for one keyword.
func (c *client) search(ctx context.Context, feed, text string) ([]byte, error) {
	base := c.resolveBaseURL(ctx)
	u := fmt.Sprintf("%s/service-api/%s/Web_SearchZip?text=%s&limit=50&gr=412&lng=en&country=132&mode=4&partner=%d&userId=0",
		base, feed, url.QueryEscape(text), c.partner)
	key := "onexbet:" + feed + ":search:" + text
	return providerutil.CachedGet(ctx, c.http, c.cache, key, u, nil, c.ttl)
}
