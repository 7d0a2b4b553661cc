package sportybet

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"betbridge/internal/providers/providerutil"
)

const defaultBaseURL = "https://www.sportybet.com"
const defaultRegion = "ng"

// validRegions are the country segments the public API serves.
var validRegions = map[string]bool{"ng": true, "gh": true, "ke": true, "ug": true, "tz": true}

type client struct {
	baseURL string
	region  string
	http    *providerutil.Client
	cache   providerutil.SearchCache
	ttl     time.Duration
}

func newClient(baseURL, region string, timeout time.Duration, rps float64, cache providerutil.SearchCache, ttl time.Duration) *client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if !validRegions[region] {
		region = defaultRegion
	}
	headers := map[string]string{
		"Accept":   "*/*",
		"Referer":  fmt.Sprintf("https://www.sportybet.com/%s/sport/football/", region),
		"clientid": "web",
		"platform": "web",
	}
	return &client{
		baseURL: baseURL,
		region:  region,
		http:    providerutil.New(timeout, rps, headers),
		cache:   cache,
		ttl:     ttl,
	}
}

// getShare fetches the booked ticket behind a share code. The body may be
// JSON or XML; shape handling lives in extract.go.
func (c *client) getShare(ctx context.Context, code string) ([]byte, error) {
	u := fmt.Sprintf("%s/api/%s/orders/share/%s", c.baseURL, c.region, url.PathEscape(code))
	return c.http.Get(ctx, u, nil)
}

// postShare books selections and returns the raw response body.
func (c *client) postShare(ctx context.Context, payload any) ([]byte, error) {
	u := fmt.Sprintf("%s/api/%s/orders/share", c.baseURL, c.region)
	return c.http.PostJSON(ctx, u, payload, map[string]string{
		"Origin": "https://www.sportybet.com",
	})
}

// search runs the free-text event search, cached per keyword.
func (c *client) search(ctx context.Context, keyword string) ([]byte, error) {
	u := fmt.Sprintf("%s/api/%s/factsCenter/event/firstSearch?keyword=%s&offset=0&pageSize=50&withOneUpMarket=true&withTwoUpMarket=true",
		c.baseURL, c.region, url.QueryEscape(keyword))
	key := "sportybet:" + c.region + ":search:" + keyword
	return providerutil.CachedGet(ctx, c.http, c.cache, key, u, map[string]string{
		"Accept":   "application/json, text/plain, */*",
		"clientid": "wap",
	}, c.ttl)
}
