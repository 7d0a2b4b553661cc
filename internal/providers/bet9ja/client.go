package bet9ja

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"betbridge/internal/providers/providerutil"
)

const (
	defaultCouponBaseURL = "https://coupon.bet9ja.com"
	defaultAPIBaseURL    = "https://apigw.bet9ja.com"
	defaultCacheVersion  = "1.301.2.219"
	sportsOrigin         = "https://sports.bet9ja.com"
)

type client struct {
	couponBase   string
	apiBase      string
	cacheVersion string
	http         *providerutil.Client
	cache        providerutil.SearchCache
	ttl          time.Duration
}

func newClient(couponBase, apiBase, cacheVersion string, timeout time.Duration, rps float64, cache providerutil.SearchCache, ttl time.Duration) *client {
	if couponBase == "" {
		couponBase = defaultCouponBaseURL
	}
	if apiBase == "" {
		apiBase = defaultAPIBaseURL
	}
	if cacheVersion == "" {
		cacheVersion = defaultCacheVersion
	}
	headers := map[string]string{
		"Referer": sportsOrigin + "/",
		"Origin":  sportsOrigin,
	}
	return &client{
		couponBase:   couponBase,
		apiBase:      apiBase,
		cacheVersion: cacheVersion,
		http:         providerutil.New(timeout, rps, headers),
		cache:        cache,
		ttl:          ttl,
	}
}

func (c *client) getCoupon(ctx context.Context, code string) ([]byte, error) {
	u := fmt.Sprintf("%s/desktop/feapi/CouponAjax/GetBookABetCoupon?couponCode=%s&v_cache_version=%s",
		c.couponBase, url.QueryEscape(code), c.cacheVersion)
	return c.http.Get(ctx, u, nil)
}

func (c *client) book(ctx context.Context, betslip string) ([]byte, error) {
	u := fmt.Sprintf("%s/sportsbook/placebet/BookABetV2?source=desktop&v_cache_version=%s",
		c.apiBase, c.cacheVersion)
	form := url.Values{}
	form.Set("BETSLIP", betslip)
	form.Set("IS_PASSBET", "0")
	return c.http.PostForm(ctx, u, form, nil)
}

func (c *client) search(ctx context.Context, query string) ([]byte, error) {
	u := fmt.Sprintf("%s/desktop/feapi/PalimpsestAjax/Search?search=%s&v_cache_version=%s",
		c.couponBase, url.QueryEscape(query), c.cacheVersion)
	key := "bet9ja:search:" + query
	return providerutil.CachedGet(ctx, c.http, c.cache, key, u, nil, c.ttl)
}
