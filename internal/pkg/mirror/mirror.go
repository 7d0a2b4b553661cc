// Package mirror resolves a bookmaker's current base URL from a mirror
// link. Providers that block scraping-pattern traffic rotate domains; the
// published mirror link either HTTP-redirects to the live domain or lands on
// a page that hops there via JavaScript, in which case a headless browser
// follows it.
package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

const resolveUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Resolver caches the resolved URL per mirror link for the TTL.
type Resolver struct {
	timeout time.Duration
	ttl     time.Duration

	mu       sync.Mutex
	resolved map[string]resolvedEntry
}

type resolvedEntry struct {
	url string
	at  time.Time
}

func NewResolver(timeout, ttl time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Resolver{timeout: timeout, ttl: ttl, resolved: make(map[string]resolvedEntry)}
}

// Resolve returns the live base URL behind mirrorURL, cached for the TTL.
func (r *Resolver) Resolve(ctx context.Context, mirrorURL string) (string, error) {
	r.mu.Lock()
	if e, ok := r.resolved[mirrorURL]; ok && time.Since(e.at) < r.ttl {
		r.mu.Unlock()
		return e.url, nil
	}
	r.mu.Unlock()

	resolved, err := r.resolveHTTP(ctx, mirrorURL)
	if err != nil {
		slog.Debug("Mirror: HTTP resolution failed, trying headless browser", "mirror", mirrorURL, "error", err)
		resolved, err = r.resolveJS(ctx, mirrorURL)
		if err != nil {
			return "", err
		}
	}

	resolved = strings.TrimSuffix(resolved, "/")
	r.mu.Lock()
	r.resolved[mirrorURL] = resolvedEntry{url: resolved, at: time.Now()}
	r.mu.Unlock()
	slog.Info("Mirror: resolved", "mirror", mirrorURL, "base_url", resolved)
	return resolved, nil
}

// resolveHTTP follows plain HTTP redirects from the mirror link.
func (r *Resolver) resolveHTTP(ctx context.Context, mirrorURL string) (string, error) {
	client := &http.Client{Timeout: r.timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, mirrorURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", resolveUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("head mirror: %w", err)
	}
	resp.Body.Close()

	final := resp.Request.URL
	if final.String() == mirrorURL {
		return "", fmt.Errorf("mirror did not redirect")
	}
	return final.Scheme + "://" + final.Host, nil
}

// resolveJS loads the mirror page in a headless browser and reads the URL
// it lands on after client-side redirects.
func (r *Resolver) resolveJS(ctx context.Context, mirrorURL string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent(resolveUserAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, r.timeout)
	defer cancelTimeout()

	var location string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(mirrorURL),
		chromedp.Sleep(2*time.Second),
		chromedp.Location(&location),
	)
	if err != nil {
		return "", fmt.Errorf("headless resolve: %w", err)
	}
	if location == "" || location == mirrorURL {
		return "", fmt.Errorf("mirror page did not move")
	}

	if i := strings.Index(location, "://"); i >= 0 {
		if j := strings.IndexByte(location[i+3:], '/'); j >= 0 {
			location = location[:i+3+j]
		}
	}
	return location, nil
}
