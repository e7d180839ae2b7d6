package crawler

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	colly "github.com/gocolly/colly/v2"

	"docs-rag-service/internal/logger"
)

// DiscoverConfig controls link-follow URL discovery for sites without a
// sitemap.
type DiscoverConfig struct {
	StartURL string
	MaxPages int
	Timeout  time.Duration
}

// DiscoverURLs crawls same-domain links starting from StartURL and returns
// the normalized URLs found, in discovery order. It is the fallback when a
// site publishes no sitemap; ingestion treats its output exactly like a
// sitemap URL list.
func DiscoverURLs(cfg DiscoverConfig) ([]string, error) {
	parsed, err := url.Parse(cfg.StartURL)
	if err != nil {
		return nil, fmt.Errorf("invalid start URL: %w", err)
	}
	if parsed.Scheme == "" {
		parsed.Scheme = "https"
		cfg.StartURL = parsed.String()
	}

	hostname := strings.ToLower(parsed.Hostname())
	bare := strings.TrimPrefix(hostname, "www.")
	allowedDomains := []string{bare, "www." + bare}

	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 50
	}

	c := colly.NewCollector(
		colly.Async(true),
		colly.MaxDepth(3),
		colly.AllowedDomains(allowedDomains...),
	)
	c.WithTransport(httpTransport)
	c.UserAgent = browserUserAgent
	if cfg.Timeout > 0 {
		c.SetRequestTimeout(cfg.Timeout)
	} else {
		c.SetRequestTimeout(60 * time.Second)
	}
	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       500 * time.Millisecond,
	})

	var (
		mu   sync.Mutex
		urls []string
	)
	seen := sync.Map{}

	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		link := e.Request.AbsoluteURL(e.Attr("href"))
		if link == "" {
			return
		}
		normalized, err := NormalizeURL(link)
		if err != nil {
			return
		}
		if _, exists := seen.LoadOrStore(normalized, true); exists {
			return
		}
		mu.Lock()
		under := len(urls) < maxPages
		if under {
			urls = append(urls, normalized)
		}
		mu.Unlock()
		if under {
			_ = e.Request.Visit(link)
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.Warn("Discovery request failed", "url", r.Request.URL.String(), "error", err)
	})

	start, err := NormalizeURL(cfg.StartURL)
	if err != nil {
		return nil, err
	}
	seen.Store(start, true)
	urls = append(urls, start)

	if err := c.Visit(cfg.StartURL); err != nil {
		return nil, fmt.Errorf("failed to start discovery at %s: %w", cfg.StartURL, err)
	}
	c.Wait()

	logger.Info("URL discovery complete", "start_url", cfg.StartURL, "urls_found", len(urls))
	return urls, nil
}
