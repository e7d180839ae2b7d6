package crawler

import (
	"fmt"
	"net/url"
	"strings"

	colly "github.com/gocolly/colly/v2"
)

// FetchSitemapURLs parses sitemap.xml and returns the page URLs it lists.
// Sub-sitemap entries (ending in .xml) and off-site URLs are dropped.
func FetchSitemapURLs(sitemapURL string) ([]string, error) {
	parsed, err := url.Parse(sitemapURL)
	if err != nil {
		return nil, fmt.Errorf("invalid sitemap URL: %w", err)
	}
	host := parsed.Hostname()
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid sitemap URL: %s", sitemapURL)
	}

	c := colly.NewCollector()
	c.UserAgent = browserUserAgent
	c.WithTransport(httpTransport)

	var urls []string
	var fetchErr error

	c.OnXML("//loc", func(e *colly.XMLElement) {
		loc := strings.TrimSpace(e.Text)
		if loc == "" || strings.HasSuffix(loc, ".xml") {
			return
		}
		locURL, err := url.Parse(loc)
		if err != nil || locURL.Hostname() != host {
			return
		}
		urls = append(urls, loc)
	})

	c.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	if err := c.Visit(sitemapURL); err != nil {
		return nil, fmt.Errorf("failed to fetch sitemap %s: %w", sitemapURL, err)
	}
	c.Wait()
	if fetchErr != nil {
		return nil, fmt.Errorf("failed to fetch sitemap %s: %w", sitemapURL, fetchErr)
	}
	return urls, nil
}

// NormalizeURL canonicalizes a URL for duplicate detection: fragment removed,
// trailing slash dropped except for the root path.
func NormalizeURL(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	parsed.Fragment = ""
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)

	path := parsed.Path
	if path != "" && path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	parsed.Path = path

	return parsed.String(), nil
}
