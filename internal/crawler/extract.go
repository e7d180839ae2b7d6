package crawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"

	"docs-rag-service/internal/retry"
	"docs-rag-service/models"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

var (
	// Go's transport handles gzip; brotli is decoded manually below
	httpTransport = &http.Transport{
		DisableCompression: false,
	}

	whitespacePattern = regexp.MustCompile(`\s+`)
)

// contentSelectors are tried in order; Docusaurus-specific ones first.
var contentSelectors = []string{"article", "main", ".main-wrapper", ".theme-doc-markdown", ".markdown"}

// Extractor fetches a page and produces a clean Document. Fetches are
// retried; callers treat a document that still fails as skippable.
type Extractor struct {
	httpClient *http.Client
	policy     *retry.Policy
	renderJS   bool
}

func NewExtractor(policy *retry.Policy, renderJS bool) *Extractor {
	if policy == nil {
		policy = retry.Default()
	}
	return &Extractor{
		httpClient: &http.Client{
			Timeout:   60 * time.Second,
			Transport: httpTransport,
		},
		policy:   policy,
		renderJS: renderJS,
	}
}

// Extract fetches pageURL and returns its cleaned text content. PDF responses
// go through the PDF extractor; HTML is stripped of navigation chrome.
func (e *Extractor) Extract(ctx context.Context, pageURL string) (models.Document, error) {
	body, contentType, err := retryFetch(ctx, e, pageURL)
	if err != nil {
		return models.Document{}, err
	}

	if strings.Contains(contentType, "application/pdf") {
		text, err := ExtractPDFText(body)
		if err != nil {
			return models.Document{}, fmt.Errorf("failed to extract PDF %s: %w", pageURL, err)
		}
		return models.Document{
			URL:   pageURL,
			Title: titleFromURL(pageURL),
			Text:  normalizeWhitespace(text),
		}, nil
	}

	html := string(body)
	if e.renderJS {
		if rendered, renderErr := RenderHTML(ctx, pageURL); renderErr == nil {
			html = rendered
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}

	// Remove navigation, footer and other non-content elements
	doc.Find("nav, footer, aside, header, script, style").Remove()
	doc.Find("[class]").Each(func(_ int, s *goquery.Selection) {
		class, _ := s.Attr("class")
		lower := strings.ToLower(class)
		if strings.Contains(lower, "sidebar") || strings.Contains(lower, "navbar") || strings.Contains(lower, "menu") {
			s.Remove()
		}
	})

	var content *goquery.Selection
	for _, selector := range contentSelectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			content = sel
			break
		}
	}
	if content == nil {
		content = doc.Find("body").First()
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title == "" {
		title = "No title found"
	}

	text := ""
	if content.Length() > 0 {
		text = normalizeWhitespace(content.Text())
	}

	return models.Document{URL: pageURL, Title: title, Text: text}, nil
}

func retryFetch(ctx context.Context, e *Extractor, pageURL string) ([]byte, string, error) {
	type fetched struct {
		body        []byte
		contentType string
	}
	result, err := retry.DoValue(ctx, e.policy, "crawler.fetch", func() (fetched, error) {
		body, contentType, err := e.fetchOnce(ctx, pageURL)
		return fetched{body, contentType}, err
	})
	return result.body, result.contentType, err
}

func (e *Extractor) fetchOnce(ctx context.Context, pageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request for %s: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, br")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, "", fmt.Errorf("fetch %s returned status %d", pageURL, resp.StatusCode)
	}

	var reader io.Reader = resp.Body
	if strings.Contains(resp.Header.Get("Content-Encoding"), "br") {
		reader = brotli.NewReader(resp.Body)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", pageURL, err)
	}

	contentType := resp.Header.Get("Content-Type")

	// Decode charset to UTF-8 for HTML; leave binary content untouched
	if !strings.Contains(contentType, "application/pdf") && len(body) > 0 {
		if utf8Reader, err := charset.NewReader(bytes.NewReader(body), contentType); err == nil {
			if decoded, readErr := io.ReadAll(utf8Reader); readErr == nil && len(decoded) > 0 {
				body = decoded
			}
		}
	}

	return body, contentType, nil
}

func normalizeWhitespace(text string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

func titleFromURL(pageURL string) string {
	trimmed := strings.TrimSuffix(pageURL, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 && idx < len(trimmed)-1 {
		return trimmed[idx+1:]
	}
	return trimmed
}
