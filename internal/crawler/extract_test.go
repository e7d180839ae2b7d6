package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docs-rag-service/internal/retry"
)

func testExtractor() *Extractor {
	return NewExtractor(retry.New(1, time.Millisecond, 2.0, false, 5*time.Millisecond), false)
}

func serveHTML(t *testing.T, html string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(html))
	}))
}

func TestExtractor_Extract(t *testing.T) {
	t.Run("Should extract the article content and drop navigation chrome", func(t *testing.T) {
		server := serveHTML(t, `<html><head><title>Install Guide</title></head><body>
			<nav>Home Docs About</nav>
			<div class="theme-doc-sidebar">Sidebar links</div>
			<article>Install   the CLI
			with npm.</article>
			<footer>Copyright</footer>
		</body></html>`)
		defer server.Close()

		doc, err := testExtractor().Extract(context.Background(), server.URL)

		require.NoError(t, err)
		assert.Equal(t, server.URL, doc.URL)
		assert.Equal(t, "Install Guide", doc.Title)
		assert.Equal(t, "Install the CLI with npm.", doc.Text)
	})

	t.Run("Should fall back to body when no content selector matches", func(t *testing.T) {
		server := serveHTML(t, `<html><head><title>Plain</title></head><body>
			<div>Just a plain page.</div>
		</body></html>`)
		defer server.Close()

		doc, err := testExtractor().Extract(context.Background(), server.URL)

		require.NoError(t, err)
		assert.Equal(t, "Just a plain page.", doc.Text)
	})

	t.Run("Should fall back to h1 then a placeholder title", func(t *testing.T) {
		server := serveHTML(t, `<html><body><article><h1>Heading Title</h1>Content.</article></body></html>`)
		defer server.Close()

		doc, err := testExtractor().Extract(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, "Heading Title", doc.Title)

		empty := serveHTML(t, `<html><body><article>Content only.</article></body></html>`)
		defer empty.Close()

		doc, err = testExtractor().Extract(context.Background(), empty.URL)
		require.NoError(t, err)
		assert.Equal(t, "No title found", doc.Title)
	})

	t.Run("Should strip elements whose class names mark navigation", func(t *testing.T) {
		server := serveHTML(t, `<html><body><main>
			<div class="docSidebar">Skip me</div>
			<div class="navbar-inner">Skip me too</div>
			<div class="dropdown-menu">And me</div>
			<p>Keep this paragraph.</p>
		</main></body></html>`)
		defer server.Close()

		doc, err := testExtractor().Extract(context.Background(), server.URL)

		require.NoError(t, err)
		assert.Equal(t, "Keep this paragraph.", doc.Text)
	})

	t.Run("Should fail on HTTP error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, err := testExtractor().Extract(context.Background(), server.URL)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 404")
	})

	t.Run("Should retry transient fetch failures", func(t *testing.T) {
		var calls int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<html><head><title>Recovered</title></head><body><article>Back up.</article></body></html>`))
		}))
		defer server.Close()

		doc, err := testExtractor().Extract(context.Background(), server.URL)

		require.NoError(t, err)
		assert.Equal(t, 2, calls)
		assert.Equal(t, "Back up.", doc.Text)
	})
}

func TestTitleFromURL(t *testing.T) {
	t.Run("Should use the last path segment", func(t *testing.T) {
		assert.Equal(t, "manual.pdf", titleFromURL("https://docs.example.com/files/manual.pdf"))
		assert.Equal(t, "guide", titleFromURL("https://docs.example.com/guide/"))
	})
}

func TestNormalizeWhitespace(t *testing.T) {
	t.Run("Should collapse runs of whitespace to single spaces", func(t *testing.T) {
		assert.Equal(t, "a b c", normalizeWhitespace("  a\n\n b\t\tc  "))
	})
}
