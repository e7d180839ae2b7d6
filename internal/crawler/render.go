package crawler

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

// RenderHTML loads a page in headless Chrome and returns the rendered DOM.
// Used for documentation sites that build their content client-side.
func RenderHTML(ctx context.Context, pageURL string) (string, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx,
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent(browserUserAgent),
	)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	if err := chromedp.Run(browserCtx, chromedp.Navigate(pageURL)); err != nil {
		return "", err
	}

	// Ready check is best-effort; some pages never settle
	stepCtx, cancelStep := context.WithTimeout(browserCtx, 10*time.Second)
	defer cancelStep()
	_ = chromedp.Run(stepCtx, chromedp.WaitReady("body", chromedp.ByQuery))

	var html string
	if err := chromedp.Run(browserCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}
