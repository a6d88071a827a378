package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/dgallion1/pagelens/internal/docview"
)

// RenderHTML loads url in a headless Chrome and returns the rendered markup.
// Requires Chrome or Chromium on the host.
func RenderHTML(ctx context.Context, url string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}
	return html, nil
}

// FromBrowser renders url headlessly and builds a document from the result.
func FromBrowser(ctx context.Context, url string, timeout time.Duration, readerMode bool) (*docview.HTMLDocument, error) {
	if err := ValidateURL(url); err != nil {
		return nil, err
	}
	src, err := RenderHTML(ctx, url, timeout)
	if err != nil {
		return nil, &FetchError{URL: url, Message: "render failed", Cause: err}
	}
	return FromHTML(src, url, readerMode)
}
