package scraper

import (
	"context"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserFetcher renders pages in headless Chrome before parsing them, for
// documents built by client-side scripts.
type BrowserFetcher struct {
	timeout     time.Duration
	allocatorFn func(context.Context) (context.Context, context.CancelFunc)
}

// NewBrowserFetcher creates a fetcher backed by a locally installed Chrome.
func NewBrowserFetcher(timeout time.Duration) *BrowserFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}

	return &BrowserFetcher{
		timeout: timeout,
		allocatorFn: func(ctx context.Context) (context.Context, context.CancelFunc) {
			return chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
		},
	}
}

// Fetch navigates to url, waits for the body and parses the rendered HTML.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	allocCtx, allocCancel := f.allocatorFn(ctx)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var rendered string

	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &rendered, chromedp.ByQuery),
	)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	return ParseDocument(url, strings.NewReader(rendered))
}
