package scraper

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const catalogHTML = `<html><body>
<ul id="products">
  <li class="product"><a href="/p/1">  Blue
      Widget </a><span class="price">9.99</span></li>
  <li class="product"><a href="/p/2">Red Widget</a><span class="price">19.50</span></li>
  <li class="product featured"><a>Green Widget</a></li>
</ul>
<p class="footer">Catalog footer</p>
</body></html>`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustParse(html string) *Document {
	doc, err := ParseDocument("https://example.test", strings.NewReader(html))
	if err != nil {
		panic(err)
	}

	return doc
}

// stubFetcher serves canned documents keyed by URL.
type stubFetcher struct {
	mu      sync.Mutex
	pages   map[string]string
	delays  map[string]time.Duration
	errs    map[string]error
	onFetch func(url string)
	starts  []time.Time
	calls   []string
}

func (f *stubFetcher) Fetch(ctx context.Context, url string) (*Document, error) {
	f.mu.Lock()
	f.starts = append(f.starts, time.Now())
	f.calls = append(f.calls, url)
	delay := f.delays[url]
	err := f.errs[url]
	page, ok := f.pages[url]
	hook := f.onFetch
	f.mu.Unlock()

	if hook != nil {
		hook(url)
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, &FetchError{URL: url, Err: ctx.Err()}
		}
	}

	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, &FetchError{URL: url, StatusCode: 404}
	}

	return ParseDocument(url, strings.NewReader(page))
}

func (f *stubFetcher) startTimes() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]time.Time(nil), f.starts...)
}

func (f *stubFetcher) fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.calls...)
}
