package scraper

import (
	"context"
	"fmt"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultFetchTimeout bounds a single document fetch.
const DefaultFetchTimeout = 30 * time.Second

const defaultUserAgent = "scrapeflow/1.0"

// Fetcher retrieves and parses the document at a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Document, error)
}

// HTTPFetcher fetches documents over HTTP with a per-request timeout.
type HTTPFetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// HTTPFetcherOption configures an HTTPFetcher.
type HTTPFetcherOption func(*HTTPFetcher)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.client = client
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(userAgent string) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		f.userAgent = userAgent
	}
}

// NewHTTPFetcher creates a fetcher whose requests time out after timeout.
func NewHTTPFetcher(timeout time.Duration, opts ...HTTPFetcherOption) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}

	fetcher := &HTTPFetcher{
		client:    &http.Client{},
		timeout:   timeout,
		userAgent: defaultUserAgent,
	}

	for _, opt := range opts {
		opt(fetcher)
	}

	return fetcher
}

// Fetch performs a GET request and parses the body as HTML.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("status %s", resp.Status)}
	}

	return ParseDocument(url, resp.Body)
}

// CachingFetcher serves recently fetched documents from memory.
type CachingFetcher struct {
	next  Fetcher
	cache *gocache.Cache
}

// NewCachingFetcher wraps next with a cache whose entries expire after ttl.
func NewCachingFetcher(next Fetcher, ttl time.Duration) *CachingFetcher {
	return &CachingFetcher{
		next:  next,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// Fetch returns the cached document for url or fetches and caches it.
func (f *CachingFetcher) Fetch(ctx context.Context, url string) (*Document, error) {
	if cached, ok := f.cache.Get(url); ok {
		if doc, ok := cached.(*Document); ok {
			return doc, nil
		}
	}

	doc, err := f.next.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	f.cache.SetDefault(url, doc)

	return doc, nil
}
