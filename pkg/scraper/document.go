// Package scraper fetches documents, evaluates selectors against them and
// schedules multi-URL scrapes under concurrency and rate limits.
package scraper

import (
	"io"

	"golang.org/x/net/html"
)

// Document is a parsed HTML document. It is read-only once parsed and safe to
// share between goroutines.
type Document struct {
	URL  string
	root *html.Node
}

// ParseDocument parses an HTML body fetched from url.
func ParseDocument(url string, body io.Reader) (*Document, error) {
	root, err := html.Parse(body)
	if err != nil {
		return nil, &ParseError{URL: url, Err: err}
	}

	return &Document{URL: url, root: root}, nil
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}
