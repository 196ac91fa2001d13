package scraper

import (
	"errors"
	"fmt"

	"github.com/dukex/scrapeflow/pkg/models"
)

var (
	// ErrBatchCancelled marks URLs that were never scheduled because the batch
	// context was cancelled.
	ErrBatchCancelled = errors.New("batch cancelled")

	// ErrUnsupportedSelectorType is wrapped by SelectorError for unknown types.
	ErrUnsupportedSelectorType = errors.New("unsupported selector type")
)

// FetchError reports a network failure, timeout or non-2xx response.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}

	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError reports a document that could not be parsed.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// SelectorError reports a syntactically invalid selector expression.
type SelectorError struct {
	Selector string
	Type     models.SelectorType
	Err      error
}

func (e *SelectorError) Error() string {
	return fmt.Sprintf("invalid %s selector %q: %v", e.Type, e.Selector, e.Err)
}

func (e *SelectorError) Unwrap() error {
	return e.Err
}

// IsSelectorError reports whether err is or wraps a SelectorError.
func IsSelectorError(err error) bool {
	var selectorErr *SelectorError

	return errors.As(err, &selectorErr)
}
