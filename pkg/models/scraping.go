package models

// SelectorType selects the expression language of a selector.
type SelectorType string

const (
	SelectorTypeCSS   SelectorType = "css"
	SelectorTypeXPath SelectorType = "xpath"
)

// TextAttribute is the reserved attribute name that yields normalized text.
const TextAttribute = "text"

// SelectorConfig identifies elements in a document and the attributes to
// extract from each match, in order.
type SelectorConfig struct {
	Selector     string       `json:"selector"              validate:"required"`
	SelectorType SelectorType `json:"selector_type"         validate:"required,oneof=css xpath"`
	Attributes   []string     `json:"attributes"            validate:"required,min=1,dive,required"`
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
}

// Default batch settings.
const (
	DefaultBatchSize = 1
	// DefaultRateLimit of zero means unbounded.
	DefaultRateLimit = 0
)

// BatchConfig governs how many URLs are scraped together and how fast
// requests may start.
type BatchConfig struct {
	BatchSize int `json:"batch_size,omitempty" validate:"gte=0"`
	RateLimit int `json:"rate_limit,omitempty" validate:"gte=0"`
}

// Size returns the batch size with the default applied.
func (c *BatchConfig) Size() int {
	if c == nil || c.BatchSize <= 0 {
		return DefaultBatchSize
	}

	return c.BatchSize
}

// RequestsPerSecond returns the rate limit with the default applied.
func (c *BatchConfig) RequestsPerSecond() int {
	if c == nil || c.RateLimit <= 0 {
		return DefaultRateLimit
	}

	return c.RateLimit
}

// URLFailure records why one URL of a batch produced no result.
type URLFailure struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// ScrapingResult is the outcome of scraping one or many URLs. When Success is
// false, Error is set and Results is empty.
type ScrapingResult struct {
	Success  bool         `json:"success"`
	Error    string       `json:"error,omitempty"`
	Results  [][]string   `json:"results"`
	Failures []URLFailure `json:"failures,omitempty"`
}

// NewScrapingSuccess builds a successful result.
func NewScrapingSuccess(rows [][]string) ScrapingResult {
	if rows == nil {
		rows = [][]string{}
	}

	return ScrapingResult{Success: true, Results: rows}
}

// NewScrapingFailure builds a failed result.
func NewScrapingFailure(message string) ScrapingResult {
	if message == "" {
		message = "scraping failed"
	}

	return ScrapingResult{Success: false, Error: message, Results: [][]string{}}
}
