package services

import (
	"context"
	"log/slog"

	"github.com/dukex/scrapeflow/pkg/models"
	"github.com/go-playground/validator/v10"
)

// Scraper is the scraping capability behind the Scraping service.
type Scraper interface {
	ScrapeURL(ctx context.Context, url string, selectors []models.SelectorConfig, tmpl string) models.ScrapingResult
	ScrapeMany(ctx context.Context, urls []string, selector models.SelectorConfig, batch *models.BatchConfig, tmpl string) models.ScrapingResult
}

// ScrapeURLRequest scrapes one URL with one or more selectors.
type ScrapeURLRequest struct {
	URL       string                  `json:"url"                validate:"required,url"`
	Selectors []models.SelectorConfig `json:"selectors"          validate:"required,min=1,dive"`
	Template  string                  `json:"template,omitempty"`
}

// ScrapeManyRequest scrapes several URLs with one selector.
type ScrapeManyRequest struct {
	URLs     []string              `json:"urls"               validate:"required,min=1,dive,required,url"`
	Selector models.SelectorConfig `json:"selector"           validate:"required"`
	Batch    *models.BatchConfig   `json:"batch,omitempty"`
	Template string                `json:"template,omitempty"`
}

type Scraping struct {
	scraper  Scraper
	validate *validator.Validate
	logger   *slog.Logger
}

func NewScraping(scraper Scraper, logger *slog.Logger) *Scraping {
	return &Scraping{
		scraper:  scraper,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With("module", "scraping_service"),
	}
}

// ScrapeURL validates req and scrapes its URL. Fetch, parse and selector
// failures are reported in the returned ScrapingResult; the error is set
// only for invalid requests.
func (s *Scraping) ScrapeURL(ctx context.Context, req ScrapeURLRequest) (models.ScrapingResult, error) {
	err := s.validate.Struct(req)
	if err != nil {
		return models.ScrapingResult{}, NewValidationError("scrape_url", err.Error())
	}

	result := s.scraper.ScrapeURL(ctx, req.URL, req.Selectors, req.Template)

	s.logger.DebugContext(ctx, "Scraped URL", "url", req.URL, "success", result.Success, "rows", len(result.Results))

	return result, nil
}

// ScrapeMultipleURLs validates req and scrapes its URLs in batches.
func (s *Scraping) ScrapeMultipleURLs(ctx context.Context, req ScrapeManyRequest) (models.ScrapingResult, error) {
	err := s.validate.Struct(req)
	if err != nil {
		return models.ScrapingResult{}, NewValidationError("scrape_multiple_urls", err.Error())
	}

	result := s.scraper.ScrapeMany(ctx, req.URLs, req.Selector, req.Batch, req.Template)

	s.logger.DebugContext(ctx, "Scraped URLs",
		"urls", len(req.URLs), "success", result.Success, "rows", len(result.Results), "failures", len(result.Failures))

	return result, nil
}
