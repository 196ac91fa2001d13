package scraper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/scrapeflow/pkg/models"
	"github.com/dukex/scrapeflow/pkg/template"
)

// Worker scrapes a single URL. Every failure is reported inside the returned
// ScrapingResult; nothing escapes the worker.
type Worker struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// NewWorker creates a worker fetching documents through fetcher.
func NewWorker(fetcher Fetcher, logger *slog.Logger) *Worker {
	return &Worker{
		fetcher: fetcher,
		logger:  logger.With("module", "scrape_worker"),
	}
}

// Scrape fetches url and extracts one row per match of each selector, in
// selector declaration order then document order.
func (w *Worker) Scrape(ctx context.Context, url string, selectors []models.SelectorConfig) models.ScrapingResult {
	return w.ScrapeWithTemplate(ctx, url, selectors, "")
}

// ScrapeWithTemplate is Scrape with each row rendered through tmpl, using the
// URL and the matched attributes as context. An empty tmpl keeps raw rows.
func (w *Worker) ScrapeWithTemplate(ctx context.Context, url string, selectors []models.SelectorConfig, tmpl string) models.ScrapingResult {
	rows, err := w.rows(ctx, url, selectors, tmpl)
	if err != nil {
		return models.NewScrapingFailure(err.Error())
	}

	return models.NewScrapingSuccess(rows)
}

func (w *Worker) rows(ctx context.Context, url string, selectors []models.SelectorConfig, tmpl string) (rows [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.ErrorContext(ctx, "Recovered from panic while scraping", "url", url, "panic", r)
			rows, err = nil, fmt.Errorf("scrape %s: %v", url, r)
		}
	}()

	doc, err := w.fetcher.Fetch(ctx, url)
	if err != nil {
		w.logger.WarnContext(ctx, "Failed to fetch document", "url", url, "error", err)

		return nil, err
	}

	rows = make([][]string, 0)

	for _, selector := range selectors {
		matches, err := Evaluate(doc, selector)
		if err != nil {
			w.logger.WarnContext(ctx, "Selector evaluation failed, treating as no match",
				"url", url, "selector", selector.Selector, "error", err)

			continue
		}

		for _, match := range matches {
			rows = append(rows, renderRow(url, selector, match, tmpl))
		}
	}

	w.logger.DebugContext(ctx, "Scraped document", "url", url, "rows", len(rows))

	return rows, nil
}

func renderRow(url string, selector models.SelectorConfig, match Match, tmpl string) []string {
	if tmpl == "" {
		return match.Row(selector.Attributes)
	}

	context := make(map[string]string, len(match)+1)
	for attr, value := range match {
		context[attr] = value
	}

	context["url"] = url

	return []string{template.Render(tmpl, context)}
}
