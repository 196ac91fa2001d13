package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/scrapeflow/pkg/models"
	"github.com/dukex/scrapeflow/pkg/otelhelper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// ErrNoURLs is reported when a batch has nothing to scrape.
var ErrNoURLs = errors.New("no URLs to scrape")

// BatchRequest describes one multi-URL scrape.
type BatchRequest struct {
	URLs      []string
	Selectors []models.SelectorConfig
	Batch     *models.BatchConfig
	Template  string
	// Limiter owns the rate-limit state of this run. When nil, one is built
	// from Batch.RateLimit and discarded after the run.
	Limiter Limiter
}

// Scheduler drives a Worker across many URLs. URLs are split into chunks of
// Batch.BatchSize; chunks run one after another and the URLs of a chunk run
// concurrently.
type Scheduler struct {
	worker *Worker
	logger *slog.Logger
	tracer trace.Tracer
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithTracer sets the tracer used for batch spans.
func WithTracer(tracer trace.Tracer) SchedulerOption {
	return func(s *Scheduler) {
		s.tracer = tracer
	}
}

// NewScheduler creates a scheduler around worker.
func NewScheduler(worker *Worker, logger *slog.Logger, opts ...SchedulerOption) *Scheduler {
	scheduler := &Scheduler{
		worker: worker,
		logger: logger.With("module", "batch_scheduler"),
		tracer: otel.Tracer("scrapeflow/scraper"),
	}

	for _, opt := range opts {
		opt(scheduler)
	}

	return scheduler
}

// ScrapeURL scrapes a single URL with several selectors.
func (s *Scheduler) ScrapeURL(ctx context.Context, url string, selectors []models.SelectorConfig, tmpl string) models.ScrapingResult {
	return s.worker.ScrapeWithTemplate(ctx, url, selectors, tmpl)
}

// ScrapeMany scrapes urls with one selector.
func (s *Scheduler) ScrapeMany(ctx context.Context, urls []string, selector models.SelectorConfig, batch *models.BatchConfig, tmpl string) models.ScrapingResult {
	return s.Run(ctx, BatchRequest{
		URLs:      urls,
		Selectors: []models.SelectorConfig{selector},
		Batch:     batch,
		Template:  tmpl,
	})
}

type urlOutcome struct {
	scheduled bool
	rows      [][]string
	err       error
}

// Run executes req. Rows are aggregated in URL submission order regardless of
// completion order. Once ctx is cancelled no further chunk is scheduled,
// in-flight requests observe the cancellation and the URLs scraped so far
// are returned.
func (s *Scheduler) Run(ctx context.Context, req BatchRequest) models.ScrapingResult {
	if len(req.URLs) == 0 {
		return models.NewScrapingFailure(ErrNoURLs.Error())
	}

	size := req.Batch.Size()

	limiter := req.Limiter
	if limiter == nil {
		limiter = NewLimiter(req.Batch.RequestsPerSecond())
	}

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "scraper.batch",
		attribute.Int(otelhelper.URLCountKey, len(req.URLs)),
		attribute.Int(otelhelper.BatchSizeKey, size),
		attribute.Int(otelhelper.RateLimitKey, req.Batch.RequestsPerSecond()),
	)
	defer span.End()

	logger := s.logger.With("urls", len(req.URLs), "batch_size", size)
	logger.InfoContext(ctx, "Starting batch scrape")

	// Each goroutine writes only its own slot; slots are read after Wait.
	outcomes := make([]urlOutcome, len(req.URLs))

	for start := 0; start < len(req.URLs); start += size {
		if ctx.Err() != nil {
			logger.WarnContext(ctx, "Batch cancelled, not scheduling remaining chunks", "next_index", start)

			break
		}

		end := min(start+size, len(req.URLs))

		group, groupCtx := errgroup.WithContext(ctx)

		for i := start; i < end; i++ {
			outcomes[i].scheduled = true

			group.Go(func() error {
				outcomes[i].rows, outcomes[i].err = s.scrapeOne(groupCtx, limiter, req.URLs[i], req.Selectors, req.Template)

				return nil
			})
		}

		_ = group.Wait()
	}

	result := aggregate(req.URLs, outcomes)
	if !result.Success {
		otelhelper.SetError(span, errors.New(result.Error))
	}

	logger.InfoContext(ctx, "Completed batch scrape",
		"success", result.Success, "rows", len(result.Results), "failures", len(result.Failures))

	return result
}

func (s *Scheduler) scrapeOne(ctx context.Context, limiter Limiter, url string, selectors []models.SelectorConfig, tmpl string) ([][]string, error) {
	err := limiter.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBatchCancelled, err)
	}

	return s.worker.rows(ctx, url, selectors, tmpl)
}

func aggregate(urls []string, outcomes []urlOutcome) models.ScrapingResult {
	var (
		rows      = make([][]string, 0)
		failures  []models.URLFailure
		succeeded int
	)

	for i, outcome := range outcomes {
		switch {
		case !outcome.scheduled:
			failures = append(failures, models.URLFailure{URL: urls[i], Error: ErrBatchCancelled.Error()})
		case outcome.err != nil:
			failures = append(failures, models.URLFailure{URL: urls[i], Error: outcome.err.Error()})
		default:
			succeeded++
			rows = append(rows, outcome.rows...)
		}
	}

	if succeeded == 0 {
		result := models.NewScrapingFailure(summarize(failures))
		result.Failures = failures

		return result
	}

	result := models.NewScrapingSuccess(rows)
	result.Failures = failures

	return result
}

func summarize(failures []models.URLFailure) string {
	parts := make([]string, 0, len(failures))
	for _, failure := range failures {
		parts = append(parts, failure.URL+": "+failure.Error)
	}

	return strings.Join(parts, "; ")
}
