// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/scrapeflow/pkg/nodes/aicompletion"
	"github.com/dukex/scrapeflow/pkg/nodes/email"
	"github.com/dukex/scrapeflow/pkg/registry"
	"github.com/dukex/scrapeflow/pkg/scraper"
	"go.opentelemetry.io/otel/trace"
)

// Capabilities configures the collaborators the built-in nodes call.
type Capabilities struct {
	Fetcher       string
	FetchTimeout  time.Duration
	FetchCacheTTL time.Duration

	CompletionURL     string
	CompletionAPIKey  string
	CompletionTimeout time.Duration

	SMTPAddr     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string
}

// NewFetcher creates the document fetcher of kind (http or browser), cached
// when cacheTTL is positive.
// nolint:ireturn // the concrete fetcher depends on kind
func NewFetcher(kind string, timeout, cacheTTL time.Duration) (scraper.Fetcher, error) {
	var fetcher scraper.Fetcher

	switch kind {
	case "", "http":
		fetcher = scraper.NewHTTPFetcher(timeout)
	case "browser":
		fetcher = scraper.NewBrowserFetcher(timeout)
	default:
		return nil, fmt.Errorf("unsupported fetcher: %s", kind)
	}

	if cacheTTL > 0 {
		fetcher = scraper.NewCachingFetcher(fetcher, cacheTTL)
	}

	return fetcher, nil
}

// NewScraper builds the batch scheduler over the configured fetcher.
func NewScraper(logger *slog.Logger, tracer trace.Tracer, caps Capabilities) (*scraper.Scheduler, error) {
	fetcher, err := NewFetcher(caps.Fetcher, caps.FetchTimeout, caps.FetchCacheTTL)
	if err != nil {
		return nil, err
	}

	worker := scraper.NewWorker(fetcher, logger)

	var opts []scraper.SchedulerOption
	if tracer != nil {
		opts = append(opts, scraper.WithTracer(tracer))
	}

	return scraper.NewScheduler(worker, logger, opts...), nil
}

// NewRegistry registers the built-in nodes. AI completion and email action
// nodes are only available when their endpoint is configured.
func NewRegistry(logger *slog.Logger, batch *scraper.Scheduler, caps Capabilities) *registry.Registry {
	deps := registry.Dependencies{Scraper: batch}

	if caps.CompletionURL != "" {
		deps.Completer = aicompletion.NewHTTPCompleter(caps.CompletionURL, caps.CompletionAPIKey, caps.CompletionTimeout)
	} else {
		logger.Warn("No completion endpoint configured, AICompletion nodes are disabled")
	}

	if caps.SMTPAddr != "" {
		deps.Mailer = email.NewSMTPMailer(caps.SMTPAddr, caps.SMTPFrom, caps.SMTPUsername, caps.SMTPPassword)
	} else {
		logger.Warn("No SMTP server configured, EmailAction nodes are disabled")
	}

	reg := registry.NewRegistry(logger)
	reg.RegisterDefaultNodes(deps)

	return reg
}
