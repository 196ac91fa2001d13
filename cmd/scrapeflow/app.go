package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/scrapeflow/pkg/cmd"
	"github.com/dukex/scrapeflow/pkg/eventbus"
	"github.com/dukex/scrapeflow/pkg/otelhelper"
	"github.com/dukex/scrapeflow/pkg/persistence"
	"github.com/dukex/scrapeflow/pkg/registry"
	"github.com/dukex/scrapeflow/pkg/scraper"
	"github.com/dukex/scrapeflow/pkg/services"
	"github.com/dukex/scrapeflow/pkg/workflow"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

// app holds the collaborators shared by the commands.
type app struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	scraper     *scraper.Scheduler
	registry    *registry.Registry
	engine      *workflow.Engine

	shutdownTracer func(context.Context) error
}

func newApp(ctx context.Context, command *cli.Command, logger *slog.Logger) (*app, error) {
	a := &app{logger: logger}

	var tracer trace.Tracer

	if command.Bool("otel-enabled") {
		t, shutdown, err := otelhelper.NewTracer(ctx, "scrapeflow")
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracer: %w", err)
		}

		tracer = t
		a.shutdownTracer = shutdown
	}

	store, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		a.close(ctx)

		return nil, err
	}

	a.persistence = store

	bus, err := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), logger)
	if err != nil {
		a.close(ctx)

		return nil, err
	}

	a.eventBus = bus

	caps := cmd.Capabilities{
		Fetcher:           command.String("fetcher"),
		FetchTimeout:      command.Duration("fetch-timeout"),
		FetchCacheTTL:     command.Duration("fetch-cache-ttl"),
		CompletionURL:     command.String("completion-url"),
		CompletionAPIKey:  command.String("completion-api-key"),
		CompletionTimeout: command.Duration("completion-timeout"),
		SMTPAddr:          command.String("smtp-addr"),
		SMTPFrom:          command.String("smtp-from"),
		SMTPUsername:      command.String("smtp-username"),
		SMTPPassword:      command.String("smtp-password"),
	}

	a.scraper, err = cmd.NewScraper(logger, tracer, caps)
	if err != nil {
		a.close(ctx)

		return nil, err
	}

	a.registry = cmd.NewRegistry(logger, a.scraper, caps)

	opts := []workflow.Option{workflow.WithMaxParallel(command.Int("max-parallel"))}
	if bus != nil {
		opts = append(opts, workflow.WithPublisher(bus))
	}

	if tracer != nil {
		opts = append(opts, workflow.WithTracer(tracer))
	}

	a.engine = workflow.NewEngine(a.registry, store, logger, opts...)

	return a, nil
}

func (a *app) scraping() *services.Scraping {
	return services.NewScraping(a.scraper, a.logger)
}

func (a *app) executions() *services.Execution {
	return services.NewExecution(a.engine, a.persistence, a.logger)
}

func (a *app) close(ctx context.Context) {
	var errs []error

	if a.eventBus != nil {
		errs = append(errs, a.eventBus.Close())
	}

	if a.persistence != nil {
		errs = append(errs, a.persistence.Close(ctx))
	}

	if a.shutdownTracer != nil {
		errs = append(errs, a.shutdownTracer(context.WithoutCancel(ctx)))
	}

	if err := errors.Join(errs...); err != nil {
		a.logger.ErrorContext(ctx, "Failed to release resources", "error", err)
	}
}
