// Package main provides the scrapeflow command line: the REST API, one-off
// scrapes, workflow runs and the trigger scheduler.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukex/scrapeflow/pkg/log"
	"github.com/dukex/scrapeflow/pkg/scraper"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCommand().Run(ctx, os.Args)
	if err != nil {
		log.WithModule("cli").ErrorContext(ctx, "Command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:                  "scrapeflow",
		Usage:                 "Scrape web pages and run scraping workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Database connection URL for persistence (file path, postgres://, redis://)",
				Value:   "./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka, none)",
				Value:   "none",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "fetcher",
				Usage:   "Document fetcher (http, browser)",
				Value:   "http",
				Sources: cli.EnvVars("FETCHER"),
			},
			&cli.DurationFlag{
				Name:    "fetch-timeout",
				Usage:   "Timeout of one document fetch",
				Value:   scraper.DefaultFetchTimeout,
				Sources: cli.EnvVars("FETCH_TIMEOUT"),
			},
			&cli.DurationFlag{
				Name:    "fetch-cache-ttl",
				Usage:   "Cache fetched documents for this long (0 disables the cache)",
				Sources: cli.EnvVars("FETCH_CACHE_TTL"),
			},
			&cli.StringFlag{
				Name:    "completion-url",
				Usage:   "Chat completions endpoint used by AICompletion nodes",
				Sources: cli.EnvVars("COMPLETION_URL"),
			},
			&cli.StringFlag{
				Name:    "completion-api-key",
				Usage:   "API key sent to the completions endpoint",
				Sources: cli.EnvVars("COMPLETION_API_KEY"),
			},
			&cli.DurationFlag{
				Name:    "completion-timeout",
				Usage:   "Timeout of one completion request",
				Value:   time.Minute,
				Sources: cli.EnvVars("COMPLETION_TIMEOUT"),
			},
			&cli.StringFlag{
				Name:    "smtp-addr",
				Usage:   "SMTP server (host:port) used by EmailAction nodes",
				Sources: cli.EnvVars("SMTP_ADDR"),
			},
			&cli.StringFlag{
				Name:    "smtp-from",
				Usage:   "Sender address of outgoing email",
				Sources: cli.EnvVars("SMTP_FROM"),
			},
			&cli.StringFlag{
				Name:    "smtp-username",
				Usage:   "SMTP username",
				Sources: cli.EnvVars("SMTP_USERNAME"),
			},
			&cli.StringFlag{
				Name:    "smtp-password",
				Usage:   "SMTP password",
				Sources: cli.EnvVars("SMTP_PASSWORD"),
			},
			&cli.IntFlag{
				Name:    "max-parallel",
				Usage:   "Maximum nodes of one execution running at once (0 is unlimited)",
				Sources: cli.EnvVars("MAX_PARALLEL"),
			},
			&cli.BoolFlag{
				Name:    "otel-enabled",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			log.Setup(command.String("log-level"))

			return ctx, nil
		},
		Commands: []*cli.Command{
			APICommand(),
			ScrapeCommand(),
			ScrapeManyCommand(),
			RunCommand(),
			ScheduleCommand(),
			EventsCommand(),
		},
	}
}
