package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/dukex/scrapeflow/pkg/log"
	"github.com/dukex/scrapeflow/pkg/models"
	"github.com/dukex/scrapeflow/pkg/services"
	cli "github.com/urfave/cli/v3"
)

func selectorFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "selector",
			Aliases:  []string{"s"},
			Usage:    "CSS selector or XPath expression",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "selector-type",
			Usage: "Selector language (css, xpath)",
			Value: string(models.SelectorTypeCSS),
		},
		&cli.StringSliceFlag{
			Name:    "attribute",
			Aliases: []string{"a"},
			Usage:   "Attribute to extract from each match; \"text\" is the element text",
			Value:   []string{models.TextAttribute},
		},
		&cli.StringFlag{
			Name:  "name",
			Usage: "Name of the selector",
		},
		&cli.StringFlag{
			Name:    "template",
			Aliases: []string{"t"},
			Usage:   "Render each match with this template, e.g. \"{text} ({href})\"",
		},
	}
}

func selectorFromFlags(command *cli.Command) models.SelectorConfig {
	return models.SelectorConfig{
		Selector:     command.String("selector"),
		SelectorType: models.SelectorType(command.String("selector-type")),
		Attributes:   command.StringSlice("attribute"),
		Name:         command.String("name"),
	}
}

func writeJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(value)
}

func ScrapeCommand() *cli.Command {
	return &cli.Command{
		Name:  "scrape",
		Usage: "Scrape one URL and print the result as JSON",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "url",
				Aliases:  []string{"u"},
				Usage:    "URL to scrape",
				Required: true,
			},
		}, selectorFlags()...),
		Action: func(ctx context.Context, command *cli.Command) error {
			a, err := newApp(ctx, command, log.WithModule("scrape"))
			if err != nil {
				return err
			}
			defer a.close(ctx)

			result, err := a.scraping().ScrapeURL(ctx, services.ScrapeURLRequest{
				URL:       command.String("url"),
				Selectors: []models.SelectorConfig{selectorFromFlags(command)},
				Template:  command.String("template"),
			})
			if err != nil {
				return err
			}

			return writeJSON(command.Root().Writer, result)
		},
	}
}

func ScrapeManyCommand() *cli.Command {
	return &cli.Command{
		Name:  "scrape-many",
		Usage: "Scrape several URLs in batches and print the result as JSON",
		Flags: append([]cli.Flag{
			&cli.StringSliceFlag{
				Name:     "url",
				Aliases:  []string{"u"},
				Usage:    "URL to scrape; repeat for several URLs",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "URLs scraped concurrently",
				Value: models.DefaultBatchSize,
			},
			&cli.IntFlag{
				Name:  "rate-limit",
				Usage: "Maximum requests per second (0 is unlimited)",
				Value: models.DefaultRateLimit,
			},
		}, selectorFlags()...),
		Action: func(ctx context.Context, command *cli.Command) error {
			a, err := newApp(ctx, command, log.WithModule("scrape"))
			if err != nil {
				return err
			}
			defer a.close(ctx)

			result, err := a.scraping().ScrapeMultipleURLs(ctx, services.ScrapeManyRequest{
				URLs:     command.StringSlice("url"),
				Selector: selectorFromFlags(command),
				Batch: &models.BatchConfig{
					BatchSize: command.Int("batch-size"),
					RateLimit: command.Int("rate-limit"),
				},
				Template: command.String("template"),
			})
			if err != nil {
				return err
			}

			return writeJSON(command.Root().Writer, result)
		},
	}
}
