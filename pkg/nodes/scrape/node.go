package scrape

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukex/scrapeflow/pkg/models"
	"github.com/dukex/scrapeflow/pkg/protocol"
	"github.com/dukex/scrapeflow/pkg/scraper"
	"github.com/dukex/scrapeflow/pkg/variables"
)

// ErrScrapeFailed is returned when no URL produced a result.
var ErrScrapeFailed = errors.New("scrape failed")

// Scraper is the scraping capability the node calls through.
type Scraper interface {
	ScrapeURL(ctx context.Context, url string, selectors []models.SelectorConfig, tmpl string) models.ScrapingResult
	Run(ctx context.Context, req scraper.BatchRequest) models.ScrapingResult
}

// Node scrapes its configured URLs.
type Node struct {
	id       string
	nodeType models.NodeType
	config   models.ScrapeConfig
	scraper  Scraper
}

// NewNode creates a scrape node.
func NewNode(id string, nodeType models.NodeType, config models.ScrapeConfig, scraper Scraper) *Node {
	return &Node{
		id:       id,
		nodeType: nodeType,
		config:   config,
		scraper:  scraper,
	}
}

func (n *Node) ID() string {
	return n.id
}

func (n *Node) Type() models.NodeType {
	return n.nodeType
}

// Execute interpolates upstream variables into the URLs and template, then
// scrapes a single URL directly or many through the batch scheduler.
// Each extracted row is one result.
func (n *Node) Execute(ctx context.Context, input protocol.Input) (protocol.Output, error) {
	urls := make([]string, 0, len(n.config.URLs))
	for _, url := range n.config.URLs {
		urls = append(urls, variables.Interpolate(url, input.Predecessors))
	}

	tmpl := variables.Interpolate(n.config.Template, input.Predecessors)

	var result models.ScrapingResult
	if len(urls) == 1 {
		result = n.scraper.ScrapeURL(ctx, urls[0], n.config.Selectors, tmpl)
	} else {
		result = n.scraper.Run(ctx, scraper.BatchRequest{
			URLs:      urls,
			Selectors: n.config.Selectors,
			Batch:     n.config.Batch,
			Template:  tmpl,
		})
	}

	if !result.Success {
		return protocol.Output{}, fmt.Errorf("%w: %s", ErrScrapeFailed, result.Error)
	}

	rows := make([]any, 0, len(result.Results))
	for _, row := range result.Results {
		rows = append(rows, row)
	}

	failures := result.Failures
	if failures == nil {
		failures = []models.URLFailure{}
	}

	return protocol.Output{
		Results: rows,
		Outputs: map[string]any{
			"urls":     urls,
			"count":    len(rows),
			"failures": failures,
		},
	}, nil
}
