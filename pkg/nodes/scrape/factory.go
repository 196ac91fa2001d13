// Package scrape provides the ScrapeTrigger and ScrapeAction nodes.
package scrape

import (
	"context"
	"fmt"

	"github.com/dukex/scrapeflow/pkg/models"
	"github.com/dukex/scrapeflow/pkg/protocol"
)

// Factory creates scrape nodes of one type.
type Factory struct {
	nodeType models.NodeType
	scraper  Scraper
}

// NewTriggerFactory creates the ScrapeTrigger factory.
func NewTriggerFactory(scraper Scraper) protocol.NodeFactory {
	return &Factory{nodeType: models.NodeTypeScrapeTrigger, scraper: scraper}
}

// NewActionFactory creates the ScrapeAction factory.
func NewActionFactory(scraper Scraper) protocol.NodeFactory {
	return &Factory{nodeType: models.NodeTypeScrapeAction, scraper: scraper}
}

// Create creates a new scrape node.
func (f *Factory) Create(_ context.Context, node *models.Node) (protocol.Node, error) {
	config, ok := node.Config.(models.ScrapeConfig)
	if !ok {
		return nil, fmt.Errorf("node %s: expected scrape config, got %T", node.ID, node.Config)
	}

	return NewNode(node.ID, f.nodeType, config, f.scraper), nil
}

// Type returns the node type built by this factory.
func (f *Factory) Type() models.NodeType {
	return f.nodeType
}

// Name returns the factory name.
func (f *Factory) Name() string {
	if f.nodeType == models.NodeTypeScrapeTrigger {
		return "Scrape Trigger"
	}

	return "Scrape"
}

// Description returns the factory description.
func (f *Factory) Description() string {
	return "Fetches one or more URLs and extracts attributes of the elements matched by CSS or XPath selectors"
}

// Schema returns the JSON schema for scrape node configuration.
func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"urls": map[string]any{
				"type":        "array",
				"description": "URLs to scrape. Supports {{Label.field}} references to upstream results",
				"minItems":    1,
				"items":       map[string]any{"type": "string", "minLength": 1},
				"examples": [][]string{
					{"https://shop.example.com/catalog"},
					{"{{Links.results[0]}}"},
				},
			},
			"selectors": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"selector":      map[string]any{"type": "string", "minLength": 1},
						"selector_type": map[string]any{"type": "string", "enum": []string{"css", "xpath"}},
						"attributes": map[string]any{
							"type":        "array",
							"description": "Attributes to extract per match; \"text\" yields the normalized text content",
							"minItems":    1,
							"items":       map[string]any{"type": "string", "minLength": 1},
						},
						"name":        map[string]any{"type": "string"},
						"description": map[string]any{"type": "string"},
					},
					"required": []string{"selector", "selector_type", "attributes"},
				},
			},
			"batch": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"batch_size": map[string]any{
						"type":        "integer",
						"description": "URLs scraped concurrently per chunk",
						"default":     models.DefaultBatchSize,
						"minimum":     0,
					},
					"rate_limit": map[string]any{
						"type":        "integer",
						"description": "Maximum request starts per second, 0 for unbounded",
						"default":     models.DefaultRateLimit,
						"minimum":     0,
					},
				},
			},
			"template": map[string]any{
				"type":        "string",
				"description": "Renders each match into one row. {attribute} and {{url}} are available",
				"examples":    []string{"{text} ({{url}}{href})"},
			},
			"schedule": map[string]any{
				"type":        "string",
				"description": "Cron expression for scheduled runs (triggers only)",
				"examples":    []string{"*/15 * * * *", "@hourly"},
			},
		},
		"required": []string{"urls", "selectors"},
	}
}
