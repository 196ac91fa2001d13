package registry

import (
	"github.com/dukex/scrapeflow/pkg/nodes/aicompletion"
	"github.com/dukex/scrapeflow/pkg/nodes/email"
	"github.com/dukex/scrapeflow/pkg/nodes/scrape"
	"github.com/dukex/scrapeflow/pkg/protocol"
)

// Dependencies are the capabilities the built-in nodes call through.
type Dependencies struct {
	Scraper   scrape.Scraper
	Completer protocol.Completer
	Mailer    protocol.Mailer
}

// RegisterDefaultNodes registers all built-in node factories with the registry.
// Nodes whose capability is missing are not registered.
func (r *Registry) RegisterDefaultNodes(deps Dependencies) {
	if deps.Scraper != nil {
		r.RegisterNode(scrape.NewTriggerFactory(deps.Scraper))
		r.RegisterNode(scrape.NewActionFactory(deps.Scraper))
	}

	if deps.Completer != nil {
		r.RegisterNode(aicompletion.NewFactory(deps.Completer))
	}

	if deps.Mailer != nil {
		r.RegisterNode(email.NewActionFactory(deps.Mailer))
	}

	r.RegisterNode(email.NewTriggerFactory())
}
