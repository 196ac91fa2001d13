package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"github.com/dukex/scrapeflow/pkg/models"
	"golang.org/x/net/html"
)

// Match holds the requested attribute values of one matched element.
type Match map[string]string

// Row returns the values of attrs in order.
func (m Match) Row(attrs []string) []string {
	row := make([]string, len(attrs))
	for i, attr := range attrs {
		row[i] = m[attr]
	}

	return row
}

// Evaluate runs selector against doc and returns one Match per matched element
// in document order. Zero matches is not an error.
func Evaluate(doc *Document, selector models.SelectorConfig) ([]Match, error) {
	nodes, err := selectNodes(doc.Root(), selector)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(nodes))
	for _, node := range nodes {
		matches = append(matches, extract(node, selector.Attributes))
	}

	return matches, nil
}

func selectNodes(root *html.Node, selector models.SelectorConfig) ([]*html.Node, error) {
	switch selector.SelectorType {
	case models.SelectorTypeCSS:
		compiled, err := cascadia.Compile(selector.Selector)
		if err != nil {
			return nil, &SelectorError{Selector: selector.Selector, Type: selector.SelectorType, Err: err}
		}

		return goquery.NewDocumentFromNode(root).FindMatcher(compiled).Nodes, nil
	case models.SelectorTypeXPath:
		nodes, err := htmlquery.QueryAll(root, selector.Selector)
		if err != nil {
			return nil, &SelectorError{Selector: selector.Selector, Type: selector.SelectorType, Err: err}
		}

		return nodes, nil
	default:
		return nil, &SelectorError{Selector: selector.Selector, Type: selector.SelectorType, Err: ErrUnsupportedSelectorType}
	}
}

func extract(node *html.Node, attrs []string) Match {
	match := make(Match, len(attrs))

	for _, attr := range attrs {
		if attr == models.TextAttribute {
			match[attr] = normalizeText(htmlquery.InnerText(node))

			continue
		}

		match[attr] = attributeValue(node, attr)
	}

	return match
}

func attributeValue(node *html.Node, name string) string {
	for _, attr := range node.Attr {
		if attr.Key == name {
			return attr.Val
		}
	}

	return ""
}

// normalizeText collapses runs of whitespace and trims the result.
func normalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
