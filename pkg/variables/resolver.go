// Package variables resolves Label.field references against the results of
// nodes that already ran.
package variables

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/scrapeflow/pkg/models"
	"github.com/dukex/scrapeflow/pkg/template"
	"github.com/oliveagle/jsonpath"
)

// ErrNotFound is returned when a reference names an unknown node or field.
var ErrNotFound = errors.New("variable not found")

// Field names every node result exposes regardless of its type.
const (
	FieldResults = "results"
	FieldStatus  = "status"
	FieldError   = "error"
)

// Resolve returns the value of reference, written as Label.field, using the
// results keyed by node label. Labels match exactly and case-sensitively.
// The field may be a path into the result such as results[0]. String values
// are returned as-is, anything else as JSON.
func Resolve(reference string, available map[string]models.NodeResult) (string, error) {
	label, field, ok := split(reference)
	if !ok {
		return "", fmt.Errorf("%w: %q is not a Label.field reference", ErrNotFound, reference)
	}

	result, ok := available[label]
	if !ok || result.NodeName != label {
		return "", fmt.Errorf("%w: no node labelled %q", ErrNotFound, label)
	}

	value, err := lookup(result, field)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrNotFound, reference, err)
	}

	return stringify(value)
}

// Interpolate renders every Label.field placeholder of tmpl that resolves
// against available. Unresolvable placeholders are left verbatim.
func Interpolate(tmpl string, available map[string]models.NodeResult) string {
	context := Context(tmpl, available)
	if len(context) == 0 {
		return tmpl
	}

	return template.Render(tmpl, context)
}

// Context resolves the placeholders of tmpl into a renderer context. Names
// that do not resolve are absent from the map.
func Context(tmpl string, available map[string]models.NodeResult) map[string]string {
	context := make(map[string]string)

	for _, name := range template.Names(tmpl) {
		value, err := Resolve(name, available)
		if err != nil {
			continue
		}

		context[name] = value
	}

	return context
}

// ByLabel indexes results by node name.
func ByLabel(results []models.NodeResult) map[string]models.NodeResult {
	byLabel := make(map[string]models.NodeResult, len(results))
	for _, result := range results {
		byLabel[result.NodeName] = result
	}

	return byLabel
}

func split(reference string) (string, string, bool) {
	label, field, ok := strings.Cut(strings.TrimSpace(reference), ".")
	if !ok || label == "" || field == "" {
		return "", "", false
	}

	return label, field, true
}

func lookup(result models.NodeResult, field string) (any, error) {
	doc, err := document(result)
	if err != nil {
		return nil, err
	}

	if value, ok := doc[field]; ok {
		return value, nil
	}

	return jsonpath.JsonPathLookup(doc, "$."+field)
}

// document is the JSON view of a result that field paths are evaluated on.
// Output fields cannot shadow the fixed fields.
func document(result models.NodeResult) (map[string]any, error) {
	fields := make(map[string]any, len(result.Outputs)+3)
	for key, value := range result.Outputs {
		fields[key] = value
	}

	results := result.Results
	if results == nil {
		results = []any{}
	}

	fields[FieldResults] = results
	fields[FieldStatus] = result.Status

	if result.Error != "" {
		fields[FieldError] = result.Error
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result of node %s: %w", result.NodeID, err)
	}

	var doc map[string]any

	err = json.Unmarshal(raw, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode result of node %s: %w", result.NodeID, err)
	}

	return doc, nil
}

func stringify(value any) (string, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to encode variable value: %w", err)
	}

	return string(raw), nil
}
