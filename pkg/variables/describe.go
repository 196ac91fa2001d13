package variables

import (
	"encoding/json"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/dukex/scrapeflow/pkg/models"
)

// MaxPreviewLength bounds NodeVariable.Preview, in runes.
const MaxPreviewLength = 100

// Variable types reported by Describe.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
	TypeNull    = "null"
)

// Describe lists the references a downstream node can use to read the given
// results: the whole result sequence, each element of it and every output
// field, in that order.
func Describe(nodeID, nodeName string, results []any, outputs map[string]any) models.NodeVariables {
	if results == nil {
		results = []any{}
	}

	variables := make([]models.NodeVariable, 0, len(results)+len(outputs)+1)
	variables = append(variables, describe(reference(nodeName, FieldResults), results))

	for i, value := range results {
		variables = append(variables, describe(reference(nodeName, fmt.Sprintf("%s[%d]", FieldResults, i)), value))
	}

	keys := make([]string, 0, len(outputs))
	for key := range outputs {
		if key == FieldResults || key == FieldStatus || key == FieldError {
			continue
		}

		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		variables = append(variables, describe(reference(nodeName, key), outputs[key]))
	}

	return models.NodeVariables{
		NodeID:    nodeID,
		NodeName:  nodeName,
		Variables: variables,
	}
}

func reference(nodeName, field string) string {
	return "{{" + nodeName + "." + field + "}}"
}

func describe(ref string, value any) models.NodeVariable {
	normalized := normalize(value)

	preview, err := stringify(normalized)
	if err != nil {
		preview = fmt.Sprint(value)
	}

	return models.NodeVariable{
		Reference: ref,
		Preview:   truncate(preview),
		Type:      TypeOf(normalized),
	}
}

// normalize maps Go values onto their JSON shape so that []string and
// []any report the same type.
func normalize(value any) any {
	raw, err := json.Marshal(value)
	if err != nil {
		return value
	}

	var normalized any

	err = json.Unmarshal(raw, &normalized)
	if err != nil {
		return value
	}

	return normalized
}

// TypeOf names the JSON type of a decoded value.
func TypeOf(value any) string {
	switch value.(type) {
	case nil:
		return TypeNull
	case string:
		return TypeString
	case bool:
		return TypeBoolean
	case float64, float32, int, int64, int32, json.Number:
		return TypeNumber
	case []any:
		return TypeArray
	case map[string]any:
		return TypeObject
	default:
		return TypeObject
	}
}

func truncate(preview string) string {
	if utf8.RuneCountInString(preview) <= MaxPreviewLength {
		return preview
	}

	runes := []rune(preview)

	return string(runes[:MaxPreviewLength-3]) + "..."
}
