package variables

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	vars := Describe("node-1", "Scraper", []any{
		[]string{"Blue Widget", "/p/1"},
		"loose",
	}, map[string]any{
		"count":    2,
		"urls":     []string{"https://shop.test"},
		"failures": nil,
		"status":   "ignored",
	})

	assert.Equal(t, "node-1", vars.NodeID)
	assert.Equal(t, "Scraper", vars.NodeName)
	require.Len(t, vars.Variables, 6)

	expected := []struct {
		reference string
		preview   string
		typ       string
	}{
		{"{{Scraper.results}}", `[["Blue Widget","/p/1"],"loose"]`, TypeArray},
		{"{{Scraper.results[0]}}", `["Blue Widget","/p/1"]`, TypeArray},
		{"{{Scraper.results[1]}}", "loose", TypeString},
		{"{{Scraper.count}}", "2", TypeNumber},
		{"{{Scraper.failures}}", "null", TypeNull},
		{"{{Scraper.urls}}", `["https://shop.test"]`, TypeArray},
	}

	for i, want := range expected {
		assert.Equal(t, want.reference, vars.Variables[i].Reference)
		assert.Equal(t, want.preview, vars.Variables[i].Preview)
		assert.Equal(t, want.typ, vars.Variables[i].Type)
	}
}

func TestDescribe_EmptyResults(t *testing.T) {
	vars := Describe("node-1", "Scraper", nil, nil)

	require.Len(t, vars.Variables, 1)
	assert.Equal(t, "[]", vars.Variables[0].Preview)
	assert.Equal(t, TypeArray, vars.Variables[0].Type)
}

func TestDescribe_TruncatesPreview(t *testing.T) {
	long := strings.Repeat("é", 250)

	vars := Describe("node-1", "AI", []any{long}, map[string]any{"flag": true, "meta": map[string]any{"a": 1}})

	require.Len(t, vars.Variables, 4)
	assert.Equal(t, MaxPreviewLength, len([]rune(vars.Variables[1].Preview)))
	assert.True(t, strings.HasSuffix(vars.Variables[1].Preview, "..."))
	assert.Equal(t, TypeBoolean, vars.Variables[2].Type)
	assert.Equal(t, TypeObject, vars.Variables[3].Type)
}

func TestDescribe_ReferencesResolve(t *testing.T) {
	result := scraperResult()
	vars := Describe(result.NodeID, result.NodeName, result.Results, result.Outputs)

	for _, variable := range vars.Variables {
		name := strings.TrimSuffix(strings.TrimPrefix(variable.Reference, "{{"), "}}")

		_, err := Resolve(name, available())
		assert.NoError(t, err, variable.Reference)
	}
}
