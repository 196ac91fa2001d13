package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dukex/scrapeflow/pkg/models"
	"gopkg.in/yaml.v3"
)

// LoadWorkflowFile reads a workflow definition from a JSON or YAML file,
// chosen by extension.
func LoadWorkflowFile(path string) (*models.Workflow, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse workflow file %s: %w", path, err)
		}
	}

	var workflow models.Workflow

	err = json.Unmarshal(data, &workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to parse workflow file %s: %w", path, err)
	}

	return &workflow, nil
}

// yamlToJSON re-encodes YAML as JSON so node configs decode through the
// same type-directed path as stored workflows.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any

	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, err
	}

	return json.Marshal(doc)
}
