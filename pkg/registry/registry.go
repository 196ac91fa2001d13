// Package registry maps node types to the factories that build them.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/dukex/scrapeflow/pkg/models"
	"github.com/dukex/scrapeflow/pkg/protocol"
	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
)

var (
	ErrUnregisteredType = errors.New("node type not registered")
	ErrInvalidConfig    = errors.New("invalid node config")
)

type Registry struct {
	logger    *slog.Logger
	validate  *validator.Validate
	mu        sync.RWMutex
	factories map[models.NodeType]protocol.NodeFactory
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:    log.With("module", "registry"),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		factories: make(map[models.NodeType]protocol.NodeFactory),
	}
}

// RegisterNode registers factory for its node type, replacing any previous
// factory for that type.
func (r *Registry) RegisterNode(factory protocol.NodeFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[factory.Type()] = factory
	r.logger.Debug("Registered node factory", "type", factory.Type(), "name", factory.Name())
}

// Factory returns the factory registered for nodeType.
func (r *Registry) Factory(nodeType models.NodeType) (protocol.NodeFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[nodeType]

	return factory, ok
}

// GetAvailableNodes returns every registered factory ordered by type.
func (r *Registry) GetAvailableNodes() []protocol.NodeFactory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factories := make([]protocol.NodeFactory, 0, len(r.factories))
	for _, factory := range r.factories {
		factories = append(factories, factory)
	}

	sort.Slice(factories, func(i, j int) bool {
		return factories[i].Type() < factories[j].Type()
	})

	return factories
}

// Validate checks the node config against the factory schema and the
// struct validation tags of the config type.
func (r *Registry) Validate(node *models.Node) error {
	if node == nil {
		return fmt.Errorf("%w: node is null", ErrInvalidConfig)
	}

	factory, ok := r.Factory(node.Type)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnregisteredType, node.Type)
	}

	if node.Config == nil {
		return fmt.Errorf("%w: node %s has no config", ErrInvalidConfig, node.ID)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(factory.Schema()),
		gojsonschema.NewGoLoader(node.Config),
	)
	if err != nil {
		return fmt.Errorf("%w: node %s: %w", ErrInvalidConfig, node.ID, err)
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, resultErr := range result.Errors() {
			messages = append(messages, resultErr.String())
		}

		return fmt.Errorf("%w: node %s: %s", ErrInvalidConfig, node.ID, strings.Join(messages, "; "))
	}

	err = r.validate.Struct(node.Config)
	if err != nil {
		return fmt.Errorf("%w: node %s: %w", ErrInvalidConfig, node.ID, err)
	}

	return nil
}

// CreateNode validates node and builds it with the registered factory.
func (r *Registry) CreateNode(ctx context.Context, node *models.Node) (protocol.Node, error) {
	err := r.Validate(node)
	if err != nil {
		return nil, err
	}

	factory, _ := r.Factory(node.Type)

	created, err := factory.Create(ctx, node)
	if err != nil {
		return nil, fmt.Errorf("failed to create node %s: %w", node.ID, err)
	}

	return created, nil
}
