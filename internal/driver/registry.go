// internal/driver/registry.go
package driver

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/model"
)

// Factory creates a backend from its serialized settings.
type Factory func(settings string, logger *zap.Logger) (Backend, error)

// Registry manages backend registration and creation
type Registry struct {
	factories map[model.DriverKind]Factory
	mu        sync.RWMutex
	logger    *zap.Logger
}

// NewRegistry creates a new driver registry
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		factories: make(map[model.DriverKind]Factory),
		logger:    logger,
	}
}

// Register registers a backend factory, replacing any previous one
func (r *Registry) Register(kind model.DriverKind, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[kind] = factory
	r.logger.Debug("Driver registered", zap.String("driver", string(kind)))
}

// Create builds a backend of the given kind
func (r *Registry) Create(kind model.DriverKind, settings string) (Backend, error) {
	r.mu.RLock()
	factory, exists := r.factories[kind]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("no driver registered for %q", kind)
	}

	backend, err := factory(settings, r.logger.With(zap.String("driver", string(kind))))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s driver: %w", kind, err)
	}
	return backend, nil
}

// IsSupported checks if a backend kind is registered
func (r *Registry) IsSupported(kind model.DriverKind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[kind]
	return exists
}

// Kinds returns all registered kinds in name order
func (r *Registry) Kinds() []model.DriverKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]model.DriverKind, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
