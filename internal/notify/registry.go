package notify

import (
	"fmt"
	"log"
	"sync"
)

// Registry manages available delivery backends.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]BackendFactory
}

func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]BackendFactory)}
}

func (r *Registry) Register(name string, factory BackendFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.backends[name]; exists {
		return fmt.Errorf("backend %s already registered", name)
	}
	r.backends[name] = factory
	return nil
}

func (r *Registry) Create(name string, logger *log.Logger) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.backends[name]
	if !exists {
		return nil, fmt.Errorf("backend %s not registered", name)
	}
	return factory(logger), nil
}

func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	return names
}

var defaultRegistry = NewRegistry()

func Register(name string, factory BackendFactory) error {
	return defaultRegistry.Register(name, factory)
}

func CreateBackend(name string, logger *log.Logger) (Backend, error) {
	return defaultRegistry.Create(name, logger)
}

func ListBackends() []string {
	return defaultRegistry.List()
}

// SelectBackend picks a delivery backend. An explicit name wins; otherwise
// backends are tried in order of preference and the first enabled one is
// used, falling back to noop.
func SelectBackend(name string, logger *log.Logger) (Backend, error) {
	if name != "" {
		b, err := CreateBackend(name, logger)
		if err != nil {
			return nil, fmt.Errorf("creating backend %s: %w", name, err)
		}
		return b, nil
	}

	for _, candidate := range []string{"desktop", "log"} {
		b, err := CreateBackend(candidate, logger)
		if err != nil {
			continue
		}
		if b.IsEnabled() {
			return b, nil
		}
	}

	return CreateBackend("noop", logger)
}
