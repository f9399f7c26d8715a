package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Creator builds a provider instance from its settings map.
type Creator func(settings map[string]interface{}) (TranscriptionProvider, error)

var (
	creatorsMu sync.RWMutex
	creators   = make(map[string]Creator)
)

// RegisterCreator registers a provider type. Called from provider package
// init functions; a duplicate registration is a programming error.
func RegisterCreator(providerType string, creator Creator) {
	creatorsMu.Lock()
	defer creatorsMu.Unlock()
	if _, exists := creators[providerType]; exists {
		panic(fmt.Sprintf("provider: type %q registered twice", providerType))
	}
	creators[providerType] = creator
}

// CreatorFor returns the creator for a provider type.
func CreatorFor(providerType string) (Creator, error) {
	creatorsMu.RLock()
	defer creatorsMu.RUnlock()

	creator, ok := creators[providerType]
	if !ok {
		return nil, fmt.Errorf("provider: type %q not registered", providerType)
	}
	return creator, nil
}

// RegisteredTypes lists the linked-in provider types, sorted.
func RegisteredTypes() []string {
	creatorsMu.RLock()
	defer creatorsMu.RUnlock()

	types := make([]string, 0, len(creators))
	for providerType := range creators {
		types = append(types, providerType)
	}
	sort.Strings(types)
	return types
}

// Registry holds the provider instances built for one process, keyed by the
// name they were configured under.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]TranscriptionProvider
	defName   string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]TranscriptionProvider)}
}

// Register adds a named provider. The first registration becomes the default.
func (r *Registry) Register(name string, p TranscriptionProvider) error {
	if name == "" {
		return fmt.Errorf("provider: name cannot be empty")
	}
	if p == nil {
		return fmt.Errorf("provider: instance cannot be nil")
	}
	if err := p.ValidateConfig(); err != nil {
		return fmt.Errorf("provider: %s validation failed: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("provider: %q already registered", name)
	}
	r.providers[name] = p
	if r.defName == "" {
		r.defName = name
	}
	return nil
}

// Get returns the named provider.
func (r *Registry) Get(name string) (TranscriptionProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("provider: %q not found", name)
	}
	return p, nil
}

// Names lists the registered providers, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns the default provider.
func (r *Registry) Default() (TranscriptionProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.defName == "" {
		return nil, fmt.Errorf("provider: no default provider set")
	}
	p, exists := r.providers[r.defName]
	if !exists {
		return nil, fmt.Errorf("provider: default %q not found", r.defName)
	}
	return p, nil
}

// DefaultName returns the name Default resolves to, or "" when the
// registry is empty.
func (r *Registry) DefaultName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defName
}

// SetDefault changes which provider Default returns.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; !exists {
		return fmt.Errorf("provider: %q not found", name)
	}
	r.defName = name
	return nil
}

// HealthCheckAll probes every registered provider concurrently and returns
// one entry per provider.
func (r *Registry) HealthCheckAll(ctx context.Context) map[string]error {
	r.mu.RLock()
	snapshot := make(map[string]TranscriptionProvider, len(r.providers))
	for name, p := range r.providers {
		snapshot[name] = p
	}
	r.mu.RUnlock()

	results := make(map[string]error, len(snapshot))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, p := range snapshot {
		wg.Add(1)
		go func(name string, p TranscriptionProvider) {
			defer wg.Done()
			err := p.HealthCheck(ctx)
			mu.Lock()
			results[name] = err
			mu.Unlock()
		}(name, p)
	}

	wg.Wait()
	return results
}
