package provider

import (
	"fmt"
	"sync"

	weft "github.com/gxo-labs/weft/pkg/weft/v1"
	werrors "github.com/gxo-labs/weft/pkg/weft/v1/errors"
)

// DefaultProviderName is the conventional name under which an application's
// primary coordinator is published.
const DefaultProviderName = "default"

// Registry is an explicit service locator for named tracer providers. Instead
// of publishing the coordinator into ambient process-wide mutable state, the
// application constructs one Registry, registers its coordinator(s) under a
// name, and hands the Registry to in-process callers that need to resolve
// "the default tracer provider". Registration lifetime is tied to the
// coordinator's own: register after New, deregister around Shutdown.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]weft.Provider
}

// NewRegistry creates an empty named-provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]weft.Provider)}
}

// Register publishes a provider under the given name. It returns an error if
// the name is empty, the provider is nil, or the name is already taken.
func (r *Registry) Register(name string, p weft.Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		return werrors.NewConfigError("provider registration error: name cannot be empty", nil)
	}
	if p == nil {
		return werrors.NewConfigError(fmt.Sprintf("provider registration error for '%s': provider cannot be nil", name), nil)
	}
	if _, exists := r.providers[name]; exists {
		return werrors.NewConfigError(fmt.Sprintf("provider registration error: duplicate provider name '%s'", name), nil)
	}

	r.providers[name] = p
	return nil
}

// Lookup resolves a provider by name.
func (r *Registry) Lookup(name string) (weft.Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// Default resolves the provider registered under DefaultProviderName.
func (r *Registry) Default() (weft.Provider, bool) {
	return r.Lookup(DefaultProviderName)
}

// Deregister removes a name. Removing an absent name is a no-op.
func (r *Registry) Deregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.providers, name)
}

// Names returns the registered provider names. Order is not guaranteed.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
