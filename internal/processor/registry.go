// Package processor implements the registry of span-processor factories.
// Processor modules self-register here at init time; the provider coordinator
// resolves configured processor types against a registry at startup.
package processor

import (
	"fmt"
	"sync"

	// Import public interfaces the internal registry deals with.
	werrors "github.com/gxo-labs/weft/pkg/weft/v1/errors"
	wefttrace "github.com/gxo-labs/weft/pkg/weft/v1/trace"
)

// StaticRegistry implements the wefttrace.ProcessorRegistry interface using a
// compile-time map. It provides thread-safe registration and retrieval of
// processor factories. This is the default registry implementation used by
// weft if no other registry is provided.
type StaticRegistry struct {
	// factories maps the registered processor name (string) to its factory function.
	factories map[string]wefttrace.ProcessorFactory
	// mu provides read/write locking to ensure thread-safe access to the factories map.
	mu sync.RWMutex
}

// NewStaticRegistry creates a new, empty static registry. Processors must be
// registered using the Register method before they can be retrieved.
func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{
		factories: make(map[string]wefttrace.ProcessorFactory),
	}
}

// Register associates a processor type name with its factory function.
// This function is typically called from the init() function of a processor
// module package or explicitly by the application wiring the registry. It
// enforces that processor names and factories are valid and prevents duplicate
// registrations.
func (r *StaticRegistry) Register(name string, factory wefttrace.ProcessorFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Validate input parameters.
	if name == "" {
		return werrors.NewConfigError("processor registration error: name cannot be empty", nil)
	}
	if factory == nil {
		return werrors.NewConfigError(fmt.Sprintf("processor registration error for '%s': factory cannot be nil", name), nil)
	}
	// Prevent duplicate registrations.
	if _, exists := r.factories[name]; exists {
		return werrors.NewConfigError(fmt.Sprintf("processor registration error: duplicate processor name '%s'", name), nil)
	}

	r.factories[name] = factory
	return nil
}

// Get retrieves the factory function for a given processor name.
// It returns the factory and a nil error if found.
// If the processor name is not registered, it returns nil and a
// ProcessorNotFoundError.
func (r *StaticRegistry) Get(name string) (wefttrace.ProcessorFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.factories[name]
	if !exists {
		return nil, werrors.NewProcessorNotFoundError(name)
	}
	return factory, nil
}

// List returns a slice containing the names of all registered processors.
// The order of names in the returned slice is not guaranteed.
func (r *StaticRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

// --- Default Global Registry (for compile-time registration via init) ---

var (
	// globalRegistry holds the default registry instance used for package-level
	// registration via the global Register function.
	globalRegistry = NewStaticRegistry()
	// Compile-time check to ensure StaticRegistry correctly implements the
	// public ProcessorRegistry interface. This fails the build if the
	// implementation drifts.
	_ wefttrace.ProcessorRegistry = (*StaticRegistry)(nil)
)

// Register globally associates a processor type name with its factory function
// in the default global registry instance. This is the intended mechanism for
// processor modules to self-register during program initialization via their
// init() functions. It panics on registration errors (e.g., duplicate name)
// because init() functions run early, and such errors indicate a programming
// mistake that must be fixed.
func Register(name string, factory wefttrace.ProcessorFactory) {
	if err := globalRegistry.Register(name, factory); err != nil {
		// Panic provides immediate feedback during development about registration issues.
		panic(fmt.Errorf("failed to register processor '%s' globally: %w", name, err))
	}
}

// DefaultStaticRegistryGetter provides convenient access to the global static
// registry instance. This allows the main application (`cmd/weft`) or library
// consumers to easily retrieve the default registry containing compile-time
// registered processors.
var DefaultStaticRegistryGetter wefttrace.ProcessorRegistry = globalRegistry
