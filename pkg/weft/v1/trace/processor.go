package trace

import "context"

// ProcessorConfig holds the processor-specific configuration bound to one
// configured processor instance. Values originate from the configuration
// file's params block; a startable processor may replace the map wholesale
// from its Startup return value (typically to stash a handle to its running
// instance). After coordinator startup the map is never written again.
type ProcessorConfig map[string]interface{}

// Processor is the contract every span processor must implement. Processors
// are independent observers of the span lifecycle: the coordinator invokes
// every configured processor for every event, in configuration order, and
// never lets one processor's outcome suppress another's callbacks.
type Processor interface {
	// OnStart is called when a sampled span is started. It receives the
	// evolving span value and returns the (possibly transformed) span that is
	// handed to the next processor in the chain. Implementations must be pure
	// transforms of the span value; they must not block.
	OnStart(ctx context.Context, span Span, cfg ProcessorConfig) Span

	// OnEnd is called when a sampled span is ended. The returned boolean is
	// folded into the chain result with logical AND. OnEnd is invoked on every
	// processor regardless of what earlier processors returned, because each
	// processor may have side effects (such as exporting) that must run.
	OnEnd(span Span, cfg ProcessorConfig) bool

	// ForceFlush synchronously drains any telemetry the processor has
	// buffered. A nil return means success. ForceFlush is invoked on every
	// processor during a force-flush request regardless of earlier failures.
	ForceFlush(cfg ProcessorConfig) error
}

// Startable is the optional startup capability of a Processor. Processors
// without it are stateless and survive coordinator startup unconditionally
// with their original configuration.
type Startable interface {
	// Startup brings up the processor instance. On success it returns the
	// configuration to bind for all subsequent callbacks, which may be an
	// enriched copy of cfg. On error (or panic) the coordinator drops the
	// processor; no other processor is affected.
	Startup(cfg ProcessorConfig) (ProcessorConfig, error)
}

// Stoppable is the optional teardown capability of a Processor, invoked once
// during coordinator shutdown for each surviving processor that exposes it.
type Stoppable interface {
	Shutdown(ctx context.Context, cfg ProcessorConfig) error
}

// ProcessorFactory is a function type that creates new instances of a specific
// Processor. Each processor module registers a factory function of this type.
type ProcessorFactory func() Processor

// ProcessorRegistry defines the public interface for the processor registry.
// It provides a mechanism for registering and retrieving processor factories
// by name.
type ProcessorRegistry interface {
	// Get retrieves the factory function for a given processor name.
	// It returns an errors.ProcessorNotFoundError if the name is not registered.
	Get(name string) (ProcessorFactory, error)

	// Register associates a processor type name with its factory function.
	// This should be concurrency-safe. It returns an error if the name is
	// empty, the factory is nil, or the name is already registered.
	Register(name string, factory ProcessorFactory) error

	// List returns a slice containing the names of all registered processors.
	// The order of names in the returned slice is not guaranteed.
	List() []string
}
