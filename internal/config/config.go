package config

// Sampler names accepted in the 'sampler' block.
const (
	SamplerAlwaysOn     = "always_on"
	SamplerAlwaysOff    = "always_off"
	SamplerTraceIDRatio = "trace_id_ratio"
	SamplerParentBased  = "parent_based"
)

// IDGeneratorRandom is the default id generator identity.
const IDGeneratorRandom = "random"

// Config represents the top-level structure of a weft tracing configuration
// YAML file. It holds everything the provider coordinator needs at startup:
// resource identity, sampling policy, id generation, the ordered span
// processor list and the tracer deny-list.
type Config struct {
	SchemaVersion string        `yaml:"schemaVersion"`
	Service       ServiceConfig `yaml:"service,omitempty"`

	// Disabled puts the coordinator into degraded mode: no tracer template is
	// built and every get-tracer request yields a noop handle.
	Disabled bool `yaml:"disabled,omitempty"`

	// IDGenerator names the id-generator module to stamp into the tracer
	// template. Empty selects the random generator.
	IDGenerator string `yaml:"id_generator,omitempty"`

	Sampler    *SamplerSpec    `yaml:"sampler,omitempty"`
	Processors []ProcessorSpec `yaml:"processors,omitempty"`
	DenyList   []DenyRule      `yaml:"deny_list,omitempty"`
	Logging    LoggingConfig   `yaml:"logging,omitempty"`

	// FilePath is an internal field for storing the source file path for
	// context in logging and error messages. It is not parsed from the YAML.
	FilePath string `yaml:"-"`
}

// ServiceConfig names the reporting entity for resource detection.
type ServiceConfig struct {
	Name string `yaml:"name,omitempty"`
}

// SamplerSpec is the declarative specification a sampler is constructed from.
// Root is only meaningful for the parent_based sampler, where it names the
// sampler consulted for root spans.
type SamplerSpec struct {
	Name  string       `yaml:"name"`
	Ratio float64      `yaml:"ratio,omitempty"`
	Root  *SamplerSpec `yaml:"root,omitempty"`
}

// ProcessorSpec configures a single span processor instance. Type names a
// factory in the processor registry; Params is the processor-specific
// configuration bound to the instance's lifecycle callbacks.
type ProcessorSpec struct {
	Type   string                 `yaml:"type"`
	Params map[string]interface{} `yaml:"params,omitempty"`
}

// DenyRule is one entry of the tracer deny-list. A rule matches a get-tracer
// request when the requested instrumentation scope name equals Name exactly.
// Constraint optionally carries a semver constraint on the scope version; its
// syntax is validated at load time but constraint matching is not yet applied.
type DenyRule struct {
	Name       string `yaml:"name"`
	Constraint string `yaml:"constraint,omitempty"`
}

// LoggingConfig selects the coordinator's log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}
