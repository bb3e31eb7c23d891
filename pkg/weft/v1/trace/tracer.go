package trace

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// TracerKind discriminates which tracer implementation a get-tracer reply
// carries, so callers can dispatch polymorphically without type assertions.
type TracerKind int

const (
	// KindNoop identifies a tracer handle that records nothing. Returned for
	// deny-listed scopes and whenever the coordinator is in degraded mode.
	KindNoop TracerKind = iota
	// KindDefault identifies a fully functional tracer handle stamped from
	// the coordinator's tracer template.
	KindDefault
)

func (k TracerKind) String() string {
	switch k {
	case KindNoop:
		return "noop"
	case KindDefault:
		return "default"
	default:
		return "unknown"
	}
}

// Tracer is the scoped handle returned by the provider coordinator. A handle
// differs from another only in its attached InstrumentationScope; sampler, id
// generation, resource and processor chains are shared via the coordinator's
// immutable template.
type Tracer interface {
	// Start begins a span named spanName. The returned context carries the new
	// span's context so child spans and log records can correlate with it.
	// Start never fails; on a noop tracer it returns ctx unchanged and an
	// inert handle.
	Start(ctx context.Context, spanName string, opts ...SpanStartOption) (context.Context, SpanHandle)
}

// SpanHandle is the live handle to a started span.
type SpanHandle interface {
	// End completes the span and drives the on-end processor chain. Calling
	// End more than once is a no-op after the first call.
	End()
	// SetAttributes appends attributes to the span. No-op after End.
	SetAttributes(attrs ...attribute.KeyValue)
	// SetStatus records the span's final status. No-op after End.
	SetStatus(code codes.Code, description string)
	// SpanContext returns the span's identifiers. Valid even after End.
	SpanContext() oteltrace.SpanContext
	// IsRecording reports whether lifecycle events reach the processors.
	IsRecording() bool
}

// TracerConfig holds the per-scope options of a get-tracer request made by
// name rather than by explicit InstrumentationScope.
type TracerConfig struct {
	version   string
	schemaURL string
}

// InstrumentationVersion returns the version of the instrumentation library.
func (c TracerConfig) InstrumentationVersion() string { return c.version }

// SchemaURL returns the schema URL of the instrumentation library.
func (c TracerConfig) SchemaURL() string { return c.schemaURL }

// TracerOption applies an option to a TracerConfig.
type TracerOption func(*TracerConfig)

// NewTracerConfig applies all the options to a returned TracerConfig.
func NewTracerConfig(opts ...TracerOption) TracerConfig {
	var cfg TracerConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithInstrumentationVersion sets the instrumentation library version.
func WithInstrumentationVersion(version string) TracerOption {
	return func(cfg *TracerConfig) { cfg.version = version }
}

// WithSchemaURL sets the schema URL of the emitted telemetry.
func WithSchemaURL(schemaURL string) TracerOption {
	return func(cfg *TracerConfig) { cfg.schemaURL = schemaURL }
}

// SpanStartConfig holds the options of a Tracer.Start call.
type SpanStartConfig struct {
	attributes []attribute.KeyValue
}

// Attributes returns the attributes to set on the span at start.
func (c SpanStartConfig) Attributes() []attribute.KeyValue { return c.attributes }

// SpanStartOption applies an option to a SpanStartConfig.
type SpanStartOption func(*SpanStartConfig)

// NewSpanStartConfig applies all the options to a returned SpanStartConfig.
func NewSpanStartConfig(opts ...SpanStartOption) SpanStartConfig {
	var cfg SpanStartConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithAttributes sets the initial attributes of the started span.
func WithAttributes(attrs ...attribute.KeyValue) SpanStartOption {
	return func(cfg *SpanStartConfig) {
		cfg.attributes = append(cfg.attributes, attrs...)
	}
}
