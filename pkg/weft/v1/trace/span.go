// Package trace defines the public value types and pluggable-module contracts
// of the weft tracing subsystem: the span value passed through processor hook
// chains, the span processor contract, and the tracer handle surface returned
// by the provider coordinator.
package trace

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/resource"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// InstrumentationScope identifies the calling library on whose behalf a tracer
// handle was created. It is supplied per get-tracer request and stamped onto
// the returned handle; the coordinator never stores it.
type InstrumentationScope struct {
	// Name is the instrumentation library name, e.g. an import path. It is
	// the value matched against the coordinator's deny-list.
	Name string
	// Version is the instrumentation library version. Optional.
	Version string
	// SchemaURL identifies the telemetry schema the library emits. Optional.
	SchemaURL string
}

// Span is the value passed through the processor hook chains. The coordinator
// treats it as opaque: processors may transform it on start (e.g. inject
// attributes) and observe it on end. Field semantics beyond identity are the
// concern of processors and exporters, not of the coordinator.
type Span struct {
	// Name is the operation name supplied at span start.
	Name string
	// SpanContext carries the span's trace/span identifiers and flags.
	SpanContext oteltrace.SpanContext
	// Parent is the span context this span was started under. Invalid for
	// root spans.
	Parent oteltrace.SpanContext
	// Scope identifies the instrumentation library that started the span.
	Scope InstrumentationScope
	// Resource describes the reporting entity. Shared across all spans of one
	// coordinator; never mutated.
	Resource *resource.Resource
	// Attributes are the span's key-value annotations.
	Attributes []attribute.KeyValue
	// StartTime and EndTime bound the span's lifetime. EndTime is zero while
	// the span is live.
	StartTime time.Time
	EndTime   time.Time
	// StatusCode and StatusDescription record the span's final status.
	StatusCode        codes.Code
	StatusDescription string
}
