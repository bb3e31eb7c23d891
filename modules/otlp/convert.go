package otlp

import (
	"go.opentelemetry.io/otel/sdk/instrumentation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	oteltrace "go.opentelemetry.io/otel/trace"

	wefttrace "github.com/gxo-labs/weft/pkg/weft/v1/trace"
)

// snapshots converts buffered span values into the read-only snapshots the
// OTLP exporter consumes. The tracetest stub is the sanctioned way to build a
// ReadOnlySpan outside the SDK.
func snapshots(batch []wefttrace.Span) []sdktrace.ReadOnlySpan {
	out := make([]sdktrace.ReadOnlySpan, 0, len(batch))
	for _, span := range batch {
		stub := tracetest.SpanStub{
			Name:        span.Name,
			SpanContext: span.SpanContext,
			Parent:      span.Parent,
			SpanKind:    oteltrace.SpanKindInternal,
			StartTime:   span.StartTime,
			EndTime:     span.EndTime,
			Attributes:  span.Attributes,
			Status: sdktrace.Status{
				Code:        span.StatusCode,
				Description: span.StatusDescription,
			},
			Resource: span.Resource,
			// The stub names this field InstrumentationLibrary; Library is an
			// alias of Scope and surfaces as InstrumentationScope() on the
			// snapshot.
			InstrumentationLibrary: instrumentation.Scope{
				Name:      span.Scope.Name,
				Version:   span.Scope.Version,
				SchemaURL: span.Scope.SchemaURL,
			},
		}
		out = append(out, stub.Snapshot())
	}
	return out
}
