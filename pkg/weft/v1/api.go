// Package v1 defines the public interface of the weft tracer-provider
// coordinator.
package v1

import (
	"context"

	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/gxo-labs/weft/pkg/weft/v1/trace"
)

// Provider is the request surface of a running tracer-provider coordinator.
// All methods are safe for concurrent use: requests are serialized through the
// coordinator's mailbox and answered in FIFO order.
type Provider interface {
	// Resource returns the resource descriptor detected at startup. The same
	// value is returned for the lifetime of the coordinator. An error is
	// returned only if the coordinator has shut down or ctx is done before
	// the reply arrives.
	Resource(ctx context.Context) (*resource.Resource, error)

	// Tracer returns a scoped tracer handle for the named instrumentation
	// library, plus the discriminator identifying which implementation the
	// handle uses. Callers never observe an error: deny-listed names, a
	// degraded coordinator, and a stopped coordinator all yield a usable
	// noop handle.
	Tracer(ctx context.Context, name string, opts ...trace.TracerOption) (trace.Tracer, trace.TracerKind)

	// TracerForScope is Tracer with the scope supplied as a value.
	TracerForScope(ctx context.Context, scope trace.InstrumentationScope) (trace.Tracer, trace.TracerKind)

	// ForceFlush invokes every surviving processor's flush operation in
	// configuration order, regardless of earlier outcomes. It returns nil if
	// every processor succeeded, or an *errors.FlushError carrying the
	// complete set of per-processor failure causes.
	ForceFlush(ctx context.Context) error

	// Shutdown flushes and stops the coordinator. After Shutdown returns, the
	// mailbox is closed: Tracer yields noop handles and the other requests
	// return errors.
	Shutdown(ctx context.Context) error
}
