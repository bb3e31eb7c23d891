// Package idgen provides the id-generator modules a tracer template can be
// configured with. Exactly one generator is selected at coordinator startup
// and shared by every tracer handle.
package idgen

import (
	crand "crypto/rand"
	"fmt"

	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/gxo-labs/weft/internal/config"
	werrors "github.com/gxo-labs/weft/pkg/weft/v1/errors"
)

// Generator allocates trace and span identifiers. Implementations must be
// safe for concurrent use.
type Generator interface {
	// NewIDs returns a trace id and a span id for a new root span.
	NewIDs() (oteltrace.TraceID, oteltrace.SpanID)
	// NewSpanID returns a span id for a child span within traceID.
	NewSpanID(traceID oteltrace.TraceID) oteltrace.SpanID
}

// New returns the generator registered under the given identity. The empty
// string selects the default random generator.
func New(name string) (Generator, error) {
	switch name {
	case "", config.IDGeneratorRandom:
		return randomGenerator{}, nil
	default:
		return nil, werrors.NewConfigError(fmt.Sprintf("unknown id generator '%s'", name), nil)
	}
}

// randomGenerator draws ids from crypto/rand. Zero-valued ids are invalid in
// the W3C trace context model, so draws are retried until non-zero.
type randomGenerator struct{}

var _ Generator = randomGenerator{}

func (randomGenerator) NewIDs() (oteltrace.TraceID, oteltrace.SpanID) {
	var tid oteltrace.TraceID
	for !tid.IsValid() {
		mustRead(tid[:])
	}
	var sid oteltrace.SpanID
	for !sid.IsValid() {
		mustRead(sid[:])
	}
	return tid, sid
}

func (randomGenerator) NewSpanID(oteltrace.TraceID) oteltrace.SpanID {
	var sid oteltrace.SpanID
	for !sid.IsValid() {
		mustRead(sid[:])
	}
	return sid
}

// mustRead fills b from crypto/rand. The platform CSPRNG not being readable
// is unrecoverable, so failure panics rather than degrading id uniqueness.
func mustRead(b []byte) {
	if _, err := crand.Read(b); err != nil {
		panic(fmt.Errorf("idgen: reading random bytes: %w", err))
	}
}
