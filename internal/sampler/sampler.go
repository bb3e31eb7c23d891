// Package sampler constructs sampling policies from their declarative
// specification. The coordinator builds exactly one policy at startup and
// shares it read-only across every tracer handle stamped from its template.
package sampler

import (
	"encoding/binary"
	"fmt"

	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/gxo-labs/weft/internal/config"
	werrors "github.com/gxo-labs/weft/pkg/weft/v1/errors"
)

// Decision is the outcome of a sampling check.
type Decision int

const (
	// Drop means the span is not recorded: processors never see it.
	Drop Decision = iota
	// RecordAndSample means the span is recorded and its sampled flag set.
	RecordAndSample
)

// Parameters carries the inputs of a sampling check.
type Parameters struct {
	// Parent is the span context the new span is started under. Invalid for
	// root spans.
	Parent oteltrace.SpanContext
	// TraceID is the trace the new span will belong to.
	TraceID oteltrace.TraceID
	// Name is the operation name of the new span.
	Name string
}

// Sampler decides whether a span about to start is recorded. Implementations
// must be safe for concurrent use and must not block.
type Sampler interface {
	ShouldSample(p Parameters) Decision
	// Description returns a human-readable identity used in logs.
	Description() string
}

// New constructs a Sampler from its specification. A nil spec selects the
// parent-based always-on sampler, matching the behavior of an unconfigured
// tracing setup.
func New(spec *config.SamplerSpec) (Sampler, error) {
	if spec == nil {
		return &parentBased{root: alwaysOn{}}, nil
	}
	switch spec.Name {
	case config.SamplerAlwaysOn:
		return alwaysOn{}, nil
	case config.SamplerAlwaysOff:
		return alwaysOff{}, nil
	case config.SamplerTraceIDRatio:
		return newTraceIDRatio(spec.Ratio), nil
	case config.SamplerParentBased:
		root, err := newParentRoot(spec.Root)
		if err != nil {
			return nil, err
		}
		return &parentBased{root: root}, nil
	default:
		return nil, werrors.NewConfigError(fmt.Sprintf("unknown sampler '%s'", spec.Name), nil)
	}
}

// newParentRoot builds the sampler a parent_based sampler consults for root
// spans. Absent a root spec, root spans are always sampled.
func newParentRoot(spec *config.SamplerSpec) (Sampler, error) {
	if spec == nil {
		return alwaysOn{}, nil
	}
	if spec.Name == config.SamplerParentBased {
		return nil, werrors.NewConfigError("parent_based sampler cannot use parent_based as its root", nil)
	}
	return New(spec)
}

type alwaysOn struct{}

func (alwaysOn) ShouldSample(Parameters) Decision { return RecordAndSample }

func (alwaysOn) Description() string { return "AlwaysOn" }

type alwaysOff struct{}

func (alwaysOff) ShouldSample(Parameters) Decision { return Drop }

func (alwaysOff) Description() string { return "AlwaysOff" }

// traceIDRatio samples a fixed fraction of traces by comparing the low 63 bits
// of the trace id against a precomputed bound, so the decision is a pure
// function of the trace id.
type traceIDRatio struct {
	ratio      float64
	upperBound uint64
}

func newTraceIDRatio(ratio float64) *traceIDRatio {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return &traceIDRatio{
		ratio:      ratio,
		upperBound: uint64(ratio * (1 << 63)),
	}
}

func (s *traceIDRatio) ShouldSample(p Parameters) Decision {
	x := binary.BigEndian.Uint64(p.TraceID[8:16]) >> 1
	if x < s.upperBound {
		return RecordAndSample
	}
	return Drop
}

func (s *traceIDRatio) Description() string {
	return fmt.Sprintf("TraceIDRatio{%g}", s.ratio)
}

// parentBased honors the parent's sampled flag when a valid parent exists and
// defers to its root sampler otherwise.
type parentBased struct {
	root Sampler
}

func (s *parentBased) ShouldSample(p Parameters) Decision {
	if p.Parent.IsValid() {
		if p.Parent.IsSampled() {
			return RecordAndSample
		}
		return Drop
	}
	return s.root.ShouldSample(p)
}

func (s *parentBased) Description() string {
	return fmt.Sprintf("ParentBased{root=%s}", s.root.Description())
}
