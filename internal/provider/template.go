package provider

import (
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/gxo-labs/weft/internal/idgen"
	"github.com/gxo-labs/weft/internal/metrics"
	"github.com/gxo-labs/weft/internal/sampler"
	wefttrace "github.com/gxo-labs/weft/pkg/weft/v1/trace"
)

// tracerTemplate is the immutable bundle from which scoped tracer handles are
// stamped: sampler, id generator, composed hook chains and resource. Exactly
// one template exists per coordinator; handles share it and differ only in
// their attached instrumentation scope.
type tracerTemplate struct {
	sampler sampler.Sampler
	idGen   idgen.Generator
	onStart startHook
	onEnd   endHook
	res     *resource.Resource
}

// newTracerTemplate composes the hook chains over the surviving entries and
// binds them with the shared collaborators.
func newTracerTemplate(smp sampler.Sampler, gen idgen.Generator, entries []Entry, res *resource.Resource) *tracerTemplate {
	return &tracerTemplate{
		sampler: smp,
		idGen:   gen,
		onStart: composeStartHook(entries),
		onEnd:   composeEndHook(entries),
		res:     res,
	}
}

// tracer stamps a scoped handle from the template. This is a pure derived-value
// construction: no shared state is mutated.
func (t *tracerTemplate) tracer(scope wefttrace.InstrumentationScope, m *metrics.CoordinatorMetrics) wefttrace.Tracer {
	return &defaultTracer{template: t, scope: scope, metrics: m}
}
