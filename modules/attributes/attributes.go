// Package attributes provides a stateless span processor that injects a fixed
// set of attributes into every span at start. Typical use is stamping
// deployment metadata (environment, region, build) onto all spans without
// touching instrumentation code.
package attributes

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/gxo-labs/weft/internal/paramutil"
	"github.com/gxo-labs/weft/internal/processor"
	wefttrace "github.com/gxo-labs/weft/pkg/weft/v1/trace"
)

// ProcessorTypeName is the type string used in configuration files.
const ProcessorTypeName = "attributes"

// Processor implements the span processor contract. It exposes no startup
// routine: it is stateless and survives coordinator startup unconditionally
// with its original configuration.
type Processor struct{}

// Compile-time check that the module satisfies the processor contract.
var _ wefttrace.Processor = (*Processor)(nil)

func init() {
	processor.Register(ProcessorTypeName, func() wefttrace.Processor { return &Processor{} })
}

// OnStart appends the configured attributes to the span. The 'attributes'
// param is a string-to-string map; a missing or malformed param passes the
// span through unchanged.
func (p *Processor) OnStart(_ context.Context, span wefttrace.Span, cfg wefttrace.ProcessorConfig) wefttrace.Span {
	attrs, found, err := paramutil.GetOptionalStringMap(cfg, "attributes")
	if err != nil || !found {
		return span
	}
	for k, v := range attrs {
		span.Attributes = append(span.Attributes, attribute.String(k, v))
	}
	return span
}

// OnEnd has nothing to observe; it always signals success.
func (p *Processor) OnEnd(wefttrace.Span, wefttrace.ProcessorConfig) bool { return true }

// ForceFlush is a no-op: nothing is buffered.
func (p *Processor) ForceFlush(wefttrace.ProcessorConfig) error { return nil }
