// Package otlp provides a buffering span processor that exports ended spans
// to an OpenTelemetry collector over OTLP (gRPC or HTTP) on force-flush. The
// processor is startable: its Startup call creates the exporter and stashes a
// handle to the running instance in its own configuration, which the
// coordinator binds to all subsequent lifecycle callbacks.
package otlp

import (
	"context"
	"fmt"
	"sync"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/gxo-labs/weft/internal/paramutil"
	"github.com/gxo-labs/weft/internal/processor"
	wefttrace "github.com/gxo-labs/weft/pkg/weft/v1/trace"
)

// ProcessorTypeName is the type string used in configuration files.
const ProcessorTypeName = "otlp"

// instanceKey is the config key under which Startup stashes the running
// instance handle. The leading underscore marks it as coordinator-internal,
// distinct from user-supplied params.
const instanceKey = "_weft_otlp_instance_"

// defaultBufferSize bounds the number of ended spans held between flushes.
const defaultBufferSize = 2048

// Processor implements the span processor contract around a buffered OTLP
// exporter.
type Processor struct{}

var (
	_ wefttrace.Processor = (*Processor)(nil)
	_ wefttrace.Startable = (*Processor)(nil)
	_ wefttrace.Stoppable = (*Processor)(nil)
)

func init() {
	processor.Register(ProcessorTypeName, func() wefttrace.Processor { return &Processor{} })
}

// instance is the running state of one configured otlp processor: the
// exporter plus the bounded span buffer.
type instance struct {
	exporter sdktrace.SpanExporter
	timeout  time.Duration

	mu      sync.Mutex
	buffer  []wefttrace.Span
	maxSize int
	dropped int
}

// Startup parses the exporter params, creates the OTLP exporter and returns
// an enriched copy of the configuration carrying the instance handle.
func (p *Processor) Startup(cfg wefttrace.ProcessorConfig) (wefttrace.ProcessorConfig, error) {
	settings, err := parseExporterSettings(cfg)
	if err != nil {
		return nil, err
	}

	bufferSize, found, err := paramutil.GetOptionalInt(cfg, "buffer_size")
	if err != nil {
		return nil, err
	}
	if !found || bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}

	exporter, err := newExporter(context.Background(), settings)
	if err != nil {
		return nil, err
	}

	updated := make(wefttrace.ProcessorConfig, len(cfg)+1)
	for k, v := range cfg {
		updated[k] = v
	}
	updated[instanceKey] = &instance{
		exporter: exporter,
		timeout:  settings.timeout,
		maxSize:  bufferSize,
	}
	return updated, nil
}

// OnStart passes the span through untouched; only ended spans are exported.
func (p *Processor) OnStart(_ context.Context, span wefttrace.Span, _ wefttrace.ProcessorConfig) wefttrace.Span {
	return span
}

// OnEnd appends the span to the bounded buffer. When the buffer is full the
// oldest span is dropped to make room; the drop is reported on the next
// flush. OnEnd always signals success: buffering cannot fail.
func (p *Processor) OnEnd(span wefttrace.Span, cfg wefttrace.ProcessorConfig) bool {
	inst, ok := fromConfig(cfg)
	if !ok {
		return true
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if len(inst.buffer) >= inst.maxSize {
		inst.buffer = inst.buffer[1:]
		inst.dropped++
	}
	inst.buffer = append(inst.buffer, span)
	return true
}

// ForceFlush exports the buffered spans. The buffer is cleared only on a
// successful export so a failed flush can be retried by a later one.
func (p *Processor) ForceFlush(cfg wefttrace.ProcessorConfig) error {
	inst, ok := fromConfig(cfg)
	if !ok {
		return fmt.Errorf("otlp processor is not started")
	}

	inst.mu.Lock()
	batch := append([]wefttrace.Span(nil), inst.buffer...)
	dropped := inst.dropped
	inst.mu.Unlock()

	if len(batch) == 0 && dropped == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), inst.timeout)
	defer cancel()
	if err := inst.exporter.ExportSpans(ctx, snapshots(batch)); err != nil {
		return err
	}

	inst.mu.Lock()
	inst.buffer = inst.buffer[:0]
	inst.dropped = 0
	inst.mu.Unlock()

	if dropped > 0 {
		return fmt.Errorf("buffer overflow dropped %d span(s) before this flush", dropped)
	}
	return nil
}

// Shutdown flushes what it can and releases the exporter.
func (p *Processor) Shutdown(ctx context.Context, cfg wefttrace.ProcessorConfig) error {
	inst, ok := fromConfig(cfg)
	if !ok {
		return nil
	}
	flushErr := p.ForceFlush(cfg)
	if err := inst.exporter.Shutdown(ctx); err != nil {
		return err
	}
	return flushErr
}

// fromConfig retrieves the instance handle Startup stashed in the bound
// configuration.
func fromConfig(cfg wefttrace.ProcessorConfig) (*instance, bool) {
	inst, ok := cfg[instanceKey].(*instance)
	return inst, ok
}
