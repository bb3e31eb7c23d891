// Package logspans provides a span processor that writes one structured log
// record per ended span. It buffers nothing; flush is always an immediate
// success. Useful as a lightweight exporter during development and as a
// sanity check that spans flow through the pipeline at all.
package logspans

import (
	"context"
	"log/slog"

	"github.com/gxo-labs/weft/internal/logger"
	"github.com/gxo-labs/weft/internal/paramutil"
	"github.com/gxo-labs/weft/internal/processor"
	weftlog "github.com/gxo-labs/weft/pkg/weft/v1/log"
	wefttrace "github.com/gxo-labs/weft/pkg/weft/v1/trace"
)

// ProcessorTypeName is the type string used in configuration files.
const ProcessorTypeName = "logspans"

// loggerKey is the config key under which Startup stashes the built logger.
// The leading underscore marks it as coordinator-internal, distinct from
// user-supplied params.
const loggerKey = "_weft_logspans_logger_"

// Processor implements the span processor contract with a startup routine
// that builds the log destination from its params and carries it in the
// returned configuration.
type Processor struct{}

var (
	_ wefttrace.Processor = (*Processor)(nil)
	_ wefttrace.Startable = (*Processor)(nil)
)

func init() {
	processor.Register(ProcessorTypeName, func() wefttrace.Processor { return &Processor{} })
}

// Startup builds the logger from the optional 'level' and 'format' params and
// returns an enriched copy of the configuration carrying it.
func (p *Processor) Startup(cfg wefttrace.ProcessorConfig) (wefttrace.ProcessorConfig, error) {
	level, _, err := paramutil.GetOptionalString(cfg, "level")
	if err != nil {
		return nil, err
	}
	format, _, err := paramutil.GetOptionalString(cfg, "format")
	if err != nil {
		return nil, err
	}
	if level == "" {
		level = "info"
	}

	updated := make(wefttrace.ProcessorConfig, len(cfg)+1)
	for k, v := range cfg {
		updated[k] = v
	}
	updated[loggerKey] = logger.NewLogger(level, format, nil).With("component", "logspans")
	return updated, nil
}

// OnStart passes the span through untouched.
func (p *Processor) OnStart(_ context.Context, span wefttrace.Span, _ wefttrace.ProcessorConfig) wefttrace.Span {
	return span
}

// OnEnd logs the finished span and always signals success. A configuration
// that never went through Startup carries no logger and is tolerated.
func (p *Processor) OnEnd(span wefttrace.Span, cfg wefttrace.ProcessorConfig) bool {
	log, ok := cfg[loggerKey].(weftlog.Logger)
	if !ok {
		return true
	}
	log.Log(slog.LevelInfo, "span ended",
		"name", span.Name,
		"trace_id", span.SpanContext.TraceID().String(),
		"span_id", span.SpanContext.SpanID().String(),
		"duration", span.EndTime.Sub(span.StartTime).String(),
		"status", span.StatusCode.String(),
	)
	return true
}

// ForceFlush is an immediate success: spans are written as they end.
func (p *Processor) ForceFlush(wefttrace.ProcessorConfig) error { return nil }
