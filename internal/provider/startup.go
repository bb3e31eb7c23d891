package provider

import (
	"fmt"
	"runtime/debug"

	"github.com/gxo-labs/weft/internal/config"
	"github.com/gxo-labs/weft/internal/metrics"
	werrors "github.com/gxo-labs/weft/pkg/weft/v1/errors"
	weftlog "github.com/gxo-labs/weft/pkg/weft/v1/log"
	wefttrace "github.com/gxo-labs/weft/pkg/weft/v1/trace"
)

// Entry is one surviving span processor with the configuration bound to its
// lifecycle callbacks. Entries are created during coordinator startup and are
// immutable afterwards.
type Entry struct {
	Name      string
	Processor wefttrace.Processor
	Config    wefttrace.ProcessorConfig
}

// materializeProcessors turns the ordered processor specification list into
// the ordered list of surviving entries. It is a total function: entries whose
// factory cannot be resolved or whose startup fails (or panics) are dropped
// and logged, and no failure ever aborts coordinator startup. Relative order
// of survivors matches the configuration order.
func materializeProcessors(specs []config.ProcessorSpec, registry wefttrace.ProcessorRegistry, log weftlog.Logger, m *metrics.CoordinatorMetrics) []Entry {
	entries := make([]Entry, 0, len(specs))
	for _, spec := range specs {
		factory, err := registry.Get(spec.Type)
		if err != nil {
			log.Infof("Dropping span processor '%s': %v", spec.Type, err)
			m.IncProcessorsDropped()
			continue
		}
		proc := factory()
		cfg := wefttrace.ProcessorConfig(spec.Params)
		if cfg == nil {
			cfg = wefttrace.ProcessorConfig{}
		}

		// Processors without the startup capability are stateless and survive
		// unconditionally with their original configuration.
		startable, ok := proc.(wefttrace.Startable)
		if !ok {
			entries = append(entries, Entry{Name: spec.Type, Processor: proc, Config: cfg})
			continue
		}

		updated, err := startProcessor(startable, spec.Type, cfg, log)
		if err != nil {
			log.Infof("Dropping span processor '%s': %v", spec.Type, err)
			m.IncProcessorsDropped()
			continue
		}
		if updated == nil {
			updated = cfg
		}
		entries = append(entries, Entry{Name: spec.Type, Processor: proc, Config: updated})
	}
	return entries
}

// startProcessor invokes a processor's Startup under a recover guard so that a
// defect in a pluggable processor cannot unwind into the coordinator's own
// startup. A panic is logged with its stack at debug level and converted into
// a ProcessorStartupError; the caller sees only the error value.
func startProcessor(s wefttrace.Startable, name string, cfg wefttrace.ProcessorConfig, log weftlog.Logger) (updated wefttrace.ProcessorConfig, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Debugf("Span processor '%s' startup panicked: %v\n%s", name, r, debug.Stack())
			updated = nil
			err = werrors.NewProcessorStartupError(name, fmt.Errorf("startup panicked: %v", r))
		}
	}()
	updated, err = s.Startup(cfg)
	if err != nil {
		return nil, werrors.NewProcessorStartupError(name, err)
	}
	return updated, nil
}
