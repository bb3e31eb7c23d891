package provider

import (
	"fmt"

	"github.com/gxo-labs/weft/internal/metrics"
	werrors "github.com/gxo-labs/weft/pkg/weft/v1/errors"
	weftlog "github.com/gxo-labs/weft/pkg/weft/v1/log"
)

// flushAll invokes every surviving processor's flush operation in list order,
// regardless of earlier outcomes. Failures (explicit or recovered from a
// panic) are collected by prepending, so the reported list is in reverse
// encounter order relative to the processor list. The result is nil only if
// every processor succeeded; otherwise a *FlushError carrying the complete set
// of per-processor causes.
func flushAll(entries []Entry, log weftlog.Logger, m *metrics.CoordinatorMetrics) error {
	var failures []werrors.ProcessorFailure
	for _, e := range entries {
		if err := flushOne(e); err != nil {
			log.Warnf("Span processor '%s' flush failed: %v", e.Name, err)
			failures = append([]werrors.ProcessorFailure{{ProcessorName: e.Name, Cause: err}}, failures...)
		}
	}
	if len(failures) == 0 {
		return nil
	}
	m.IncFlushFailures(len(failures))
	return werrors.NewFlushError(failures)
}

// flushOne wraps a single flush call so a panicking processor is converted
// into a failure value rather than unwinding the aggregator.
func flushOne(e Entry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("flush panicked: %v", r)
		}
	}()
	return e.Processor.ForceFlush(e.Config)
}
