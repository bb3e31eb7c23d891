package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	weft "github.com/gxo-labs/weft/pkg/weft/v1/metrics"
)

// CoordinatorMetrics holds the Prometheus instruments of one provider
// coordinator. A nil *CoordinatorMetrics is valid and disables all
// instrumentation, so callers never need to branch on whether metrics were
// configured.
type CoordinatorMetrics struct {
	spansStarted      prometheus.Counter
	spansEnded        prometheus.Counter
	processorsDropped prometheus.Counter
	flushFailures     prometheus.Counter
	tracersDenied     prometheus.Counter
}

// NewCoordinatorMetrics registers the coordinator's counters on the given
// provider's registry. A nil provider yields a nil set (instrumentation
// disabled).
func NewCoordinatorMetrics(provider weft.RegistryProvider) *CoordinatorMetrics {
	if provider == nil {
		return nil
	}
	m := &CoordinatorMetrics{
		spansStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "weft_spans_started_total",
			Help: "Total number of sampled spans started by the coordinator's tracers.",
		}),
		spansEnded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "weft_spans_ended_total",
			Help: "Total number of sampled spans ended by the coordinator's tracers.",
		}),
		processorsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "weft_processors_dropped_total",
			Help: "Total number of configured span processors dropped during startup.",
		}),
		flushFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "weft_flush_failures_total",
			Help: "Total number of per-processor failures observed during force-flush requests.",
		}),
		tracersDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "weft_tracers_denied_total",
			Help: "Total number of get-tracer requests answered with a noop handle due to the deny-list.",
		}),
	}
	provider.Registry().MustRegister(
		m.spansStarted, m.spansEnded, m.processorsDropped, m.flushFailures, m.tracersDenied,
	)
	return m
}

// IncSpansStarted increments the started-span counter.
func (m *CoordinatorMetrics) IncSpansStarted() {
	if m == nil {
		return
	}
	m.spansStarted.Inc()
}

// IncSpansEnded increments the ended-span counter.
func (m *CoordinatorMetrics) IncSpansEnded() {
	if m == nil {
		return
	}
	m.spansEnded.Inc()
}

// IncProcessorsDropped increments the dropped-processor counter.
func (m *CoordinatorMetrics) IncProcessorsDropped() {
	if m == nil {
		return
	}
	m.processorsDropped.Inc()
}

// IncFlushFailures adds the number of per-processor failures of one
// force-flush request.
func (m *CoordinatorMetrics) IncFlushFailures(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.flushFailures.Add(float64(n))
}

// IncTracersDenied increments the denied-tracer counter.
func (m *CoordinatorMetrics) IncTracersDenied() {
	if m == nil {
		return
	}
	m.tracersDenied.Inc()
}
